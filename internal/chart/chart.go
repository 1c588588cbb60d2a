// Package chart rasterizes aggregation results into PNG images.
//
// Each Render call builds its own chart value and output buffer; nothing is
// shared between calls, so renders may run concurrently.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"salesdash/internal/aggregate"
)

// Shape is the kind of chart drawn for a result.
type Shape string

const (
	Bar  Shape = "bar"
	Line Shape = "line"
	Pie  Shape = "pie"
)

// IsValid reports whether s is a supported shape.
func (s Shape) IsValid() bool {
	switch s {
	case Bar, Line, Pie:
		return true
	default:
		return false
	}
}

const (
	DefaultWidth  = 1000
	DefaultHeight = 600

	// maxLineTicks bounds the number of labelled x ticks on line charts.
	maxLineTicks = 12
)

// Options configures a single render.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// EmptySeriesError is returned for a pie with no entries or whose values
// sum to zero.
type EmptySeriesError struct {
	Title string
	Shape Shape
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("chart %q: empty %s series", e.Title, e.Shape)
}

// UnsupportedShapeError is returned for a shape outside Bar, Line and Pie.
type UnsupportedShapeError struct {
	Shape Shape
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported chart shape %q", string(e.Shape))
}

type renderable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Render draws result as the given shape and returns the encoded PNG.
// Entries are drawn in the order given; Render never re-sorts.
func Render(result aggregate.Result, shape Shape, opts Options) ([]byte, error) {
	if !shape.IsValid() {
		return nil, &UnsupportedShapeError{Shape: shape}
	}

	var c renderable
	switch {
	case len(result) == 0 && shape != Pie:
		c = emptyAxes(opts)
	case shape == Bar:
		c = barChart(result, opts)
	case shape == Line:
		c = lineChart(result, opts)
	case shape == Pie:
		if result.Total().Cents == 0 {
			return nil, &EmptySeriesError{Title: opts.Title, Shape: shape}
		}
		c = pieChart(result, opts)
	}

	var buf bytes.Buffer
	if err := c.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart %q: %w", shape, opts.Title, err)
	}
	return buf.Bytes(), nil
}

func barChart(result aggregate.Result, opts Options) *gochart.BarChart {
	width, height := opts.size()

	bars := make([]gochart.Value, len(result))
	for i, e := range result {
		bars[i] = gochart.Value{Label: e.Label, Value: e.Value.Float()}
	}

	// Fit bars to the canvas: fixed spacing, the rest shared by the bars.
	spacing := 20
	barWidth := (width-160)/len(result) - spacing
	if barWidth < 8 {
		barWidth = 8
	}

	return &gochart.BarChart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis: gochart.YAxis{
			Name:           opts.YLabel,
			Range:          valueRange(result),
			ValueFormatter: amountFormatter,
		},
		Bars: bars,
	}
}

func lineChart(result aggregate.Result, opts Options) *gochart.Chart {
	width, height := opts.size()
	n := len(result)

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, e := range result {
		xs[i] = float64(i)
		ys[i] = e.Value.Float()
	}

	// Boundary ticks keep the x range non-degenerate for a single point.
	step := int(math.Ceil(float64(n) / maxLineTicks))
	ticks := []gochart.Tick{{Value: -0.5}}
	for i, e := range result {
		if i%step == 0 {
			ticks = append(ticks, gochart.Tick{Value: float64(i), Label: e.Label})
		}
	}
	ticks = append(ticks, gochart.Tick{Value: float64(n) - 0.5})

	return &gochart.Chart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20}},
		XAxis: gochart.XAxis{
			Name:  opts.XLabel,
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
		},
		YAxis: gochart.YAxis{
			Name:           opts.YLabel,
			Range:          valueRange(result),
			ValueFormatter: amountFormatter,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    opts.Title,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
			},
		},
	}
}

// emptyAxes draws the axes of a bar or line chart with nothing plotted.
// go-chart needs at least one series, so a hidden one is supplied.
func emptyAxes(opts Options) *gochart.Chart {
	width, height := opts.size()
	return &gochart.Chart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20}},
		XAxis: gochart.XAxis{
			Name:  opts.XLabel,
			Ticks: []gochart.Tick{{Value: 0}, {Value: 1}},
			Range: &gochart.ContinuousRange{Min: 0, Max: 1},
		},
		YAxis: gochart.YAxis{
			Name:           opts.YLabel,
			Range:          valueRange(nil),
			ValueFormatter: amountFormatter,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   gochart.Style{Hidden: true},
			},
		},
	}
}

func pieChart(result aggregate.Result, opts Options) *gochart.PieChart {
	width, height := opts.size()

	values := make([]gochart.Value, 0, len(result))
	total := result.Total().Float()
	for _, e := range result {
		if e.Value.Cents == 0 {
			continue
		}
		v := e.Value.Float()
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %.1f%%", e.Label, v/total*100),
			Value: v,
		})
	}

	return &gochart.PieChart{
		Title:  opts.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
}

// valueRange anchors the value axis at zero with some headroom.
func valueRange(result aggregate.Result) *gochart.ContinuousRange {
	var top float64
	for _, e := range result {
		top = math.Max(top, e.Value.Float())
	}
	if top == 0 {
		top = 1
	}
	return &gochart.ContinuousRange{Min: 0, Max: top * 1.1}
}

func amountFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}
