// Package report ties the aggregation engine to its outputs: a fixed catalog
// of chart reports and the JSON summary.
package report

import (
	"fmt"

	"salesdash/internal/aggregate"
	"salesdash/internal/chart"
	"salesdash/internal/core"
)

// Report identifiers served by the catalog.
const (
	Category    = "category"
	Daily       = "daily"
	Region      = "region"
	TopProducts = "top_products"
)

// Descriptor says which reduction a report needs and how to draw it.
// TopN of zero means the result is not truncated.
type Descriptor struct {
	ID     string                `json:"id"`
	Key    aggregate.KeySelector `json:"key"`
	Shape  chart.Shape           `json:"shape"`
	TopN   int                   `json:"top_n,omitempty"`
	Title  string                `json:"title"`
	XLabel string                `json:"x_label"`
	YLabel string                `json:"y_label"`
}

// Aggregate applies the descriptor's reduction to records. Date-keyed
// reports are ordered in time; every other key by descending value.
func (d Descriptor) Aggregate(records []core.SaleRecord) (aggregate.Result, error) {
	if d.Key == aggregate.ByDate {
		return aggregate.TimeSeriesSum(records)
	}
	result, err := aggregate.GroupSum(records, d.Key)
	if err != nil {
		return nil, err
	}
	if d.TopN > 0 {
		result = aggregate.TopN(result, d.TopN)
	}
	return result, nil
}

// UnknownReportError is returned by Lookup for ids outside the catalog.
type UnknownReportError struct {
	ID string
}

func (e *UnknownReportError) Error() string {
	return fmt.Sprintf("unknown report %q", e.ID)
}

// Catalog is the read-only registry of reports. It is built once at startup
// and safe for concurrent use.
type Catalog struct {
	order []string
	byID  map[string]Descriptor
}

// NewCatalog returns the catalog of the four dashboard reports.
func NewCatalog() *Catalog {
	return newCatalog(
		Descriptor{
			ID:     Category,
			Key:    aggregate.ByCategory,
			Shape:  chart.Bar,
			Title:  "Total Sales by Product Category",
			XLabel: "Category",
			YLabel: "Total Sales ($)",
		},
		Descriptor{
			ID:     Daily,
			Key:    aggregate.ByDate,
			Shape:  chart.Line,
			Title:  "Daily Sales Trend",
			XLabel: "Date",
			YLabel: "Total Sales ($)",
		},
		Descriptor{
			ID:     Region,
			Key:    aggregate.ByRegion,
			Shape:  chart.Pie,
			Title:  "Sales Distribution by Region",
			XLabel: "Region",
			YLabel: "Total Sales ($)",
		},
		Descriptor{
			ID:     TopProducts,
			Key:    aggregate.ByProduct,
			Shape:  chart.Bar,
			TopN:   5,
			Title:  "Top 5 Products by Sales",
			XLabel: "Product",
			YLabel: "Total Sales ($)",
		},
	)
}

func newCatalog(descriptors ...Descriptor) *Catalog {
	c := &Catalog{byID: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if !d.Key.IsValid() || !d.Shape.IsValid() {
			panic(fmt.Sprintf("report %q: invalid descriptor", d.ID))
		}
		if _, dup := c.byID[d.ID]; dup {
			panic(fmt.Sprintf("report %q registered twice", d.ID))
		}
		c.order = append(c.order, d.ID)
		c.byID[d.ID] = d
	}
	return c
}

// Lookup resolves a report id.
func (c *Catalog) Lookup(id string) (Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return Descriptor{}, &UnknownReportError{ID: id}
	}
	return d, nil
}

// IDs returns the report ids in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Descriptors returns every descriptor in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}
