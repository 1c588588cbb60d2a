package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"salesdash/internal/aggregate"
	"salesdash/internal/chart"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/sales"
)

// fetchTimeout bounds a shared record fetch.
const fetchTimeout = 30 * time.Second

// ErrSource marks failures of the underlying record store.
var ErrSource = errors.New("sales source failed")

// Option configures a Service.
type Option func(*Service)

// WithChartSize sets the rendered image size in pixels. Non-positive values
// keep the renderer defaults.
func WithChartSize(width, height int) Option {
	return func(s *Service) {
		s.width, s.height = width, height
	}
}

// WithMetrics records render timings and failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service runs the fetch, validate, aggregate and render pipeline for
// catalog reports. It keeps no state between calls apart from collapsing
// concurrent fetches into one.
type Service struct {
	source  sales.Source
	catalog *Catalog
	width   int
	height  int
	metrics *metrics.Metrics
	fetches singleflight.Group
}

func NewService(source sales.Source, catalog *Catalog, opts ...Option) *Service {
	s := &Service{source: source, catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service resolves ids against.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// records fetches the sale set. Concurrent callers share one fetch, which
// is detached from any single caller's cancellation; each caller still stops
// waiting when its own ctx ends. Callers share the returned slice and must
// not modify it.
func (s *Service) records(ctx context.Context) ([]core.SaleRecord, error) {
	ch := s.fetches.DoChan("sales", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.source.FetchAllSales(fetchCtx)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("fetch sales: %w: %w", ErrSource, res.Err)
	}
	records := res.Val.([]core.SaleRecord)
	s.metrics.RecordsFetched(len(records))
	return records, nil
}

// Chart renders report id as PNG bytes.
func (s *Service) Chart(ctx context.Context, id string) ([]byte, Descriptor, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentReport)
	start := time.Now()

	d, err := s.catalog.Lookup(id)
	if err != nil {
		s.metrics.ReportFailed("unknown", ErrorKind(err))
		return nil, Descriptor{}, err
	}

	png, stats, err := s.render(ctx, d)
	if err != nil {
		kind := ErrorKind(err)
		s.metrics.ReportFailed(d.ID, kind)
		logger.WarnContext(ctx, "Report generation failed",
			applog.NewFields().
				WithReport(d.ID, string(d.Shape)).
				WithError(err).
				ToSlice()...)
		return nil, d, err
	}

	elapsed := time.Since(start)
	s.metrics.ReportGenerated(d.ID, elapsed)
	logger.DebugContext(ctx, "Report generated",
		applog.NewFields().
			WithReport(d.ID, string(d.Shape)).
			WithCounts(stats.records, stats.entries).
			WithDuration(elapsed).
			ToSlice()...)
	return png, d, nil
}

type renderStats struct {
	records int
	entries int
}

func (s *Service) render(ctx context.Context, d Descriptor) ([]byte, renderStats, error) {
	var stats renderStats
	records, err := s.records(ctx)
	if err != nil {
		return nil, stats, err
	}
	stats.records = len(records)
	if err := aggregate.Validate(records); err != nil {
		return nil, stats, err
	}
	result, err := d.Aggregate(records)
	if err != nil {
		return nil, stats, fmt.Errorf("aggregate %s: %w", d.ID, err)
	}
	stats.entries = len(result)
	png, err := chart.Render(result, d.Shape, chart.Options{
		Title:  d.Title,
		XLabel: d.XLabel,
		YLabel: d.YLabel,
		Width:  s.width,
		Height: s.height,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("render %s: %w", d.ID, err)
	}
	return png, stats, nil
}

// Summary computes the headline figures over every sale.
func (s *Service) Summary(ctx context.Context) (SummaryResponse, error) {
	records, err := s.records(ctx)
	if err != nil {
		return SummaryResponse{}, err
	}
	summary, err := aggregate.Summarize(records)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("summarize: %w", err)
	}
	return FormatSummary(summary), nil
}

// ErrorKind classifies err for logs and metrics.
func ErrorKind(err error) string {
	var (
		unknown *UnknownReportError
		empty   *chart.EmptySeriesError
		invalid *core.ValidationError
	)
	switch {
	case errors.As(err, &unknown):
		return applog.ErrorTypeNotFound
	case errors.As(err, &empty):
		return applog.ErrorTypeEmptySeries
	case errors.As(err, &invalid), errors.Is(err, core.ErrInvalidRecord):
		return applog.ErrorTypeValidation
	case errors.Is(err, ErrSource):
		return applog.ErrorTypeSource
	default:
		return applog.ErrorTypeInternal
	}
}
