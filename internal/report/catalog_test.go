package report

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/aggregate"
	"salesdash/internal/chart"
	"salesdash/internal/core"
)

func TestCatalogEntries(t *testing.T) {
	c := NewCatalog()
	assert.Equal(t, []string{Category, Daily, Region, TopProducts}, c.IDs())

	tests := []struct {
		id    string
		key   aggregate.KeySelector
		shape chart.Shape
		topN  int
		title string
	}{
		{Category, aggregate.ByCategory, chart.Bar, 0, "Total Sales by Product Category"},
		{Daily, aggregate.ByDate, chart.Line, 0, "Daily Sales Trend"},
		{Region, aggregate.ByRegion, chart.Pie, 0, "Sales Distribution by Region"},
		{TopProducts, aggregate.ByProduct, chart.Bar, 5, "Top 5 Products by Sales"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := c.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.key, d.Key)
			assert.Equal(t, tt.shape, d.Shape)
			assert.Equal(t, tt.topN, d.TopN)
			assert.Equal(t, tt.title, d.Title)
		})
	}
}

func TestCatalogLookupUnknown(t *testing.T) {
	_, err := NewCatalog().Lookup("weekly")
	var unknown *UnknownReportError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "weekly", unknown.ID)
	assert.Contains(t, err.Error(), "weekly")
}

func TestCatalogIDsIsACopy(t *testing.T) {
	c := NewCatalog()
	ids := c.IDs()
	ids[0] = "tampered"
	assert.Equal(t, Category, c.IDs()[0])
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	d := Descriptor{ID: "x", Key: aggregate.ByRegion, Shape: chart.Pie}
	assert.Panics(t, func() { newCatalog(d, d) })
	assert.Panics(t, func() { newCatalog(Descriptor{ID: "y", Key: aggregate.ByRegion, Shape: "radar"}) })
}

func TestDescriptorAggregate(t *testing.T) {
	day := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	var records []core.SaleRecord
	for i := 0; i < 7; i++ {
		records = append(records, core.SaleRecord{
			ProductName: string(rune('A' + i)),
			Category:    "Cat",
			Quantity:    1,
			TotalPrice:  core.Money{Cents: int64(100 * (i + 1))},
			SaleDate:    day.AddDate(0, 0, 6-i),
			Region:      "North",
		})
	}
	c := NewCatalog()

	top, _ := c.Lookup(TopProducts)
	got, err := top.Aggregate(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"G", "F", "E", "D", "C"}, got.Labels())

	daily, _ := c.Lookup(Daily)
	got, err = daily.Aggregate(records)
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.Equal(t, "2025-01-01", got[0].Label)
	assert.Equal(t, "2025-01-07", got[6].Label)
}

func TestDescriptorJSON(t *testing.T) {
	d, _ := NewCatalog().Lookup(TopProducts)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "top_products",
		"key": "product",
		"shape": "bar",
		"top_n": 5,
		"title": "Top 5 Products by Sales",
		"x_label": "Product",
		"y_label": "Total Sales ($)"
	}`, string(b))
}
