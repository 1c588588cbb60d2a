package aggregate

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
)

var day0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sale(cat, product, region string, cents int64, at time.Time) core.SaleRecord {
	return core.SaleRecord{
		ProductName: product,
		Category:    cat,
		Quantity:    1,
		TotalPrice:  core.Money{Cents: cents},
		SaleDate:    at,
		Region:      region,
	}
}

// randomSales builds a deterministic pseudo-random record set.
func randomSales(n int, seed int64) []core.SaleRecord {
	rng := rand.New(rand.NewSource(seed))
	cats := []string{"Electronics", "Clothing", "Footwear", "Appliances"}
	regions := []string{"North", "South", "East", "West", "Central"}
	out := make([]core.SaleRecord, n)
	for i := range out {
		out[i] = sale(
			cats[rng.Intn(len(cats))],
			fmt.Sprintf("P%d", rng.Intn(8)),
			regions[rng.Intn(len(regions))],
			int64(rng.Intn(100000)),
			day0.Add(time.Duration(rng.Intn(30*24))*time.Hour),
		)
	}
	return out
}

func inputTotal(records []core.SaleRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.TotalPrice.Cents
	}
	return total
}

func TestGroupSumEndToEndExample(t *testing.T) {
	records := []core.SaleRecord{
		sale("A", "x", "North", 1000, day0),
		sale("B", "y", "North", 3000, day0),
		sale("A", "z", "North", 2000, day0),
	}

	got, err := GroupSum(records, ByCategory)
	require.NoError(t, err)
	assert.Equal(t, Result{
		{Label: "A", Value: core.Money{Cents: 3000}},
		{Label: "B", Value: core.Money{Cents: 3000}},
	}, got)

	s, err := Summarize(records)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), s.TotalSales.Cents)
	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, 20.0, s.AverageOrderValue)
	assert.Equal(t, "A", s.BestCategory)
}

func TestGroupSumConservation(t *testing.T) {
	records := randomSales(500, 42)
	for _, key := range []KeySelector{ByCategory, ByRegion, ByProduct, ByDate} {
		t.Run(key.String(), func(t *testing.T) {
			got, err := GroupSum(records, key)
			require.NoError(t, err)
			assert.Equal(t, inputTotal(records), got.Total().Cents)

			// every label appears once and matches its own partition
			seen := map[string]bool{}
			for _, e := range got {
				require.False(t, seen[e.Label], "duplicate label %q", e.Label)
				seen[e.Label] = true
				var want int64
				for _, r := range records {
					if key.Label(r) == e.Label {
						want += r.TotalPrice.Cents
					}
				}
				assert.Equal(t, want, e.Value.Cents, "label %q", e.Label)
			}
		})
	}
}

func TestGroupSumOrderingNonIncreasing(t *testing.T) {
	got, err := GroupSum(randomSales(300, 7), ByProduct)
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Value.Cents, got[i].Value.Cents)
	}
}

func TestGroupSumTieBreakFirstSeen(t *testing.T) {
	records := []core.SaleRecord{
		sale("Zeta", "p", "r", 500, day0),
		sale("Alpha", "p", "r", 500, day0),
		sale("Mid", "p", "r", 900, day0),
		sale("Beta", "p", "r", 500, day0),
	}
	for i := 0; i < 20; i++ {
		got, err := GroupSum(records, ByCategory)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mid", "Zeta", "Alpha", "Beta"}, got.Labels())
	}
}

func TestGroupSumEmptyInput(t *testing.T) {
	got, err := GroupSum(nil, ByRegion)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestGroupSumUnknownKey(t *testing.T) {
	_, err := GroupSum(randomSales(3, 1), KeySelector(99))
	assert.Error(t, err)
}

func TestGroupSumValidationError(t *testing.T) {
	records := randomSales(5, 3)
	records[3].TotalPrice = core.Money{Cents: -10}

	_, err := GroupSum(records, ByCategory)
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, 3, ve.Index)
	assert.Equal(t, "total_price", ve.Field)
}

func TestTopN(t *testing.T) {
	result := Result{
		{Label: "a", Value: core.Money{Cents: 30}},
		{Label: "b", Value: core.Money{Cents: 20}},
		{Label: "c", Value: core.Money{Cents: 10}},
	}

	assert.Equal(t, result, TopN(result, 3))
	assert.Equal(t, result, TopN(result, 10))
	assert.Equal(t, Result{}, TopN(result, 0))
	assert.Equal(t, Result{}, TopN(result, -1))
	assert.Equal(t, []string{"a", "b"}, TopN(result, 2).Labels())
	assert.Empty(t, TopN(nil, 5))

	// appending to a truncated result must not clobber the source
	top := TopN(result, 1)
	_ = append(top, Entry{Label: "x"})
	assert.Equal(t, "b", result[1].Label)
}

func TestTimeSeriesSumAscendingRegardlessOfInputOrder(t *testing.T) {
	records := []core.SaleRecord{
		sale("A", "p", "r", 100, day0.AddDate(0, 0, 2)),
		sale("A", "p", "r", 200, day0),
		sale("A", "p", "r", 300, day0.AddDate(0, 0, 1).Add(13*time.Hour)),
		sale("A", "p", "r", 400, day0.Add(10*time.Hour)),
	}

	got, err := TimeSeriesSum(records)
	require.NoError(t, err)
	assert.Equal(t, Result{
		{Label: "2025-03-01", Value: core.Money{Cents: 600}},
		{Label: "2025-03-02", Value: core.Money{Cents: 300}},
		{Label: "2025-03-03", Value: core.Money{Cents: 100}},
	}, got)
}

func TestTimeSeriesSumProperties(t *testing.T) {
	records := randomSales(400, 11)
	got, err := TimeSeriesSum(records)
	require.NoError(t, err)
	assert.Equal(t, inputTotal(records), got.Total().Cents)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Label, got[i].Label)
	}

	empty, err := TimeSeriesSum(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, s)
}

func TestSummarizeBestProductTieBreak(t *testing.T) {
	records := []core.SaleRecord{
		sale("C1", "Watch", "r", 1500, day0),
		sale("C2", "Blender", "r", 1000, day0),
		sale("C2", "Blender", "r", 500, day0),
	}
	for i := 0; i < 10; i++ {
		s, err := Summarize(records)
		require.NoError(t, err)
		assert.Equal(t, "Watch", s.BestProduct)
		assert.Equal(t, "C1", s.BestCategory)
		assert.Equal(t, 10.0, s.AverageOrderValue)
	}
}

func TestSummarizeAverageIsNotRounded(t *testing.T) {
	records := []core.SaleRecord{
		sale("A", "Laptop", "r", 1000, day0),
		sale("A", "Laptop", "r", 0, day0),
		sale("B", "Jeans", "r", 0, day0),
	}

	s, err := Summarize(records)
	require.NoError(t, err)
	assert.Equal(t, 10.0/3, s.AverageOrderValue)
	assert.NotEqual(t, 3.33, s.AverageOrderValue)
}

func TestSummarizeEmptyAverageIsZero(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Zero(t, s.AverageOrderValue)
	assert.Zero(t, s.TotalOrders)
}

func TestSummarizeValidationError(t *testing.T) {
	records := randomSales(2, 9)
	records[1].Region = ""
	_, err := Summarize(records)
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}
