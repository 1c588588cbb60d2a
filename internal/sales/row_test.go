package sales

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
)

func TestParseRow(t *testing.T) {
	rec, err := ParseRow(0, []string{"2025-03-01 10:15:00", "Laptop", "Electronics", "2", "1999.98", "North"})
	require.NoError(t, err)
	assert.Equal(t, core.SaleRecord{
		ProductName: "Laptop",
		Category:    "Electronics",
		Quantity:    2,
		TotalPrice:  core.Money{Cents: 199998},
		SaleDate:    time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
		Region:      "North",
	}, rec)

	rec, err = ParseRow(1, []string{"2025-03-02", " Watch ", "Accessories", "1", "$149.99", "East"})
	require.NoError(t, err)
	assert.Equal(t, "Watch", rec.ProductName)
	assert.Equal(t, int64(14999), rec.TotalPrice.Cents)
}

func TestParseRowAmountSeparators(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"12,34", 1234},
		{"1,234.56", 123456},
		{"$1,234.56", 123456},
		{"1234.5", 123450},
		{"0,5", 50},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			rec, err := ParseRow(0, []string{"2025-03-01", "Laptop", "Electronics", "1", tt.amount, "North"})
			require.NoError(t, err)
			assert.Equal(t, tt.cents, rec.TotalPrice.Cents)
		})
	}
}

func TestParseRowErrors(t *testing.T) {
	cases := []struct {
		row   []string
		field string
	}{
		{[]string{"2025-03-01", "Laptop"}, "row"},
		{[]string{"yesterday", "Laptop", "Electronics", "1", "10", "North"}, "sale_date"},
		{[]string{"2025-03-01", "Laptop", "Electronics", "one", "10", "North"}, "quantity"},
		{[]string{"2025-03-01", "Laptop", "Electronics", "1", "ten", "North"}, "total_price"},
		{[]string{"2025-03-01", "Laptop", "Electronics", "1", "-10", "North"}, "total_price"},
		{[]string{"2025-03-01", "Laptop", "Electronics", "1", "1,234,56", "North"}, "total_price"},
		{[]string{"2025-03-01", "Laptop", "Electronics", "-1", "10", "North"}, "quantity"},
		{[]string{"2025-03-01", "Laptop", "", "1", "10", "North"}, "category"},
	}
	for _, tc := range cases {
		_, err := ParseRow(7, tc.row)
		var ve *core.ValidationError
		require.True(t, errors.As(err, &ve), "%v: got %v", tc.row, err)
		assert.Equal(t, 7, ve.Index)
		assert.Equal(t, tc.field, ve.Field)
	}
}

func TestGenerateSales(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	products := SampleProducts()
	got := GenerateSales(rand.New(rand.NewSource(1)), products, 200, now)
	require.Len(t, got, 200)

	prices := map[string]int64{}
	for _, p := range products {
		prices[p.Name] = p.Price.Cents
	}
	oldest := now.AddDate(0, 0, -30)
	for _, r := range got {
		require.NoError(t, r.Validate())
		assert.GreaterOrEqual(t, r.Quantity, 1)
		assert.LessOrEqual(t, r.Quantity, 5)
		assert.Equal(t, prices[r.ProductName]*int64(r.Quantity), r.TotalPrice.Cents)
		assert.False(t, r.SaleDate.Before(oldest))
		assert.False(t, r.SaleDate.After(now))
	}

	assert.Nil(t, GenerateSales(rand.New(rand.NewSource(1)), nil, 10, now))
}
