package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/aggregate"
	"salesdash/internal/core"
	"salesdash/internal/sales"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "db", "sales.db"), ConnectOptions{Retries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeedAndFetchRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	products := sales.SampleProducts()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []core.SaleRecord{
		{ProductName: "Jeans", Category: "Clothing", Quantity: 2, TotalPrice: core.Money{Cents: 9998}, SaleDate: t0.Add(24 * time.Hour), Region: "South"},
		{ProductName: "Laptop", Category: "Electronics", Quantity: 1, TotalPrice: core.Money{Cents: 99999}, SaleDate: t0, Region: "North"},
	}

	ok, err := repo.Seed(ctx, products, records)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.FetchAllSales(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[1], got[0], "ordered by sale date")
	assert.Equal(t, records[0], got[1])

	ok, err = repo.Seed(ctx, products, records)
	require.NoError(t, err)
	assert.False(t, ok, "second seed must be a no-op")

	require.NoError(t, repo.Ping(ctx))
}

func TestMigrateSalesSchemaIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	path := filepath.Join(t.TempDir(), "again.db")

	first, err := MigrateSalesSchema(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	second, err := MigrateSalesSchema(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var tables int
	require.NoError(t, repo.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('products', 'sales')`,
	).Scan(&tables))
	assert.Equal(t, 2, tables)
}

func TestSeedRejectsUnknownProduct(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Seed(context.Background(), sales.SampleProducts(), []core.SaleRecord{
		{ProductName: "Teapot", Category: "Kitchen", Quantity: 1, TotalPrice: core.Money{Cents: 100}, SaleDate: time.Now(), Region: "North"},
	})
	assert.Error(t, err)

	got, err := repo.FetchAllSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "failed seed must roll back")
}

func TestFetchMalformedPriceIsValidationError(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_, err := repo.db.ExecContext(ctx, `INSERT INTO products (name, category, price) VALUES ('Laptop', 'Electronics', '999.99')`)
	require.NoError(t, err)
	_, err = repo.db.ExecContext(ctx, `INSERT INTO sales (product_id, quantity, total_price, sale_date, region) VALUES (1, 1, 'n/a', '2025-03-01 10:00:00', 'North')`)
	require.NoError(t, err)

	_, err = repo.FetchAllSales(ctx)
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "total_price", ve.Field)
	assert.Equal(t, 0, ve.Index)
}

func TestSeededDataConservesTotal(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	products := sales.SampleProducts()
	records := sales.GenerateSales(newRand(3), products, 300, time.Now())
	_, err := repo.Seed(ctx, products, records)
	require.NoError(t, err)

	got, err := repo.FetchAllSales(ctx)
	require.NoError(t, err)
	byCat, err := aggregate.GroupSum(got, aggregate.ByCategory)
	require.NoError(t, err)

	var want int64
	for _, r := range records {
		want += r.TotalPrice.Cents
	}
	assert.Equal(t, want, byCat.Total().Cents)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := exponentialBackoff(time.Second, tt.attempt); got != tt.expected {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
	if got := exponentialBackoff(0, 3); got != 0 {
		t.Errorf("zero base should not wait, got %v", got)
	}
}

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), ConnectOptions{Retries: 3, Backoff: time.Millisecond}, "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	boom := errors.New("down")
	err = withRetry(context.Background(), ConnectOptions{Retries: 2, Backoff: time.Millisecond}, "dead", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, ConnectOptions{Retries: 5, Backoff: time.Hour}, "cancelled", func() error { return boom })
	assert.ErrorIs(t, err, context.Canceled)
}
