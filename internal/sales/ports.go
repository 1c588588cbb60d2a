package sales

import (
	"context"

	"salesdash/internal/core"
)

// Ports for record store adapters.
type (
	// Source supplies the full, denormalized set of sale records ordered by
	// sale date ascending.
	Source interface {
		FetchAllSales(ctx context.Context) ([]core.SaleRecord, error)
	}

	// Seeder loads the product catalog and sample sales into an empty store.
	Seeder interface {
		// Seed inserts products and sales only when the store has no products
		// yet; it reports whether anything was written.
		Seed(ctx context.Context, products []core.Product, sales []core.SaleRecord) (bool, error)
	}

	// Pinger is implemented by sources that can check their connectivity.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
