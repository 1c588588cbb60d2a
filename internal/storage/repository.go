package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salesdash/internal/core"
	"salesdash/internal/sales"

	_ "modernc.org/sqlite"
)

// saleDateLayout is how sale timestamps are stored (wall clock, no zone).
const saleDateLayout = "2006-01-02 15:04:05"

var (
	_ sales.Source = (*SQLiteRepository)(nil)
	_ sales.Seeder = (*SQLiteRepository)(nil)
	_ sales.Pinger = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, dbPath string, opts ConnectOptions) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := withRetry(ctx, opts, "ping database", func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, err
	}

	version, err := MigrateSalesSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "Sales schema ready", "component", "storage", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements sales.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const fetchAllSalesQuery = `
SELECT s.sale_date, p.name, p.category, s.quantity, s.total_price, s.region
FROM sales s
JOIN products p ON s.product_id = p.id
ORDER BY s.sale_date, s.id`

// FetchAllSales implements sales.Source
func (r *SQLiteRepository) FetchAllSales(ctx context.Context) ([]core.SaleRecord, error) {
	rows, err := r.db.QueryContext(ctx, fetchAllSalesQuery)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var out []core.SaleRecord
	for i := 0; rows.Next(); i++ {
		row := make([]string, len(sales.Columns))
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &row[5]); err != nil {
			return nil, fmt.Errorf("scan sale row %d: %w", i, err)
		}
		rec, err := sales.ParseRow(i, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return out, nil
}

// Seed implements sales.Seeder. It writes nothing when products exist.
func (r *SQLiteRepository) Seed(ctx context.Context, products []core.Product, records []core.SaleRecord) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	ids := make(map[string]int64, len(products))
	for _, p := range products {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (name, category, price) VALUES (?, ?, ?)`,
			p.Name, p.Category, p.Price.String())
		if err != nil {
			return false, fmt.Errorf("insert product %s: %w", p.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("product id %s: %w", p.Name, err)
		}
		ids[p.Name] = id
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sales (product_id, quantity, total_price, sale_date, region) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("prepare sale insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range records {
		if err := s.Validate(); err != nil {
			return false, fmt.Errorf("seed record %d: %w", i, err)
		}
		id, ok := ids[s.ProductName]
		if !ok {
			return false, fmt.Errorf("seed record %d: unknown product %q", i, s.ProductName)
		}
		if _, err := stmt.ExecContext(ctx, id, s.Quantity, s.TotalPrice.String(), s.SaleDate.Format(saleDateLayout), s.Region); err != nil {
			return false, fmt.Errorf("insert sale %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded sales database",
		"products", len(products),
		"sales", len(records))
	return true, nil
}
