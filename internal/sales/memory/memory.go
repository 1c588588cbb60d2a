package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/sales"
)

// SeedFile is the optional CSV NewFromFiles loads from its base directory.
const SeedFile = "seed_sales.csv"

var (
	_ sales.Source = (*Store)(nil)
	_ sales.Seeder = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	products []core.Product
	items    []core.SaleRecord
}

func New(records []core.SaleRecord) *Store {
	return &Store{items: append([]core.SaleRecord(nil), records...)}
}

// NewFromFiles loads base/seed_sales.csv. When the file is missing the store
// is filled with generated sample sales (n of them) so the dashboard has data.
func NewFromFiles(base string, n int) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		s := New(nil)
		products := sales.SampleProducts()
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if _, err := s.Seed(context.Background(), products, sales.GenerateSales(rng, products, n, time.Now())); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return New(records), nil
}

// FetchAllSales returns a copy of the records ordered by sale date.
func (s *Store) FetchAllSales(_ context.Context) ([]core.SaleRecord, error) {
	s.mu.Lock()
	out := append([]core.SaleRecord(nil), s.items...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SaleDate.Before(out[j].SaleDate)
	})
	return out, nil
}

// Seed stores products and sales unless products were already seeded.
func (s *Store) Seed(_ context.Context, products []core.Product, records []core.SaleRecord) (bool, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return false, fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products) > 0 {
		return false, nil
	}
	s.products = append([]core.Product(nil), products...)
	s.items = append(s.items, records...)
	return true, nil
}

// Append adds a single sale.
func (s *Store) Append(_ context.Context, r core.SaleRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return nil
}

// readCSV parses rows in sales.Columns order. A header row whose first cell
// is "Date" and lines starting with "#" are skipped.
func readCSV(r io.Reader) ([]core.SaleRecord, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []core.SaleRecord
	for i := 0; ; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), sales.Columns[0]) {
			continue
		}
		rec, err := sales.ParseRow(i, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
