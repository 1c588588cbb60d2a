// Package backend builds the sale record store selected by configuration.
package backend

import (
	"context"
	"time"

	"salesdash/internal/sales"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is a constructed backend. Seeder is nil for read-only stores.
type Result struct {
	Type    BackendType
	Source  sales.Source
	Seeder  sales.Seeder
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath   string
	ConnectRetries int
	ConnectBackoff time.Duration

	// Google Sheets specific
	GoogleSpreadsheetID  string
	GoogleSalesSheetName string

	// Memory specific: directory holding the CSV seed and the number of
	// sales generated when it is absent.
	DataDirectory  string
	GeneratedSales int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
