package backend

import (
	"context"
	"fmt"
	"log/slog"

	"salesdash/internal/sales/google"
	"salesdash/internal/sales/memory"
	"salesdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With("component", "backend")}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	opts := storage.DefaultConnectOptions()
	if config.ConnectRetries > 0 {
		opts.Retries = config.ConnectRetries
	}
	if config.ConnectBackoff > 0 {
		opts.Backoff = config.ConnectBackoff
	}

	repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Type:    SQLiteBackend,
		Source:  repo,
		Seeder:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	cli, err := google.NewFromEnv(ctx, config.GoogleSpreadsheetID, config.GoogleSalesSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSalesSheetName)

	return &Result{Type: SheetsBackend, Source: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir, config.GeneratedSales)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &Result{
		Type:   MemoryBackend,
		Source: store,
		Seeder: store,
	}, nil
}
