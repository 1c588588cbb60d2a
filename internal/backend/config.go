package backend

import (
	"errors"
	"fmt"

	"salesdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath:   appConfig.SQLiteDBPath,
		ConnectRetries: appConfig.DBConnectRetries,
		ConnectBackoff: appConfig.DBConnectBackoff,

		GoogleSpreadsheetID:  appConfig.GoogleSpreadsheetID,
		GoogleSalesSheetName: appConfig.GoogleSalesSheetName,

		DataDirectory:  appConfig.DataDir,
		GeneratedSales: appConfig.SeedSalesCount,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (valid: %v)", c.Type, GetBackendTypeStrings())
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data".
	}

	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{MemoryBackend.String(), SQLiteBackend.String(), SheetsBackend.String()}
}
