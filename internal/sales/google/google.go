// Package google reads sale records from a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesdash/internal/core"
	"salesdash/internal/sales"
)

// DefaultSheetName is the tab read when none is configured.
const DefaultSheetName = "Sales"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	salesSheet    string
}

var (
	_ sales.Source = (*Client)(nil)
	_ sales.Pinger = (*Client)(nil)
)

// New creates a client for the given spreadsheet. opts are passed to the
// Sheets service, which is how credentials or a test endpoint are supplied.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, salesSheet: sheetName}, nil
}

// NewFromEnv creates a read-only client using service account credentials
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	creds, err := credentialsFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID, sheetName,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", "component", "sheets")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "component", "sheets", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// FetchAllSales implements sales.Source
func (c *Client) FetchAllSales(ctx context.Context) ([]core.SaleRecord, error) {
	rng := fmt.Sprintf("%s!A:F", c.salesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	records, err := parseSales(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Fetched sales from sheet",
		"component", "sheets",
		"sheet", c.salesSheet,
		"record_count", len(records))
	return records, nil
}

// Ping implements sales.Pinger by reading the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

// parseSales converts a Sheets values matrix into records sorted by sale
// date. A header row naming the columns is optional; without one the
// columns must follow sales.Columns.
func parseSales(values [][]interface{}) ([]core.SaleRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	order := identity(len(sales.Columns))
	start := 0
	if header := toStrings(values[0]); isHeader(header) {
		var err error
		if order, err = columnOrder(header); err != nil {
			return nil, err
		}
		start = 1
	}

	var out []core.SaleRecord
	for i := start; i < len(values); i++ {
		raw := toStrings(values[i])
		if blank(raw) {
			continue
		}
		row := make([]string, len(order))
		for j, col := range order {
			row[j] = safeGet(raw, col)
		}
		rec, err := sales.ParseRow(i-start, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].SaleDate.Before(out[b].SaleDate) })
	return out, nil
}

// isHeader reports whether row names its columns rather than holding data.
func isHeader(row []string) bool {
	return indexOf(row, sales.Columns[0]) != -1
}

// columnOrder maps each of sales.Columns to its position in header.
func columnOrder(header []string) ([]int, error) {
	order := make([]int, len(sales.Columns))
	var missing []string
	for i, name := range sales.Columns {
		order[i] = indexOf(header, name)
		if order[i] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected sales header: missing %s; got headers=%v", strings.Join(missing, ","), header)
	}
	return order, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func blank(row []string) bool {
	for _, s := range row {
		if s != "" {
			return false
		}
	}
	return true
}
