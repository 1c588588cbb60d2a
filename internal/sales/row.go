// Package sales defines the record store ports and the helpers shared by
// their adapters: row parsing and sample data generation.
package sales

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/core"
)

// Columns is the column order of tabular sale sources (CSV seeds, sheets).
var Columns = []string{"Date", "Product", "Category", "Quantity", "Total", "Region"}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts used by the stores.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseRow converts one tabular row into a SaleRecord. Malformed fields are
// reported as *core.ValidationError with the given index.
func ParseRow(index int, row []string) (core.SaleRecord, error) {
	invalid := func(field, value, reason string) error {
		return &core.ValidationError{Index: index, Field: field, Value: value, Reason: reason}
	}
	if len(row) < len(Columns) {
		return core.SaleRecord{}, invalid("row", strings.Join(row, ","), fmt.Sprintf("expected %d columns, got %d", len(Columns), len(row)))
	}

	at, err := ParseTime(row[0])
	if err != nil {
		return core.SaleRecord{}, invalid("sale_date", row[0], "not a timestamp")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return core.SaleRecord{}, invalid("quantity", row[3], "not an integer")
	}
	price, err := core.ParseMoney(normalizeAmount(row[4]))
	if err != nil {
		return core.SaleRecord{}, invalid("total_price", row[4], "not a non-negative decimal")
	}

	rec := core.SaleRecord{
		SaleDate:    at,
		ProductName: strings.TrimSpace(row[1]),
		Category:    strings.TrimSpace(row[2]),
		Quantity:    qty,
		TotalPrice:  price,
		Region:      strings.TrimSpace(row[5]),
	}
	if err := rec.Validate(); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			ve.Index = index
		}
		return core.SaleRecord{}, err
	}
	return rec, nil
}

// normalizeAmount drops a leading "$" and, when a decimal point is present,
// comma thousands separators ("1,234.56"). A lone comma is left for
// core.ParseMoney to read as the decimal separator ("12,34").
func normalizeAmount(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
