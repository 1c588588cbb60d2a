package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the calendar-date layout used for date buckets.
const DayLayout = "2006-01-02"

type (
	Money struct {
		Cents int64
	}

	// SaleRecord is one transactional line item, already joined with its
	// product name and category.
	SaleRecord struct {
		ProductName string
		Category    string
		Quantity    int
		TotalPrice  Money
		SaleDate    time.Time
		Region      string
	}
)

var (
	ErrInvalidRecord   = errors.New("invalid sale record")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// ValidationError reports a malformed field on a specific record.
// Index is the record position in its input sequence, or -1 when the
// record was checked on its own.
type ValidationError struct {
	Index  int
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("record %d: invalid %s %q: %s", e.Index, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// Day returns the calendar date of the sale in the sale's own location.
func (r SaleRecord) Day() string {
	return r.SaleDate.Format(DayLayout)
}

// Validate checks the record in isolation. The returned error, if any, is a
// *ValidationError with Index set to -1.
func (r SaleRecord) Validate() error {
	invalid := func(field, value, reason string) error {
		return &ValidationError{Index: -1, Field: field, Value: value, Reason: reason}
	}
	if strings.TrimSpace(r.ProductName) == "" {
		return invalid("product_name", r.ProductName, "must not be empty")
	}
	if strings.TrimSpace(r.Category) == "" {
		return invalid("category", r.Category, "must not be empty")
	}
	if strings.TrimSpace(r.Region) == "" {
		return invalid("region", r.Region, "must not be empty")
	}
	if r.Quantity < 0 {
		return invalid("quantity", fmt.Sprint(r.Quantity), "must not be negative")
	}
	if r.TotalPrice.Cents < 0 {
		return invalid("total_price", r.TotalPrice.String(), "must not be negative")
	}
	if r.SaleDate.IsZero() {
		return invalid("sale_date", "", "must be set")
	}
	return nil
}

// Product is a catalog entry sales refer to.
type Product struct {
	Name     string
	Category string
	Price    Money
}
