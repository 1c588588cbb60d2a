// Package aggregate reduces a flat set of sale records to grouped sums,
// top-N rankings and a scalar summary.
//
// Every function here is pure: no I/O, no shared state, and total over any
// input including the empty set. Amounts are summed in integer cents so the
// sum of a grouping's values always equals the input total.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"salesdash/internal/core"
)

// KeySelector is the closed set of grouping keys a report may use.
type KeySelector int

const (
	ByCategory KeySelector = iota + 1
	ByRegion
	ByProduct
	ByDate
)

// Label extracts the grouping label of r for this key.
func (k KeySelector) Label(r core.SaleRecord) string {
	switch k {
	case ByCategory:
		return r.Category
	case ByRegion:
		return r.Region
	case ByProduct:
		return r.ProductName
	case ByDate:
		return r.Day()
	default:
		return ""
	}
}

// IsValid reports whether k is one of the defined selectors.
func (k KeySelector) IsValid() bool {
	return k >= ByCategory && k <= ByDate
}

func (k KeySelector) String() string {
	switch k {
	case ByCategory:
		return "category"
	case ByRegion:
		return "region"
	case ByProduct:
		return "product"
	case ByDate:
		return "date"
	default:
		return fmt.Sprintf("KeySelector(%d)", int(k))
	}
}

// MarshalText renders the selector by name in JSON.
func (k KeySelector) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one labelled value of an aggregation.
type Entry struct {
	Label string
	Value core.Money
}

// Result is an ordered aggregation. Its order is part of the contract of the
// function that produced it.
type Result []Entry

// Total returns the sum of all values.
func (r Result) Total() core.Money {
	var total core.Money
	for _, e := range r {
		total = total.Add(e.Value)
	}
	return total
}

// Labels returns the entry labels in order.
func (r Result) Labels() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Label
	}
	return out
}

// Validate checks every record and returns a *core.ValidationError for the
// first malformed one, with Index set to its position.
func Validate(records []core.SaleRecord) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			var ve *core.ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
				return ve
			}
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// partition sums TotalPrice per label, keeping labels in first-seen order.
func partition(records []core.SaleRecord, key KeySelector) Result {
	index := make(map[string]int)
	out := make(Result, 0)
	for _, r := range records {
		label := key.Label(r)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, Entry{Label: label})
		}
		out[i].Value = out[i].Value.Add(r.TotalPrice)
	}
	return out
}

// GroupSum partitions records by key and sums TotalPrice per partition.
// Output is ordered by value descending; equal values keep the order in which
// their label first appears in records.
func GroupSum(records []core.SaleRecord, key KeySelector) (Result, error) {
	if !key.IsValid() {
		return nil, fmt.Errorf("group sum: unknown key selector %v", key)
	}
	if err := Validate(records); err != nil {
		return nil, err
	}
	out := partition(records, key)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.Cents > out[j].Value.Cents
	})
	return out, nil
}

// TopN returns the first n entries of an already ordered result. A result
// shorter than n is returned unchanged; n <= 0 yields an empty result.
func TopN(result Result, n int) Result {
	if n <= 0 {
		return Result{}
	}
	if n >= len(result) {
		return result
	}
	return result[:n:n]
}

// TimeSeriesSum groups records by calendar date and orders the output by
// date ascending. It does not rely on the input being sorted.
func TimeSeriesSum(records []core.SaleRecord) (Result, error) {
	if err := Validate(records); err != nil {
		return nil, err
	}
	out := partition(records, ByDate)
	// DayLayout sorts lexicographically in calendar order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out, nil
}
