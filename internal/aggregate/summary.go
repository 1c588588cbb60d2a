package aggregate

import "salesdash/internal/core"

// Summary is the scalar overview of a record set. BestCategory and
// BestProduct are empty when there are no records. AverageOrderValue is
// not rounded; rounding is left to whoever displays it.
type Summary struct {
	TotalSales        core.Money
	AverageOrderValue float64
	TotalOrders       int
	BestCategory      string
	BestProduct       string
}

// Summarize computes the totals, the average order value and the best
// category and product. Ties for "best" go to the label seen first in records.
func Summarize(records []core.SaleRecord) (Summary, error) {
	byCategory, err := GroupSum(records, ByCategory)
	if err != nil {
		return Summary{}, err
	}
	byProduct, err := GroupSum(records, ByProduct)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalSales:  byCategory.Total(),
		TotalOrders: len(records),
	}
	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalSales.Float() / float64(s.TotalOrders)
	}
	if len(byCategory) > 0 {
		s.BestCategory = byCategory[0].Label
	}
	if len(byProduct) > 0 {
		s.BestProduct = byProduct[0].Label
	}
	return s, nil
}
