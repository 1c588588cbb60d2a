package report

import "salesdash/internal/aggregate"

// SummaryResponse is the serializable form of aggregate.Summary. Best labels
// are nil when there is no data. AvgOrder duplicates AverageOrderValue under
// the key older dashboard scripts read.
type SummaryResponse struct {
	TotalSales        float64 `json:"total_sales"`
	AverageOrderValue float64 `json:"average_order_value"`
	AvgOrder          float64 `json:"avg_order"`
	TotalOrders       int     `json:"total_orders"`
	BestCategory      *string `json:"best_category"`
	BestProduct       *string `json:"best_product"`
}

// FormatSummary maps a summary to its response shape. Values are not rounded.
func FormatSummary(s aggregate.Summary) SummaryResponse {
	avg := s.AverageOrderValue
	return SummaryResponse{
		TotalSales:        s.TotalSales.Float(),
		AverageOrderValue: avg,
		AvgOrder:          avg,
		TotalOrders:       s.TotalOrders,
		BestCategory:      optional(s.BestCategory),
		BestProduct:       optional(s.BestProduct),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
