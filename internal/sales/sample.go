package sales

import (
	"math/rand"
	"time"

	"salesdash/internal/core"
)

// Regions used by generated sample sales.
var Regions = []string{"North", "South", "East", "West", "Central"}

// SampleProducts returns the demo product catalog.
func SampleProducts() []core.Product {
	return []core.Product{
		{Name: "Laptop", Category: "Electronics", Price: core.Money{Cents: 99999}},
		{Name: "Smartphone", Category: "Electronics", Price: core.Money{Cents: 69999}},
		{Name: "Headphones", Category: "Electronics", Price: core.Money{Cents: 19999}},
		{Name: "T-shirt", Category: "Clothing", Price: core.Money{Cents: 1999}},
		{Name: "Jeans", Category: "Clothing", Price: core.Money{Cents: 4999}},
		{Name: "Sneakers", Category: "Footwear", Price: core.Money{Cents: 8999}},
		{Name: "Coffee Maker", Category: "Appliances", Price: core.Money{Cents: 12999}},
		{Name: "Blender", Category: "Appliances", Price: core.Money{Cents: 7999}},
		{Name: "Watch", Category: "Accessories", Price: core.Money{Cents: 14999}},
		{Name: "Backpack", Category: "Accessories", Price: core.Money{Cents: 5999}},
	}
}

// GenerateSales draws n random sales of products over the 30 days before
// now: quantity 1..5, total = quantity * unit price, a random region.
func GenerateSales(rng *rand.Rand, products []core.Product, n int, now time.Time) []core.SaleRecord {
	if len(products) == 0 || n <= 0 {
		return nil
	}
	out := make([]core.SaleRecord, n)
	for i := range out {
		p := products[rng.Intn(len(products))]
		qty := rng.Intn(5) + 1
		out[i] = core.SaleRecord{
			ProductName: p.Name,
			Category:    p.Category,
			Quantity:    qty,
			TotalPrice:  core.Money{Cents: p.Price.Cents * int64(qty)},
			SaleDate:    now.AddDate(0, 0, -rng.Intn(31)),
			Region:      Regions[rng.Intn(len(Regions))],
		}
	}
	return out
}
