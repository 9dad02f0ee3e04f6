package domain

import (
	"sort"

	catalogdom "github.com/avelar/storefront/internal/catalog/domain"
)

// SalesDataItem is one point of the sales chart. Month is "YYYY-MM" so
// lexical order is chronological order.
type SalesDataItem struct {
	Month string `json:"month"`
	Sales int64  `json:"sales"`
}

// StockDataItem is one row of the stock dashboard, one per category.
// InStock + LowStock + OutOfStock equals the tracked products in the
// category at aggregation time.
type StockDataItem struct {
	Category   string `json:"category"`
	InStock    int    `json:"inStock"`
	LowStock   int    `json:"lowStock"`
	OutOfStock int    `json:"outOfStock"`
}

// StockProjection buckets every product by its category and stock
// level. A product is out of stock at zero, low stock up to the
// threshold, in stock above it. The threshold is configuration, not a
// per-product attribute.
func StockProjection(products []catalogdom.Product, lowStockThreshold int) []StockDataItem {
	byCategory := make(map[string]*StockDataItem)
	for _, p := range products {
		item, ok := byCategory[p.Category]
		if !ok {
			item = &StockDataItem{Category: p.Category}
			byCategory[p.Category] = item
		}
		switch {
		case p.Stock == 0:
			item.OutOfStock++
		case p.Stock <= lowStockThreshold:
			item.LowStock++
		default:
			item.InStock++
		}
	}

	out := make([]StockDataItem, 0, len(byCategory))
	for _, item := range byCategory {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
