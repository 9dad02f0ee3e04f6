package domain

// Product is owned by the catalog; the checkout core only references it
// by ID and re-reads price and stock on demand.
type Product struct {
	ID             string
	Name           string
	Category       string
	UnitPriceCents int64
	Stock          int
}
