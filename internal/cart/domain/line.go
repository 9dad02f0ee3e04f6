package domain

// Line is one product selected for a standard checkout. Quantity is
// always positive; a line that would drop to zero is removed instead.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
