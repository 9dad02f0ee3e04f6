package domain

import "time"

type IntentMode string

const (
	ModeBuyNow IntentMode = "buy_now"
	ModeCart   IntentMode = "cart"
)

// BuyNowItem is the single-item checkout override. It lives only for
// the duration of one checkout session and is discarded on close.
type BuyNowItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// IntentItem is one resolved purchase line. ObservedStock is the stock
// value fetched at resolution time; OverStock marks a requested
// quantity above it. Quantities are flagged, never clamped.
type IntentItem struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	ObservedStock  int    `json:"observed_stock"`
	OverStock      bool   `json:"over_stock"`
}

// Intent is the resolved purchase for one checkout session. It is
// derived on demand and never stored; a buy-now override always
// supersedes the cart, the two modes never mix.
type Intent struct {
	Mode  IntentMode   `json:"mode"`
	Items []IntentItem `json:"items"`
}

func (i Intent) TotalCents() int64 {
	var total int64
	for _, item := range i.Items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	return total
}

// Flagged reports whether any item exceeds its observed stock.
func (i Intent) Flagged() bool {
	for _, item := range i.Items {
		if item.OverStock {
			return true
		}
	}
	return false
}

type Receipt struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"session_id"`
	Items      []IntentItem `json:"items"`
	TotalCents int64        `json:"total_cents"`
	IssuedAt   time.Time    `json:"issued_at"`
}
