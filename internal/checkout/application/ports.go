package application

import (
	"context"
	"errors"

	"github.com/avelar/storefront/internal/checkout/domain"
)

var (
	ErrHandleNotFound     = errors.New("checkout handle not found")
	ErrEmptyIntent        = errors.New("checkout intent has no items")
	ErrOverStock          = errors.New("requested quantity exceeds available stock")
	ErrStaleQuantity      = errors.New("stock changed between resolve and confirm")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Ledger is the stock-mutation backend. ConfirmWithOutbox must, in one
// atomic unit: lock the affected stock counters, re-check every item
// against the receipt's observed values, decrement, and persist the
// receipt together with its outbox event. Any failure leaves every
// counter untouched and releases the locks.
type Ledger interface {
	ConfirmWithOutbox(ctx context.Context, r domain.Receipt, eventType string, payload []byte, headers map[string]string, traceparent string) error
}
