package memory

import (
	"context"
	"fmt"
	"sync"

	catalogmem "github.com/avelar/storefront/internal/catalog/infrastructure/memory"
	"github.com/avelar/storefront/internal/checkout/application"
	"github.com/avelar/storefront/internal/checkout/domain"
)

// Ledger is an in-process stock ledger over the memory catalog, for
// tests and local development. It applies the same check-then-decrement
// rules as the Postgres ledger: all items re-checked under one lock, no
// decrement unless every item passes.
type Ledger struct {
	mu  sync.Mutex
	cat *catalogmem.Store

	Receipts []domain.Receipt
	Events   [][]byte
}

func NewLedger(cat *catalogmem.Store) *Ledger {
	return &Ledger{cat: cat}
}

func (l *Ledger) ConfirmWithOutbox(ctx context.Context, r domain.Receipt, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, item := range r.Items {
		stock, err := l.cat.GetStock(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if stock < item.Quantity {
			return fmt.Errorf("%w: product %s has %d, want %d", application.ErrOverStock, item.ProductID, stock, item.Quantity)
		}
		if stock != item.ObservedStock {
			return fmt.Errorf("%w: product %s observed %d, now %d", application.ErrStaleQuantity, item.ProductID, item.ObservedStock, stock)
		}
	}

	for _, item := range r.Items {
		stock, _ := l.cat.GetStock(ctx, item.ProductID)
		l.cat.SetStock(item.ProductID, stock-item.Quantity)
	}

	l.Receipts = append(l.Receipts, r)
	l.Events = append(l.Events, payload)
	return nil
}
