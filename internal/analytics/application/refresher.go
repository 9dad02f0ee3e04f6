package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avelar/storefront/internal/analytics/domain"
	catalogapp "github.com/avelar/storefront/internal/catalog/application"
)

// Refresher recomputes the stock projection on an interval and serves
// the latest snapshot to the dashboard. It only reads catalog state;
// confirm-time stock mutations are serialized by the ledger's row
// locks, so a refresh never observes a half-applied decrement.
type Refresher struct {
	log       *slog.Logger
	cat       catalogapp.Reader
	threshold int
	interval  time.Duration

	mu       sync.RWMutex
	snapshot []domain.StockDataItem
}

func NewRefresher(log *slog.Logger, cat catalogapp.Reader, threshold int, interval time.Duration) *Refresher {
	return &Refresher{log: log, cat: cat, threshold: threshold, interval: interval}
}

// Snapshot returns the latest stock projection; empty before the first
// successful refresh.
func (r *Refresher) Snapshot() []domain.StockDataItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Refresher) Refresh(ctx context.Context) error {
	products, err := r.cat.List(ctx)
	if err != nil {
		return err
	}
	projection := domain.StockProjection(products, r.threshold)
	r.mu.Lock()
	r.snapshot = projection
	r.mu.Unlock()
	return nil
}

func (r *Refresher) Run(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		r.log.Error("initial stock refresh failed", "err", err)
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Error("stock refresh failed", "err", err)
			}
		}
	}
}
