package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelar/storefront/internal/checkout/application"
	"github.com/avelar/storefront/internal/checkout/domain"
)

// Ledger implements the stock-check-then-decrement sequence as one
// transaction over the products table.
type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

func (l *Ledger) ConfirmWithOutbox(ctx context.Context, r domain.Receipt, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock every affected row in a stable order before checking any.
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ProductID)
	}
	sort.Strings(ids)

	current := make(map[string]int, len(ids))
	for _, id := range ids {
		var stock int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, id).Scan(&stock); err != nil {
			return fmt.Errorf("lock stock %s: %w", id, err)
		}
		current[id] = stock
	}

	for _, item := range r.Items {
		stock := current[item.ProductID]
		if stock < item.Quantity {
			return fmt.Errorf("%w: product %s has %d, want %d", application.ErrOverStock, item.ProductID, stock, item.Quantity)
		}
		if stock != item.ObservedStock {
			return fmt.Errorf("%w: product %s observed %d, now %d", application.ErrStaleQuantity, item.ProductID, item.ObservedStock, stock)
		}
	}

	batch := &pgx.Batch{}
	for _, item := range r.Items {
		batch.Queue(`UPDATE products SET stock = stock - $2 WHERE id=$1`, item.ProductID, item.Quantity)
	}
	batch.Queue(`INSERT INTO receipts (id, session_id, total_cents, issued_at) VALUES ($1,$2,$3,$4)`,
		r.ID, r.SessionID, r.TotalCents, r.IssuedAt)
	for _, item := range r.Items {
		batch.Queue(`INSERT INTO receipt_items (receipt_id, product_id, quantity, unit_price_cents) VALUES ($1,$2,$3,$4)`,
			r.ID, item.ProductID, item.Quantity, item.UnitPriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status) VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"receipt", r.ID, eventType, payload, headers, traceparent)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
