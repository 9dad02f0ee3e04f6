package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelar/storefront/internal/analytics/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// RecordSale is idempotent per receipt: a redelivered event hits the
// primary key and changes nothing.
func (r *Repository) RecordSale(ctx context.Context, receiptID, month string, totalCents int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sales_ledger (receipt_id, month, total_cents) VALUES ($1,$2,$3) ON CONFLICT (receipt_id) DO NOTHING`,
		receiptID, month, totalCents)
	return err
}

func (r *Repository) MonthlySales(ctx context.Context) ([]domain.SalesDataItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT month, COALESCE(SUM(total_cents),0) FROM sales_ledger GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SalesDataItem
	for rows.Next() {
		var item domain.SalesDataItem
		if err := rows.Scan(&item.Month, &item.Sales); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
