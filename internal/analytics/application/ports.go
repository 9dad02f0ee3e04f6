package application

import (
	"context"

	"github.com/avelar/storefront/internal/analytics/domain"
)

// SalesLedger folds receipts into monthly sales totals. RecordSale is
// idempotent per receipt ID.
type SalesLedger interface {
	RecordSale(ctx context.Context, receiptID, month string, totalCents int64) error
	MonthlySales(ctx context.Context) ([]domain.SalesDataItem, error)
}
