package application

import (
	"context"
	"time"
)

// Service records consumed receipt events into the sales ledger.
type Service struct {
	ledger SalesLedger
}

func NewService(ledger SalesLedger) *Service {
	return &Service{ledger: ledger}
}

func (s *Service) Record(ctx context.Context, receiptID string, totalCents int64, issuedAt time.Time) error {
	return s.ledger.RecordSale(ctx, receiptID, issuedAt.UTC().Format("2006-01"), totalCents)
}
