package domain

import "time"

type ReceiptIssued struct {
	ReceiptID  string    `json:"receipt_id"`
	SessionID  string    `json:"session_id"`
	TotalCents int64     `json:"total_cents"`
	IssuedAt   time.Time `json:"issued_at"`
}
