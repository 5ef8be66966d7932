package domain

import "time"

// Payment is one gateway order tied to a ticket. A ticket may accumulate
// several payments over time (a failed attempt followed by a retry) but at
// most one of them is PENDING.
type Payment struct {
	ID       string
	TicketID string
	OrderID  string
	Amount   int64
	Currency string
	Status   PaymentStatus

	// RawPayload preserves the last gateway message verbatim. It is stored
	// for audit and debugging only; no production logic branches on its
	// shape beyond the order id and status extracted during verification.
	RawPayload map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}
