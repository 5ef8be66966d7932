package domain

import (
	"fmt"
	"regexp"
	"time"
)

// TicketStatus enumerates lifecycle states for complaint tickets.
type TicketStatus string

const (
	TicketStatusDraft      TicketStatus = "DRAFT"
	TicketStatusReceived   TicketStatus = "RECEIVED"
	TicketStatusInReview   TicketStatus = "IN_REVIEW"
	TicketStatusNeedsInfo  TicketStatus = "NEEDS_INFO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusRejected   TicketStatus = "REJECTED"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusRejected
}

// PaymentStatus tracks the payment side of a ticket.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

// TicketKind distinguishes complaint tickets from digital account purchase
// orders, which ride the same lifecycle and payment machinery.
type TicketKind string

const (
	TicketKindComplaint       TicketKind = "COMPLAINT"
	TicketKindAccountPurchase TicketKind = "ACCOUNT_PURCHASE"
)

// Ticket is the aggregate for customer complaints and account purchases.
type Ticket struct {
	ID            string
	TicketNo      string
	Kind          TicketKind
	CustomerID    string
	AssignedAgent *string
	Status        TicketStatus
	PaymentStatus PaymentStatus

	ContactNumber string
	Region        string
	Category      string
	IncidentAt    *time.Time
	Device        string
	AppVersion    string
	Description   string
	ProductCode   string

	InternalNotes *string

	FolderID      *string
	FolderURL     *string
	SheetRowIndex *int64

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

var ticketNoPattern = regexp.MustCompile(`^WAC-\d{4}-\d{6}$`)

// FormatTicketNo renders a ticket number for a year and yearly sequence.
func FormatTicketNo(year int, seq int64) string {
	return fmt.Sprintf("WAC-%04d-%06d", year, seq)
}

// ValidTicketNo reports whether a ticket number matches the canonical shape.
func ValidTicketNo(no string) bool {
	return ticketNoPattern.MatchString(no)
}

// TicketNoPrefix returns the per-year prefix used to scope sequence counts.
func TicketNoPrefix(year int) string {
	return fmt.Sprintf("WAC-%04d-", year)
}
