package domain

import "time"

// AuditAction tags what a history entry records.
type AuditAction string

const (
	AuditTicketCreated  AuditAction = "TICKET_CREATED"
	AuditStatusChanged  AuditAction = "STATUS_CHANGED"
	AuditAgentAssigned  AuditAction = "AGENT_ASSIGNED"
	AuditNotesAdded     AuditAction = "NOTES_ADDED"
	AuditPaymentApplied AuditAction = "PAYMENT_APPLIED"
	AuditDraftExpired   AuditAction = "DRAFT_EXPIRED"
)

// AuditEntry is an immutable audit trail record. Entries are only ever
// inserted; there is no update or delete path.
type AuditEntry struct {
	ID       string
	ActorID  string
	TicketID string
	Action   AuditAction
	Before   map[string]any
	After    map[string]any

	CreatedAt time.Time
}
