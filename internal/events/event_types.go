package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketPaid          EventType = "ticket_paid"
	EventDraftExpired        EventType = "draft_expired"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNo   string            `json:"ticket_no"`
	Kind       domain.TicketKind `json:"kind"`
	CustomerID string            `json:"customer_id"`
	Category   string            `json:"category"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID *string `json:"agent_id,omitempty"`
}

// TicketPaidPayload payload.
type TicketPaidPayload struct {
	OrderID       string              `json:"order_id"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	TicketStatus  domain.TicketStatus  `json:"ticket_status"`
}

// DraftExpiredPayload payload.
type DraftExpiredPayload struct {
	TicketNo string `json:"ticket_no"`
}
