package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateTicketRequest is the draft creation payload.
type CreateTicketRequest struct {
	Kind          string     `json:"kind"`
	ContactNumber string     `json:"contact_number"`
	Region        string     `json:"region"`
	Category      string     `json:"category"`
	IncidentAt    *time.Time `json:"incident_at"`
	Device        string     `json:"device"`
	AppVersion    string     `json:"app_version"`
	Description   string     `json:"description"`
	ProductCode   string     `json:"product_code"`
}

// UpdateStatusRequest moves a ticket along its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignAgentRequest sets the assigned agent.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// AddNotesRequest appends internal notes.
type AddNotesRequest struct {
	Notes string `json:"notes"`
}

// AddAttachmentRequest records attachment metadata.
type AddAttachmentRequest struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// TicketSummary is the list-view ticket shape.
type TicketSummary struct {
	ID            string     `json:"id"`
	TicketNo      string     `json:"ticket_no"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Category      string     `json:"category"`
	Region        string     `json:"region"`
	AssignedAgent *string    `json:"assigned_agent,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// TicketDetail is the single-ticket shape.
type TicketDetail struct {
	TicketSummary
	ContactNumber string     `json:"contact_number"`
	IncidentAt    *time.Time `json:"incident_at,omitempty"`
	Device        string     `json:"device,omitempty"`
	AppVersion    string     `json:"app_version,omitempty"`
	Description   string     `json:"description"`
	ProductCode   string     `json:"product_code,omitempty"`
	InternalNotes *string    `json:"internal_notes,omitempty"`
	FolderURL     *string    `json:"folder_url,omitempty"`
}

// AttachmentResponse describes one attachment.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	URL       *string   `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntryResponse describes one audit record.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTicketSummary maps the domain ticket to its list shape.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            ticket.ID,
		TicketNo:      ticket.TicketNo,
		Kind:          string(ticket.Kind),
		Status:        string(ticket.Status),
		PaymentStatus: string(ticket.PaymentStatus),
		Category:      ticket.Category,
		Region:        ticket.Region,
		AssignedAgent: ticket.AssignedAgent,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

// NewTicketDetail maps the domain ticket to its detail shape. Internal notes
// are included only for staff callers.
func NewTicketDetail(ticket *domain.Ticket, includeNotes bool) TicketDetail {
	detail := TicketDetail{
		TicketSummary: NewTicketSummary(ticket),
		ContactNumber: ticket.ContactNumber,
		IncidentAt:    ticket.IncidentAt,
		Device:        ticket.Device,
		AppVersion:    ticket.AppVersion,
		Description:   ticket.Description,
		ProductCode:   ticket.ProductCode,
		FolderURL:     ticket.FolderURL,
	}
	if includeNotes {
		detail.InternalNotes = ticket.InternalNotes
	}
	return detail
}

// NewAttachmentResponse maps the domain attachment.
func NewAttachmentResponse(att *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        att.ID,
		FileName:  att.FileName,
		MimeType:  att.MimeType,
		SizeBytes: att.SizeBytes,
		URL:       att.ExternalFileURL,
		CreatedAt: att.CreatedAt,
	}
}

// NewAuditEntryResponse maps one audit record.
func NewAuditEntryResponse(entry *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Action:    string(entry.Action),
		Before:    entry.Before,
		After:     entry.After,
		CreatedAt: entry.CreatedAt,
	}
}
