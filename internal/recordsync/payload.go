package recordsync

import (
	"fmt"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Row is the fixed named-column payload sent to the spreadsheet collaborator.
type Row map[string]string

// RequiredColumns is the complete column contract. A payload missing any of
// these keys is rejected before the network call.
var RequiredColumns = []string{
	"ticket_no",
	"kind",
	"created_at",
	"updated_at",
	"customer_id",
	"customer_name",
	"contact_number",
	"region",
	"category",
	"incident_at",
	"device",
	"app_version",
	"description",
	"status",
	"payment_status",
	"assigned_agent",
	"folder_url",
	"notes",
}

// BuildRow assembles the full column set from a ticket and its customer.
// folderURL is passed explicitly because on first sync it is known before it
// has been persisted onto the ticket.
func BuildRow(ticket *domain.Ticket, customer *domain.User, folderURL string) Row {
	row := Row{
		"ticket_no":      ticket.TicketNo,
		"kind":           string(ticket.Kind),
		"created_at":     ticket.CreatedAt.Format(time.RFC3339),
		"updated_at":     ticket.UpdatedAt.Format(time.RFC3339),
		"customer_id":    ticket.CustomerID,
		"customer_name":  customer.Name,
		"contact_number": ticket.ContactNumber,
		"region":         ticket.Region,
		"category":       ticket.Category,
		"incident_at":    "",
		"device":         ticket.Device,
		"app_version":    ticket.AppVersion,
		"description":    ticket.Description,
		"status":         string(ticket.Status),
		"payment_status": string(ticket.PaymentStatus),
		"assigned_agent": "",
		"folder_url":     folderURL,
		"notes":          "",
	}
	if ticket.IncidentAt != nil {
		row["incident_at"] = ticket.IncidentAt.Format(time.RFC3339)
	}
	if ticket.AssignedAgent != nil {
		row["assigned_agent"] = *ticket.AssignedAgent
	}
	if ticket.InternalNotes != nil {
		row["notes"] = *ticket.InternalNotes
	}
	return row
}

// Validate checks the column contract. It runs before any network call.
func (r Row) Validate() error {
	for _, column := range RequiredColumns {
		if _, ok := r[column]; !ok {
			return fmt.Errorf("sync payload missing column %q", column)
		}
	}
	if r["ticket_no"] == "" {
		return fmt.Errorf("sync payload has empty ticket_no")
	}
	return nil
}

// FolderPath computes the deterministic folder location for a ticket:
// <root>/<YYYY-MM of creation>/<ticketNo>.
func FolderPath(root string, ticket *domain.Ticket) string {
	return fmt.Sprintf("%s/%s/%s", root, ticket.CreatedAt.Format("2006-01"), ticket.TicketNo)
}

// MonthlyFolderPath is the parent folder for a ticket's creation month.
func MonthlyFolderPath(root string, ticket *domain.Ticket) string {
	return fmt.Sprintf("%s/%s", root, ticket.CreatedAt.Format("2006-01"))
}
