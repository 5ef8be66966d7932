package domain

import "time"

// Attachment stores metadata for a file attached to a ticket. External ids
// are filled in once the file lands in the document store.
type Attachment struct {
	ID         string
	TicketID   string
	UploaderID string
	FileName   string
	MimeType   string
	SizeBytes  int64

	ExternalFileID  *string
	ExternalFileURL *string

	CreatedAt time.Time
}
