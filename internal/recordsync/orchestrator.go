package recordsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

// Orchestrator drives folder and spreadsheet bookkeeping for tickets.
// Operations are idempotent; callers retry them on failure.
type Orchestrator struct {
	docs    DocumentStore
	sheet   Spreadsheet
	tickets repository.TicketRepository
	root    string
	logger  *zap.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(docs DocumentStore, sheet Spreadsheet, tickets repository.TicketRepository, root string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{docs: docs, sheet: sheet, tickets: tickets, root: root, logger: logger}
}

// InitialSync creates the ticket folder and spreadsheet row, then persists
// the returned identifiers onto the ticket. Re-running after a prior success
// is a no-op: a stored row index means the ticket is already synced.
func (o *Orchestrator) InitialSync(ctx context.Context, ticket *domain.Ticket, customer *domain.User) error {
	if ticket.SheetRowIndex != nil {
		return nil
	}

	if _, err := o.docs.EnsureFolder(ctx, MonthlyFolderPath(o.root, ticket)); err != nil {
		return err
	}
	folder, err := o.docs.EnsureFolder(ctx, FolderPath(o.root, ticket))
	if err != nil {
		return err
	}

	row := BuildRow(ticket, customer, folder.URL)
	if err := row.Validate(); err != nil {
		return err
	}
	rowIndex, err := o.sheet.AppendRow(ctx, row)
	if err != nil {
		return err
	}

	if err := o.tickets.UpdateSyncRefs(ctx, ticket.ID, folder.ID, folder.URL, rowIndex); err != nil {
		return err
	}
	ticket.FolderID = &folder.ID
	ticket.FolderURL = &folder.URL
	ticket.SheetRowIndex = &rowIndex

	o.logger.Info("ticket synced",
		zap.String("ticket_no", ticket.TicketNo),
		zap.Int64("row_index", rowIndex))
	return nil
}

// SyncUpdate pushes the ticket's current state to its existing spreadsheet
// row. A ticket without a stored row index has never been synced; updating it
// would silently create a second row, so that is a logic error instead.
func (o *Orchestrator) SyncUpdate(ctx context.Context, ticket *domain.Ticket, customer *domain.User) error {
	if ticket.SheetRowIndex == nil {
		return errorutil.NewNotYetSynced(ticket.ID)
	}
	folderURL := ""
	if ticket.FolderURL != nil {
		folderURL = *ticket.FolderURL
	}
	row := BuildRow(ticket, customer, folderURL)
	if err := row.Validate(); err != nil {
		return err
	}
	return o.sheet.UpdateRow(ctx, *ticket.SheetRowIndex, row)
}

// UploadAttachment stores an attachment file in the ticket's folder.
func (o *Orchestrator) UploadAttachment(ctx context.Context, ticket *domain.Ticket, fileName, mimeType string, content []byte) (*FileRef, error) {
	if ticket.FolderID == nil {
		return nil, errorutil.NewNotYetSynced(ticket.ID)
	}
	return o.docs.UploadFile(ctx, *ticket.FolderID, fileName, mimeType, content)
}
