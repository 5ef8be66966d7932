package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// TicketFilter captures list query parameters. Visibility fields are filled
// from rbac.BuildFilter, never hand-rolled by callers.
type TicketFilter struct {
	CustomerID *string
	// AgentOrUnassigned restricts to tickets assigned to this agent or
	// currently unassigned.
	AgentOrUnassigned *string
	Kind              *domain.TicketKind
	Statuses          []domain.TicketStatus
	PaymentStatuses   []domain.PaymentStatus
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	Limit             int
	Offset            int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByTicketNo(ctx context.Context, ticketNo string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ListExpiredDrafts returns DRAFT tickets with PENDING payment created
	// before the cutoff.
	ListExpiredDrafts(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error)
	// UpdateSyncRefs persists external folder/sheet identifiers.
	UpdateSyncRefs(ctx context.Context, ticketID string, folderID, folderURL string, rowIndex int64) error
	// CountByPrefix counts ticket numbers with the given prefix; used to
	// seed the yearly sequencer.
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_no, kind, customer_id, assigned_agent_id, status, payment_status,
               contact_number, region, category, incident_at, device, app_version, description,
               product_code, internal_notes, folder_id, folder_url, sheet_row_index,
               created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_no, kind, customer_id, assigned_agent_id, status, payment_status,
                             contact_number, region, category, incident_at, device, app_version,
                             description, product_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNo,
		ticket.Kind,
		ticket.CustomerID,
		ticket.AssignedAgent,
		ticket.Status,
		ticket.PaymentStatus,
		ticket.ContactNumber,
		ticket.Region,
		ticket.Category,
		ticket.IncidentAt,
		ticket.Device,
		ticket.AppVersion,
		ticket.Description,
		ticket.ProductCode,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_agent_id=$1, status=$2, payment_status=$3, internal_notes=$4,
            closed_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssignedAgent,
		ticket.Status,
		ticket.PaymentStatus,
		ticket.InternalNotes,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByTicketNo(ctx context.Context, ticketNo string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_no=$1`
	return r.fetchSingle(ctx, query, ticketNo)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AgentOrUnassigned != nil {
		args = append(args, *filter.AgentOrUnassigned)
		clauses = append(clauses, fmt.Sprintf("(assigned_agent_id=$%d OR assigned_agent_id IS NULL)", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		clauses = append(clauses, fmt.Sprintf("kind=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.PaymentStatuses) > 0 {
		placeholders := make([]string, len(filter.PaymentStatuses))
		for i, status := range filter.PaymentStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("payment_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListExpiredDrafts(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT `+ticketColumns+`
        FROM tickets
        WHERE status=$1 AND payment_status=$2 AND created_at < $3
        ORDER BY created_at ASC LIMIT %d`, limit)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusDraft, domain.PaymentStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateSyncRefs(ctx context.Context, ticketID string, folderID, folderURL string, rowIndex int64) error {
	const query = `
        UPDATE tickets SET folder_id=$1, folder_url=$2, sheet_row_index=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, folderID, folderURL, rowIndex, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE ticket_no LIKE $1 || '%'`
	var count int64
	if err := r.pool.QueryRow(ctx, query, prefix).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNo,
		&ticket.Kind,
		&ticket.CustomerID,
		&ticket.AssignedAgent,
		&ticket.Status,
		&ticket.PaymentStatus,
		&ticket.ContactNumber,
		&ticket.Region,
		&ticket.Category,
		&ticket.IncidentAt,
		&ticket.Device,
		&ticket.AppVersion,
		&ticket.Description,
		&ticket.ProductCode,
		&ticket.InternalNotes,
		&ticket.FolderID,
		&ticket.FolderURL,
		&ticket.SheetRowIndex,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
