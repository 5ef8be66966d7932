package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// WebhookOutcome describes the normalized result of one gateway notification.
// TicketStatus is set only when the ticket itself moves (the success case).
type WebhookOutcome struct {
	OrderID       string
	PaymentStatus domain.PaymentStatus
	TicketStatus  *domain.TicketStatus
	RawPayload    map[string]any
}

// PaymentRepository encapsulates payment persistence. ApplyOutcome and
// ExpireDraftPayment are the only writers after creation; both are
// conditional on the row still being PENDING, which is what makes redelivery
// and races a no-op in effect.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	GetPendingByTicket(ctx context.Context, ticketID string) (*domain.Payment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error)
	// ApplyOutcome updates the payment and its ticket in one transaction.
	// The returned bool is false when the payment had already left PENDING,
	// in which case nothing was written.
	ApplyOutcome(ctx context.Context, outcome WebhookOutcome) (*domain.Payment, bool, error)
	// ExpireDraftPayment marks the ticket's payment side EXPIRED while the
	// ticket is still an unpaid DRAFT. Returns false when the guard no
	// longer holds (e.g. a webhook won the race).
	ExpireDraftPayment(ctx context.Context, ticketID string) (bool, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, ticket_id, gateway_order_id, amount, currency, status, raw_payload, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (ticket_id, gateway_order_id, amount, currency, status, raw_payload)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		payment.TicketID,
		payment.OrderID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.RawPayload,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id=$1`
	return r.fetchSingle(ctx, query, orderID)
}

func (r *paymentRepository) GetPendingByTicket(ctx context.Context, ticketID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ticket_id=$1 AND status=$2`
	var payment domain.Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, ticketID, domain.PaymentStatusPending), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}

func (r *paymentRepository) ApplyOutcome(ctx context.Context, outcome WebhookOutcome) (*domain.Payment, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Conditional write: only a PENDING payment can move. Redelivered or
	// late notifications hit zero rows and leave the stored raw payload of
	// the message that actually caused the transition.
	const updatePayment = `
        UPDATE payments SET status=$1, raw_payload=$2, updated_at=NOW()
        WHERE gateway_order_id=$3 AND status=$4
        RETURNING ` + paymentColumns
	var payment domain.Payment
	err = scanPayment(tx.QueryRow(ctx, updatePayment,
		outcome.PaymentStatus,
		outcome.RawPayload,
		outcome.OrderID,
		domain.PaymentStatusPending,
	), &payment)
	if err == pgx.ErrNoRows {
		// Distinguish "already settled" from "unknown order".
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id=$1`
		existing := domain.Payment{}
		if scanErr := scanPayment(tx.QueryRow(ctx, query, outcome.OrderID), &existing); scanErr != nil {
			return nil, false, scanErr
		}
		return &existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if outcome.TicketStatus != nil {
		const updateTicket = `
            UPDATE tickets SET status=$1, payment_status=$2, updated_at=NOW() WHERE id=$3`
		if _, err := tx.Exec(ctx, updateTicket, *outcome.TicketStatus, outcome.PaymentStatus, payment.TicketID); err != nil {
			return nil, false, err
		}
	} else {
		const updateTicket = `
            UPDATE tickets SET payment_status=$1, updated_at=NOW() WHERE id=$2`
		if _, err := tx.Exec(ctx, updateTicket, outcome.PaymentStatus, payment.TicketID); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return &payment, true, nil
}

func (r *paymentRepository) ExpireDraftPayment(ctx context.Context, ticketID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateTicket = `
        UPDATE tickets SET payment_status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND payment_status=$4`
	cmd, err := tx.Exec(ctx, updateTicket,
		domain.PaymentStatusExpired,
		ticketID,
		domain.TicketStatusDraft,
		domain.PaymentStatusPending,
	)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	// A draft may have no payment row yet; expiring zero rows is fine.
	const updatePayment = `
        UPDATE payments SET status=$1, updated_at=NOW()
        WHERE ticket_id=$2 AND status=$3`
	if _, err := tx.Exec(ctx, updatePayment,
		domain.PaymentStatusExpired,
		ticketID,
		domain.PaymentStatusPending,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *paymentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	var payment domain.Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, arg), &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func scanPayment(row rowScanner, payment *domain.Payment) error {
	return row.Scan(
		&payment.ID,
		&payment.TicketID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.RawPayload,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
}
