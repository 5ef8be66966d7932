package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/gateway"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

// PaymentService creates gateway orders for draft tickets and reconciles
// gateway notifications against stored payments.
type PaymentService struct {
	payments   repository.PaymentRepository
	tickets    repository.TicketRepository
	audit      repository.AuditRepository
	gw         gateway.PaymentGateway
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	TicketRepo  repository.TicketRepository
	AuditRepo   repository.AuditRepository
	Gateway     gateway.PaymentGateway
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:   deps.PaymentRepo,
		tickets:    deps.TicketRepo,
		audit:      deps.AuditRepo,
		gw:         deps.Gateway,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// CreateOrder registers a payment order for a draft ticket. Calling it again
// while an order is pending returns that order instead of opening a second
// one; a single ticket never has two live payments.
func (s *PaymentService) CreateOrder(ctx context.Context, actor rbac.Actor, ticketID string, amount int64, currency string) (*domain.Payment, string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", errorutil.NewTicketNotFound(ticketID)
		}
		return nil, "", errorutil.MapError(err)
	}
	if !rbac.CanAccess(actor, ticket) {
		if actor.Role == domain.RoleCustomer {
			return nil, "", errorutil.NewTicketNotFound(ticketID)
		}
		return nil, "", errorutil.NewForbidden("access denied")
	}
	if ticket.Status != domain.TicketStatusDraft {
		return nil, "", errorutil.NewConflict("ticket is not awaiting payment",
			map[string]any{"ticket_id": ticketID, "status": ticket.Status})
	}
	if amount <= 0 {
		return nil, "", errorutil.NewValidationError("amount must be positive", map[string]any{"amount": amount})
	}
	if currency == "" {
		currency = "IDR"
	}

	if existing, err := s.payments.GetPendingByTicket(ctx, ticket.ID); err == nil {
		return existing, "", nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", errorutil.MapError(err)
	}

	orderID := fmt.Sprintf("%s-%s", ticket.TicketNo, uuid.NewString()[:8])
	order, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		OrderID:     orderID,
		Amount:      amount,
		Currency:    currency,
		ContactInfo: ticket.ContactNumber,
	})
	if err != nil {
		// No local payment row without a gateway order: the request fails.
		return nil, "", errorutil.NewConflict("payment gateway rejected the order",
			map[string]any{"ticket_id": ticketID})
	}

	payment := &domain.Payment{
		TicketID: ticket.ID,
		OrderID:  order.OrderID,
		Amount:   amount,
		Currency: currency,
		Status:   domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, "", errorutil.MapError(err)
	}
	s.logger.Info("payment order created",
		zap.String("ticket_no", ticket.TicketNo),
		zap.String("order_id", payment.OrderID))
	return payment, order.PaymentURL, nil
}

// WebhookResult reports what a notification did.
type WebhookResult struct {
	OrderID       string
	PaymentStatus domain.PaymentStatus
	Applied       bool
}

// HandleWebhook verifies, normalizes, and applies one gateway notification.
// Redelivery of an already-applied notification is acknowledged without any
// further writes.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	note, err := s.gw.ParseNotification(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrBadSignature) {
			s.metrics.RecordWebhook("rejected", false)
			s.logger.Warn("webhook signature rejected")
			return nil, errorutil.NewUnauthorized("invalid notification signature")
		}
		s.metrics.RecordWebhook("malformed", false)
		return nil, errorutil.NewValidationError("malformed notification", nil)
	}

	outcome := repository.WebhookOutcome{
		OrderID:    note.OrderID,
		RawPayload: note.Raw,
	}
	switch note.Status {
	case gateway.StatusSuccess:
		outcome.PaymentStatus = domain.PaymentStatusPaid
		received := domain.TicketStatusReceived
		outcome.TicketStatus = &received
	case gateway.StatusExpired:
		outcome.PaymentStatus = domain.PaymentStatusExpired
	default:
		outcome.PaymentStatus = domain.PaymentStatusFailed
	}

	payment, applied, err := s.payments.ApplyOutcome(ctx, outcome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordWebhook("unknown_order", false)
			s.logger.Warn("webhook for unknown order", zap.String("order_id", note.OrderID))
			return nil, errorutil.NewPaymentNotFound(note.OrderID)
		}
		s.metrics.RecordWebhook("error", false)
		return nil, errorutil.MapError(err)
	}
	if !applied {
		// Redelivery: settled payments don't move and don't re-audit.
		s.metrics.RecordWebhook(string(note.Status), false)
		s.logger.Info("webhook redelivery ignored",
			zap.String("order_id", note.OrderID),
			zap.String("stored_status", string(payment.Status)))
		return &WebhookResult{OrderID: note.OrderID, PaymentStatus: payment.Status, Applied: false}, nil
	}
	s.metrics.RecordWebhook(string(note.Status), true)

	ticket, err := s.tickets.GetByID(ctx, payment.TicketID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	entry := &domain.AuditEntry{
		ActorID:  "payment-gateway",
		TicketID: ticket.ID,
		Action:   domain.AuditPaymentApplied,
		Before:   map[string]any{"payment_status": string(domain.PaymentStatusPending)},
		After: map[string]any{
			"order_id":       payment.OrderID,
			"payment_status": string(payment.Status),
			"status":         string(ticket.Status),
		},
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return nil, errorutil.MapError(err)
	}

	if payment.Status == domain.PaymentStatusPaid && s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketPaid,
			TicketID:  ticket.ID,
			ActorID:   "payment-gateway",
			Timestamp: time.Now(),
			Payload: events.TicketPaidPayload{
				OrderID:       payment.OrderID,
				PaymentStatus: payment.Status,
				TicketStatus:  ticket.Status,
			},
		})
	}
	return &WebhookResult{OrderID: note.OrderID, PaymentStatus: payment.Status, Applied: true}, nil
}

// ListByTicket returns a ticket's payments, visibility checked.
func (s *PaymentService) ListByTicket(ctx context.Context, actor rbac.Actor, ticketID string) ([]domain.Payment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewTicketNotFound(ticketID)
		}
		return nil, errorutil.MapError(err)
	}
	if !rbac.CanAccess(actor, ticket) {
		if actor.Role == domain.RoleCustomer {
			return nil, errorutil.NewTicketNotFound(ticketID)
		}
		return nil, errorutil.NewForbidden("access denied")
	}
	payments, err := s.payments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return payments, nil
}
