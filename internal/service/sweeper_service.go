package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

const sweepBatchSize = 100

// SweeperService expires stale unpaid drafts. It never touches tickets that
// left DRAFT or whose payment settled; the expiry write itself re-checks that
// guard so a webhook racing the sweep always wins.
type SweeperService struct {
	tickets    repository.TicketRepository
	payments   repository.PaymentRepository
	audit      repository.AuditRepository
	dispatcher events.Dispatcher
	maxAge     time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// SweeperDependencies bundles collaborators for the sweeper service.
type SweeperDependencies struct {
	TicketRepo  repository.TicketRepository
	PaymentRepo repository.PaymentRepository
	AuditRepo   repository.AuditRepository
	Dispatcher  events.Dispatcher
	MaxAge      time.Duration
	Logger      *zap.Logger
}

// NewSweeperService constructs the service.
func NewSweeperService(deps SweeperDependencies) *SweeperService {
	maxAge := deps.MaxAge
	if maxAge <= 0 {
		maxAge = 48 * time.Hour
	}
	return &SweeperService{
		tickets:    deps.TicketRepo,
		payments:   deps.PaymentRepo,
		audit:      deps.AuditRepo,
		dispatcher: deps.Dispatcher,
		maxAge:     maxAge,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// FindExpiredDrafts lists unpaid drafts older than the configured age.
func (s *SweeperService) FindExpiredDrafts(ctx context.Context) ([]domain.Ticket, error) {
	cutoff := s.now().Add(-s.maxAge)
	tickets, err := s.tickets.ListExpiredDrafts(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return tickets, nil
}

// CancelDraftTicket expires one draft's payment window. Returns false without
// error when the guard no longer held at write time.
func (s *SweeperService) CancelDraftTicket(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	expired, err := s.payments.ExpireDraftPayment(ctx, ticket.ID)
	if err != nil {
		return false, errorutil.MapError(err)
	}
	if !expired {
		s.logger.Info("draft no longer expirable, skipping",
			zap.String("ticket_no", ticket.TicketNo))
		return false, nil
	}

	entry := &domain.AuditEntry{
		ActorID:  "system-sweeper",
		TicketID: ticket.ID,
		Action:   domain.AuditDraftExpired,
		Before: map[string]any{
			"status":         string(domain.TicketStatusDraft),
			"payment_status": string(ticket.PaymentStatus),
		},
		After: map[string]any{
			"status":         string(domain.TicketStatusDraft),
			"payment_status": string(domain.PaymentStatusExpired),
		},
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return true, errorutil.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventDraftExpired,
			TicketID:  ticket.ID,
			ActorID:   "system-sweeper",
			Timestamp: s.now(),
			Payload:   events.DraftExpiredPayload{TicketNo: ticket.TicketNo},
		})
	}
	return true, nil
}

// Sweep runs one pass. A failure on one ticket is recorded and the pass
// continues; the combined error is returned at the end.
func (s *SweeperService) Sweep(ctx context.Context) (int, error) {
	drafts, err := s.FindExpiredDrafts(ctx)
	if err != nil {
		return 0, err
	}

	var expired int
	var firstErr error
	for i := range drafts {
		ok, err := s.CancelDraftTicket(ctx, &drafts[i])
		if err != nil {
			s.logger.Error("draft expiry failed",
				zap.String("ticket_no", drafts[i].TicketNo),
				zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("expire %s: %w", drafts[i].TicketNo, err)
			}
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		s.logger.Info("draft sweep complete", zap.Int("expired", expired), zap.Int("scanned", len(drafts)))
	}
	return expired, firstErr
}
