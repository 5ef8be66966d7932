package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/recordsync"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Effects wires post-commit side effects to domain events. Every handler is
// log-and-continue: a failed folder, row, or message never rolls back or
// blocks the state change that triggered it.
type Effects struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	sync     *recordsync.Orchestrator
	notifier *notify.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// EffectsDependencies bundles collaborators for effect handlers.
type EffectsDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Sync       *recordsync.Orchestrator
	Notifier   *notify.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewEffects constructs the effect handlers.
func NewEffects(deps EffectsDependencies) *Effects {
	return &Effects{
		tickets:  deps.TicketRepo,
		users:    deps.UserRepo,
		sync:     deps.Sync,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Register subscribes the handlers to the dispatcher.
func (e *Effects) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketPaid, e.onTicketPaid)
	dispatcher.Subscribe(events.EventTicketStatusChanged, e.onTicketChanged)
	dispatcher.Subscribe(events.EventTicketAssigned, e.onTicketChanged)
	dispatcher.Subscribe(events.EventDraftExpired, e.onTicketChanged)
}

// onTicketPaid runs the first sync of a freshly paid ticket and announces it
// to the team.
func (e *Effects) onTicketPaid(ctx context.Context, event events.Event) error {
	ticket, customer, err := e.load(ctx, event.TicketID)
	if err != nil {
		e.fail("sync", ticket, err)
		return err
	}
	if err := e.sync.InitialSync(ctx, ticket, customer); err != nil {
		e.fail("sync", ticket, err)
		return err
	}
	if e.notifier != nil {
		notifyEvent := notify.Event{
			TicketID:     ticket.ID,
			TicketNo:     ticket.TicketNo,
			CustomerName: customer.Name,
			Category:     ticket.Category,
			Summary:      summarize(ticket),
		}
		if err := e.notifier.Notify(ctx, notifyEvent); err != nil {
			e.fail("notify", ticket, err)
			return err
		}
	}
	return nil
}

// onTicketChanged pushes the ticket's current state to its spreadsheet row.
func (e *Effects) onTicketChanged(ctx context.Context, event events.Event) error {
	ticket, customer, err := e.load(ctx, event.TicketID)
	if err != nil {
		e.fail("sync", ticket, err)
		return err
	}
	// Drafts that expired before payment were never synced.
	if ticket.SheetRowIndex == nil {
		return nil
	}
	if err := e.sync.SyncUpdate(ctx, ticket, customer); err != nil {
		e.fail("sync", ticket, err)
		return err
	}
	return nil
}

func (e *Effects) load(ctx context.Context, ticketID string) (*domain.Ticket, *domain.User, error) {
	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, fmt.Errorf("load ticket %s: %w", ticketID, err)
	}
	customer, err := e.users.GetByID(ctx, ticket.CustomerID)
	if err != nil {
		return ticket, nil, fmt.Errorf("load customer %s: %w", ticket.CustomerID, err)
	}
	return ticket, customer, nil
}

func (e *Effects) fail(effect string, ticket *domain.Ticket, err error) {
	e.metrics.RecordEffectFailure(effect)
	fields := []zap.Field{zap.String("effect", effect), zap.Error(err)}
	if ticket != nil {
		fields = append(fields, zap.String("ticket_no", ticket.TicketNo))
	}
	e.logger.Error("side effect failed", fields...)
}

func summarize(ticket *domain.Ticket) string {
	if ticket.Kind == domain.TicketKindAccountPurchase {
		return "new account purchase"
	}
	return "new complaint"
}
