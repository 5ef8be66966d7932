package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/validation"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

// allowedTransitions is the ticket status state machine. CLOSED and REJECTED
// are terminal.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusDraft:      {domain.TicketStatusReceived},
	domain.TicketStatusReceived:   {domain.TicketStatusInReview, domain.TicketStatusRejected},
	domain.TicketStatusInReview:   {domain.TicketStatusNeedsInfo, domain.TicketStatusInProgress, domain.TicketStatusRejected},
	domain.TicketStatusNeedsInfo:  {domain.TicketStatusInReview, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusNeedsInfo},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
	domain.TicketStatusRejected:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TicketService owns ticket CRUD and the status state machine. Every mutation
// writes exactly one audit entry whose after snapshot matches the persisted
// state.
type TicketService struct {
	tickets     repository.TicketRepository
	audit       repository.AuditRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	sequencer   persistence.TicketSequencer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AuditRepo      repository.AuditRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	Sequencer      persistence.TicketSequencer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		audit:       deps.AuditRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		sequencer:   deps.Sequencer,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// DraftInput describes ticket creation payload.
type DraftInput struct {
	Kind          domain.TicketKind
	ContactNumber string
	Region        string
	Category      string
	IncidentAt    *time.Time
	Device        string
	AppVersion    string
	Description   string
	ProductCode   string
}

// CreateDraft validates input, allocates the next yearly ticket number, and
// creates the ticket in DRAFT with payment PENDING.
func (s *TicketService) CreateDraft(ctx context.Context, customerID string, input DraftInput) (*domain.Ticket, error) {
	kind := input.Kind
	if kind == "" {
		kind = domain.TicketKindComplaint
	}
	violations := validation.ValidateTicketInput(validation.TicketInput{
		Kind:          kind,
		ContactNumber: input.ContactNumber,
		Region:        input.Region,
		Category:      input.Category,
		Device:        input.Device,
		AppVersion:    input.AppVersion,
		Description:   input.Description,
		ProductCode:   input.ProductCode,
	})
	if len(violations) > 0 {
		return nil, errorutil.NewValidationError("invalid ticket input", map[string]any{"violations": violations})
	}

	year := s.now().Year()
	seq, err := s.sequencer.Next(ctx, year)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	ticket := &domain.Ticket{
		TicketNo:      domain.FormatTicketNo(year, seq),
		Kind:          kind,
		CustomerID:    customerID,
		Status:        domain.TicketStatusDraft,
		PaymentStatus: domain.PaymentStatusPending,
		ContactNumber: strings.TrimSpace(input.ContactNumber),
		Region:        strings.TrimSpace(input.Region),
		Category:      strings.TrimSpace(input.Category),
		IncidentAt:    input.IncidentAt,
		Device:        strings.TrimSpace(input.Device),
		AppVersion:    strings.TrimSpace(input.AppVersion),
		Description:   strings.TrimSpace(input.Description),
		ProductCode:   strings.TrimSpace(input.ProductCode),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	if err := s.appendAudit(ctx, customerID, ticket.ID, domain.AuditTicketCreated, nil, snapshotTicket(ticket)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  customerID,
		Payload: events.TicketCreatedPayload{
			TicketNo:   ticket.TicketNo,
			Kind:       ticket.Kind,
			CustomerID: ticket.CustomerID,
			Category:   ticket.Category,
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket along the state machine. Transitions outside
// the table fail without mutating anything.
func (s *TicketService) UpdateStatus(ctx context.Context, actor rbac.Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanTransitionStatus(actor, ticket) {
		return nil, s.denialError(actor, ticketID)
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, errorutil.NewInvalidTransition(string(ticket.Status), string(newStatus))
	}
	// DRAFT -> RECEIVED happens only through payment reconciliation.
	if ticket.Status == domain.TicketStatusDraft {
		return nil, errorutil.NewConflict("draft tickets advance on payment confirmation", map[string]any{"ticket_id": ticket.ID})
	}

	before := snapshotTicket(ticket)
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus.IsTerminal() {
		now := s.now()
		ticket.ClosedAt = &now
	}
	if err := s.checkStateInvariant(ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	if err := s.appendAudit(ctx, actor.ID, ticket.ID, domain.AuditStatusChanged, before, snapshotTicket(ticket)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// AssignAgent sets the assigned agent. Admin only; allowed in any
// non-terminal state and not itself a status transition.
func (s *TicketService) AssignAgent(ctx context.Context, actor rbac.Actor, ticketID, agentID string) (*domain.Ticket, error) {
	if !rbac.CanAssignAgent(actor) {
		return nil, errorutil.NewForbidden("agent assignment requires admin")
	}
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, errorutil.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, errorutil.MapError(err)
	}
	if agent.Role != domain.RoleAgent && agent.Role != domain.RoleAdmin {
		return nil, errorutil.NewConflict("assignee is not support staff", map[string]any{"agent_id": agentID})
	}

	before := snapshotTicket(ticket)
	ticket.AssignedAgent = &agent.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	if err := s.appendAudit(ctx, actor.ID, ticket.ID, domain.AuditAgentAssigned, before, snapshotTicket(ticket)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketAssignedPayload{AgentID: ticket.AssignedAgent},
	})
	return ticket, nil
}

// AddInternalNotes appends staff-only notes. Allowed in any non-terminal
// state; not a status transition.
func (s *TicketService) AddInternalNotes(ctx context.Context, actor rbac.Actor, ticketID, notes string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleAgent && actor.Role != domain.RoleAdmin {
		return nil, errorutil.NewForbidden("internal notes are staff only")
	}
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, errorutil.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}

	before := snapshotTicket(ticket)
	trimmed := strings.TrimSpace(notes)
	if ticket.InternalNotes != nil && *ticket.InternalNotes != "" {
		trimmed = *ticket.InternalNotes + "\n" + trimmed
	}
	ticket.InternalNotes = &trimmed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	if err := s.appendAudit(ctx, actor.ID, ticket.ID, domain.AuditNotesAdded, before, snapshotTicket(ticket)); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetByID fetches a ticket the actor may access.
func (s *TicketService) GetByID(ctx context.Context, actor rbac.Actor, ticketID string) (*domain.Ticket, error) {
	return s.loadForActor(ctx, actor, ticketID)
}

// ListFilter narrows List results within the actor's visibility.
type ListFilter struct {
	Kind        *domain.TicketKind
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// List returns tickets visible to the actor. Visibility comes from
// rbac.BuildFilter so list and single-record reads share one decision.
func (s *TicketService) List(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]domain.Ticket, error) {
	visibility := rbac.BuildFilter(actor)
	if !visibility.All && visibility.CustomerID == nil && visibility.AgentID == nil {
		return []domain.Ticket{}, nil
	}
	repoFilter := repository.TicketFilter{
		CustomerID:        visibility.CustomerID,
		AgentOrUnassigned: visibility.AgentID,
		Kind:              filter.Kind,
		Statuses:          filter.Statuses,
		CreatedFrom:       filter.CreatedFrom,
		CreatedTo:         filter.CreatedTo,
		Limit:             filter.Limit,
		Offset:            filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return tickets, nil
}

// AttachmentInput describes one attachment upload.
type AttachmentInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// AddAttachment records attachment metadata subject to file and count checks.
func (s *TicketService) AddAttachment(ctx context.Context, actor rbac.Actor, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if violations := validation.ValidateFileUpload(input.MimeType, input.SizeBytes); len(violations) > 0 {
		return nil, errorutil.NewValidationError("invalid file", map[string]any{"violations": violations})
	}
	count, err := s.attachments.CountByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if violations := validation.ValidateAttachmentCount(count); len(violations) > 0 {
		return nil, errorutil.NewValidationError("attachment limit reached", map[string]any{"violations": violations})
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		UploaderID: actor.ID,
		FileName:   strings.TrimSpace(input.FileName),
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, errorutil.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns a ticket's attachments, visibility checked.
func (s *TicketService) ListAttachments(ctx context.Context, actor rbac.Actor, ticketID string) ([]domain.Attachment, error) {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return attachments, nil
}

// GetAuditTrail returns the ticket's history newest-first.
func (s *TicketService) GetAuditTrail(ctx context.Context, actor rbac.Actor, ticketID string, limit, offset int) ([]domain.AuditEntry, error) {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := s.audit.GetByTicket(ctx, ticket.ID, limit, offset)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) loadForActor(ctx context.Context, actor rbac.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewTicketNotFound(ticketID)
		}
		return nil, errorutil.MapError(err)
	}
	if !rbac.CanAccess(actor, ticket) {
		return nil, s.denialError(actor, ticketID)
	}
	if err := s.checkStateInvariant(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// denialError hides existence from customers: a forbidden ticket and a
// missing ticket must be indistinguishable to them.
func (s *TicketService) denialError(actor rbac.Actor, ticketID string) error {
	if actor.Role == domain.RoleCustomer {
		return errorutil.NewTicketNotFound(ticketID)
	}
	return errorutil.NewForbidden("access denied")
}

// checkStateInvariant surfaces ticket/payment pairs outside the defined
// tables loudly instead of coercing them: such a pair means something
// bypassed the lifecycle engine.
func (s *TicketService) checkStateInvariant(ticket *domain.Ticket) error {
	if ticket.Status != domain.TicketStatusDraft && ticket.PaymentStatus != domain.PaymentStatusPaid {
		s.logger.Error("ticket state invariant violated",
			zap.String("ticket_id", ticket.ID),
			zap.String("status", string(ticket.Status)),
			zap.String("payment_status", string(ticket.PaymentStatus)))
		return errorutil.NewInvariantViolation("ticket/payment status pair outside transition tables",
			map[string]any{
				"ticket_id":      ticket.ID,
				"status":         ticket.Status,
				"payment_status": ticket.PaymentStatus,
			})
	}
	return nil
}

func (s *TicketService) appendAudit(ctx context.Context, actorID, ticketID string, action domain.AuditAction, before, after map[string]any) error {
	entry := &domain.AuditEntry{
		ActorID:  actorID,
		TicketID: ticketID,
		Action:   action,
		Before:   before,
		After:    after,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// snapshotTicket captures the audited view of a ticket's mutable state.
func snapshotTicket(ticket *domain.Ticket) map[string]any {
	snapshot := map[string]any{
		"ticket_no":      ticket.TicketNo,
		"status":         string(ticket.Status),
		"payment_status": string(ticket.PaymentStatus),
	}
	if ticket.AssignedAgent != nil {
		snapshot["assigned_agent"] = *ticket.AssignedAgent
	}
	if ticket.InternalNotes != nil {
		snapshot["internal_notes"] = *ticket.InternalNotes
	}
	if ticket.ClosedAt != nil {
		snapshot["closed_at"] = ticket.ClosedAt.UTC().Format(time.RFC3339)
	}
	return snapshot
}
