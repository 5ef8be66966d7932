package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByTicketNo(_ context.Context, ticketNo string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TicketNo == ticketNo {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AgentOrUnassigned != nil &&
			!(ticket.AssignedAgent == nil || *ticket.AssignedAgent == *filter.AgentOrUnassigned) {
			continue
		}
		if filter.Kind != nil && ticket.Kind != *filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) ListExpiredDrafts(_ context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status == domain.TicketStatusDraft &&
			ticket.PaymentStatus == domain.PaymentStatusPending &&
			ticket.CreatedAt.Before(cutoff) {
			out = append(out, *ticket)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateSyncRefs(_ context.Context, ticketID, folderID, folderURL string, rowIndex int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.FolderID = &folderID
	ticket.FolderURL = &folderURL
	ticket.SheetRowIndex = &rowIndex
	return nil
}

func (r *fakeTicketRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, ticket := range r.tickets {
		if strings.HasPrefix(ticket.TicketNo, prefix) {
			count++
		}
	}
	return count, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	seq     int
	entries []domain.AuditEntry
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = fmt.Sprintf("audit-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) GetByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	// Newest first, same ordering the SQL repository produces.
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].TicketID == ticketID {
			out = append(out, r.entries[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAuditRepo) byAction(action domain.AuditAction) []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	seq         int
	attachments []domain.Attachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	attachment.ID = fmt.Sprintf("att-%d", r.seq)
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Attachment
	for _, att := range r.attachments {
		if att.TicketID == ticketID {
			out = append(out, att)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	list, _ := r.ListByTicket(ctx, ticketID)
	return len(list), nil
}

func (r *fakeAttachmentRepo) SetExternalRef(_ context.Context, attachmentID, fileID, fileURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.attachments {
		if r.attachments[i].ID == attachmentID {
			r.attachments[i].ExternalFileID = &fileID
			r.attachments[i].ExternalFileURL = &fileURL
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	seq      int
	payments map[string]*domain.Payment // keyed by order id
	tickets  *fakeTicketRepo
	// expireErr forces ExpireDraftPayment to fail, for batch isolation tests.
	expireErr map[string]error
}

func newFakePaymentRepo(tickets *fakeTicketRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:  make(map[string]*domain.Payment),
		tickets:   tickets,
		expireErr: make(map[string]error),
	}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	payment.ID = fmt.Sprintf("pay-%d", r.seq)
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	clone := *payment
	r.payments[payment.OrderID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[orderID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *payment
	return &clone, nil
}

func (r *fakePaymentRepo) GetPendingByTicket(_ context.Context, ticketID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.TicketID == ticketID && payment.Status == domain.PaymentStatusPending {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePaymentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, payment := range r.payments {
		if payment.TicketID == ticketID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ApplyOutcome(_ context.Context, outcome repository.WebhookOutcome) (*domain.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[outcome.OrderID]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if payment.Status != domain.PaymentStatusPending {
		clone := *payment
		return &clone, false, nil
	}
	payment.Status = outcome.PaymentStatus
	payment.RawPayload = outcome.RawPayload
	payment.UpdatedAt = time.Now()

	r.tickets.mu.Lock()
	ticket := r.tickets.tickets[payment.TicketID]
	if ticket != nil {
		ticket.PaymentStatus = outcome.PaymentStatus
		if outcome.TicketStatus != nil {
			ticket.Status = *outcome.TicketStatus
		}
	}
	r.tickets.mu.Unlock()

	clone := *payment
	return &clone, true, nil
}

func (r *fakePaymentRepo) ExpireDraftPayment(_ context.Context, ticketID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expireErr[ticketID]; err != nil {
		return false, err
	}

	r.tickets.mu.Lock()
	defer r.tickets.mu.Unlock()
	ticket := r.tickets.tickets[ticketID]
	if ticket == nil || ticket.Status != domain.TicketStatusDraft ||
		ticket.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	ticket.PaymentStatus = domain.PaymentStatusExpired
	for _, payment := range r.payments {
		if payment.TicketID == ticketID && payment.Status == domain.PaymentStatusPending {
			payment.Status = domain.PaymentStatusExpired
		}
	}
	return true, nil
}

type fakeSequencer struct {
	mu   sync.Mutex
	next int64
}

func (s *fakeSequencer) Next(_ context.Context, _ int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
