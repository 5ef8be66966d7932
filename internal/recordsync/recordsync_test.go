package recordsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

type fakeDocs struct {
	mu      sync.Mutex
	folders map[string]*FolderRef
	files   []string
	failOn  string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{folders: make(map[string]*FolderRef)}
}

func (d *fakeDocs) EnsureFolder(_ context.Context, path string) (*FolderRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if path == d.failOn {
		return nil, errors.New("folder service unavailable")
	}
	if ref, ok := d.folders[path]; ok {
		return ref, nil
	}
	ref := &FolderRef{ID: "folder-" + path, URL: "https://docs.example/" + path}
	d.folders[path] = ref
	return ref, nil
}

func (d *fakeDocs) UploadFile(_ context.Context, folderID, fileName, _ string, _ []byte) (*FileRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = append(d.files, folderID+"/"+fileName)
	return &FileRef{ID: "file-1", URL: "https://docs.example/files/file-1"}, nil
}

type fakeSheet struct {
	mu      sync.Mutex
	rows    []Row
	updates map[int64]Row
	failAdd bool
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{updates: make(map[int64]Row)}
}

func (s *fakeSheet) AppendRow(_ context.Context, row Row) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdd {
		return 0, errors.New("sheet service unavailable")
	}
	s.rows = append(s.rows, row)
	return int64(len(s.rows)), nil
}

func (s *fakeSheet) UpdateRow(_ context.Context, rowIndex int64, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[rowIndex] = row
	return nil
}

type syncTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func (r *syncTicketStore) Create(context.Context, *domain.Ticket) error { return nil }
func (r *syncTicketStore) Update(context.Context, *domain.Ticket) error { return nil }
func (r *syncTicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id], nil
}
func (r *syncTicketStore) GetByTicketNo(context.Context, string) (*domain.Ticket, error) {
	return nil, nil
}
func (r *syncTicketStore) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}
func (r *syncTicketStore) ListExpiredDrafts(context.Context, time.Time, int) ([]domain.Ticket, error) {
	return nil, nil
}
func (r *syncTicketStore) UpdateSyncRefs(_ context.Context, ticketID, folderID, folderURL string, rowIndex int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket := r.tickets[ticketID]
	ticket.FolderID = &folderID
	ticket.FolderURL = &folderURL
	ticket.SheetRowIndex = &rowIndex
	return nil
}
func (r *syncTicketStore) CountByPrefix(context.Context, string) (int64, error) { return 0, nil }

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:            "t1",
		TicketNo:      "WAC-2026-000042",
		Kind:          domain.TicketKindComplaint,
		CustomerID:    "cust-1",
		Status:        domain.TicketStatusReceived,
		PaymentStatus: domain.PaymentStatusPaid,
		ContactNumber: "+6281234567",
		Region:        "Jakarta",
		Category:      "ACCOUNT_HACKED",
		Device:        "Pixel 8",
		AppVersion:    "2.4.1",
		Description:   "cannot log in",
		CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func sampleCustomer() *domain.User {
	return &domain.User{ID: "cust-1", Name: "Dina", Role: domain.RoleCustomer}
}

func TestBuildRowCoversContract(t *testing.T) {
	row := BuildRow(sampleTicket(), sampleCustomer(), "https://docs.example/f")
	if err := row.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(row) != len(RequiredColumns) {
		t.Errorf("row has %d columns, contract lists %d", len(row), len(RequiredColumns))
	}
	if row["ticket_no"] != "WAC-2026-000042" || row["customer_name"] != "Dina" {
		t.Errorf("row = %v", row)
	}
	// Optional fields render as empty strings, never missing keys.
	for _, col := range []string{"incident_at", "assigned_agent", "notes"} {
		if _, ok := row[col]; !ok {
			t.Errorf("optional column %s absent", col)
		}
	}
}

func TestRowValidateRejectsMissingColumn(t *testing.T) {
	row := BuildRow(sampleTicket(), sampleCustomer(), "")
	delete(row, "payment_status")
	if err := row.Validate(); err == nil {
		t.Error("row missing a column validated")
	}
}

func TestFolderPathLayout(t *testing.T) {
	ticket := sampleTicket()
	if got := FolderPath("complaints", ticket); got != "complaints/2026-03/WAC-2026-000042" {
		t.Errorf("FolderPath = %s", got)
	}
	if got := MonthlyFolderPath("complaints", ticket); got != "complaints/2026-03" {
		t.Errorf("MonthlyFolderPath = %s", got)
	}
}

func newOrchestratorFixture(ticket *domain.Ticket) (*Orchestrator, *fakeDocs, *fakeSheet) {
	docs := newFakeDocs()
	sheet := newFakeSheet()
	store := &syncTicketStore{tickets: map[string]*domain.Ticket{ticket.ID: ticket}}
	return NewOrchestrator(docs, sheet, store, "complaints", zap.NewNop()), docs, sheet
}

func TestInitialSyncPersistsRefs(t *testing.T) {
	ticket := sampleTicket()
	orch, docs, sheet := newOrchestratorFixture(ticket)

	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	if ticket.SheetRowIndex == nil || *ticket.SheetRowIndex != 1 {
		t.Errorf("row index = %v, want 1", ticket.SheetRowIndex)
	}
	if ticket.FolderID == nil || ticket.FolderURL == nil {
		t.Error("folder refs not persisted")
	}
	if _, ok := docs.folders["complaints/2026-03"]; !ok {
		t.Error("monthly folder not created")
	}
	if _, ok := docs.folders["complaints/2026-03/WAC-2026-000042"]; !ok {
		t.Error("ticket folder not created")
	}
	if len(sheet.rows) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(sheet.rows))
	}
	if sheet.rows[0]["folder_url"] == "" {
		t.Error("row lacks folder url")
	}
}

func TestInitialSyncIdempotent(t *testing.T) {
	ticket := sampleTicket()
	orch, _, sheet := newOrchestratorFixture(ticket)

	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(sheet.rows) != 1 {
		t.Errorf("appended rows = %d after re-sync, want 1", len(sheet.rows))
	}
}

func TestInitialSyncRetryAfterSheetFailure(t *testing.T) {
	ticket := sampleTicket()
	orch, _, sheet := newOrchestratorFixture(ticket)

	sheet.failAdd = true
	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err == nil {
		t.Fatal("sheet failure not surfaced")
	}
	if ticket.SheetRowIndex != nil {
		t.Fatal("row index stored despite failed append")
	}

	// Folder creation already happened; the retry reuses it and completes.
	sheet.failAdd = false
	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(sheet.rows) != 1 {
		t.Errorf("appended rows = %d, want 1", len(sheet.rows))
	}
}

func TestSyncUpdateRequiresPriorSync(t *testing.T) {
	ticket := sampleTicket()
	orch, _, sheet := newOrchestratorFixture(ticket)

	err := orch.SyncUpdate(context.Background(), ticket, sampleCustomer())
	if !errorutil.IsCode(err, errorutil.CodeNotYetSynced) {
		t.Fatalf("err = %v, want NOT_YET_SYNCED", err)
	}
	if len(sheet.updates) != 0 {
		t.Error("unsynced ticket reached the sheet")
	}

	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	ticket.Status = domain.TicketStatusInReview
	if err := orch.SyncUpdate(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("SyncUpdate: %v", err)
	}
	updated, ok := sheet.updates[1]
	if !ok {
		t.Fatal("row 1 not updated")
	}
	if updated["status"] != "IN_REVIEW" {
		t.Errorf("updated status = %s", updated["status"])
	}
}

func TestUploadAttachmentNeedsFolder(t *testing.T) {
	ticket := sampleTicket()
	orch, docs, _ := newOrchestratorFixture(ticket)

	if _, err := orch.UploadAttachment(context.Background(), ticket, "shot.png", "image/png", []byte("x")); !errorutil.IsCode(err, errorutil.CodeNotYetSynced) {
		t.Fatalf("err = %v, want NOT_YET_SYNCED", err)
	}

	if err := orch.InitialSync(context.Background(), ticket, sampleCustomer()); err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	ref, err := orch.UploadAttachment(context.Background(), ticket, "shot.png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("UploadAttachment: %v", err)
	}
	if ref.ID == "" || len(docs.files) != 1 {
		t.Errorf("upload ref = %+v, files = %d", ref, len(docs.files))
	}
}
