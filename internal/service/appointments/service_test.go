package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
	"barberagenda/internal/watch"
)

// memStore is an in-memory stand-in for the three collections. Fault
// injection fields let tests fail individual steps of multi-step sequences.
type memStore struct {
	mu      sync.Mutex
	active  map[uuid.UUID]domain.Appointment
	trashed map[uuid.UUID]domain.TrashedAppointment
	history []domain.HistoryRecord

	failActiveDelete error
	failTrashInsert  error
}

func newMemStore() *memStore {
	return &memStore{
		active:  make(map[uuid.UUID]domain.Appointment),
		trashed: make(map[uuid.UUID]domain.TrashedAppointment),
	}
}

func (m *memStore) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	m.active[appt.ID] = appt
	return appt, nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.active[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, a := range m.active {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Appointment, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for _, a := range m.active {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.active[id]
	if !ok {
		return store.ErrNotFound
	}
	appt.Status = status
	m.active[id] = appt
	return nil
}

func (m *memStore) MarkCanceled(ctx context.Context, id uuid.UUID, byClient bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.active[id]
	if !ok {
		return store.ErrNotFound
	}
	appt.Status = domain.StatusCanceled
	appt.CanceledByClient = byClient
	appt.StaffNotified = !byClient
	m.active[id] = appt
	return nil
}

func (m *memStore) SetStaffNote(ctx context.Context, id uuid.UUID, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.active[id]
	if !ok {
		return store.ErrNotFound
	}
	appt.StaffNote = note
	m.active[id] = appt
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failActiveDelete != nil {
		return m.failActiveDelete
	}
	if _, ok := m.active[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.active, id)
	return nil
}

func (m *memStore) RenameOwner(ctx context.Context, ownerID, newName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, a := range m.active {
		if a.OwnerID == ownerID {
			a.OwnerName = newName
			m.active[id] = a
			count++
		}
	}
	return count, nil
}

func (m *memStore) ClaimUnseenClientCancellations(ctx context.Context) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Appointment
	for id, a := range m.active {
		if a.Status == domain.StatusCanceled && a.CanceledByClient && !a.StaffNotified {
			a.StaffNotified = true
			m.active[id] = a
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, rec domain.TrashedAppointment) (domain.TrashedAppointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTrashInsert != nil {
		return domain.TrashedAppointment{}, m.failTrashInsert
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.trashed[rec.ID] = rec
	return rec, nil
}

func (m *memStore) GetTrash(id uuid.UUID) (domain.TrashedAppointment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.trashed[id]
	return rec, ok
}

func (m *memStore) List(ctx context.Context) ([]domain.TrashedAppointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TrashedAppointment, 0, len(m.trashed))
	for _, r := range m.trashed {
		out = append(out, r)
	}
	return out, nil
}

type trashView struct{ m *memStore }

func (t trashView) Insert(ctx context.Context, rec domain.TrashedAppointment) (domain.TrashedAppointment, error) {
	return t.m.Insert(ctx, rec)
}

func (t trashView) Get(ctx context.Context, id uuid.UUID) (domain.TrashedAppointment, error) {
	rec, ok := t.m.GetTrash(id)
	if !ok {
		return domain.TrashedAppointment{}, store.ErrNotFound
	}
	return rec, nil
}

func (t trashView) List(ctx context.Context) ([]domain.TrashedAppointment, error) {
	return t.m.List(ctx)
}

func (t trashView) Delete(ctx context.Context, id uuid.UUID) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.trashed[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.m.trashed, id)
	return nil
}

type historyView struct{ m *memStore }

func (h historyView) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.m.history = append(h.m.history, rec)
	return nil
}

var (
	client = domain.Identity{ID: "u1", DisplayName: "Diego", Email: "diego@example.com", Role: domain.RoleClient}
	staff  = domain.Identity{ID: "s1", DisplayName: "Marcos", Role: domain.RoleStaff}
	admin  = domain.Identity{ID: "a1", DisplayName: "Ana", Role: domain.RoleAdmin}
)

func newTestService(t *testing.T, m *memStore) *Service {
	t.Helper()
	svc := NewService(m, trashView{m}, historyView{m}, watch.NewHub(), time.UTC)
	svc.now = func() time.Time {
		return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func mustCreate(t *testing.T, svc *Service, actor domain.Identity, in CreateInput) domain.Appointment {
	t.Helper()
	appt, err := svc.Create(context.Background(), actor, in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return appt
}

func corteInput() CreateInput {
	return CreateInput{
		ServiceName:       "Corte",
		ServicePriceCents: 3500,
		Date:              "2024-06-01",
		TimeSlot:          "10:00",
	}
}

func TestCreate_NewAppointmentIsPending(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	appt := mustCreate(t, svc, client, corteInput())

	if appt.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", appt.Status)
	}
	if appt.OwnerID != client.ID || appt.OwnerName != "Diego" {
		t.Fatalf("owner fields not filled from identity: %+v", appt)
	}
	if appt.CreatedAt.After(time.Now().UTC()) {
		t.Fatalf("created_at %v is in the future", appt.CreatedAt)
	}

	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !appt.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled_at = %v, want %v", appt.ScheduledAt, want)
	}

	list, err := svc.ListForOwner(context.Background(), client, client.ID)
	if err != nil {
		t.Fatalf("ListForOwner error: %v", err)
	}
	if len(list) != 1 || list[0].ID != appt.ID {
		t.Fatalf("owner list = %+v, want the created appointment", list)
	}
}

func TestCreate_Permissions(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	if _, err := svc.Create(context.Background(), domain.Identity{}, corteInput()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("unauthenticated create = %v, want ErrPermissionDenied", err)
	}

	in := corteInput()
	in.OwnerID = "someone-else"
	if _, err := svc.Create(context.Background(), client, in); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("client booking for another owner = %v, want ErrPermissionDenied", err)
	}

	// staff may book on a client's behalf
	in.OwnerName = "Walk-in"
	if _, err := svc.Create(context.Background(), staff, in); err != nil {
		t.Fatalf("staff create for client error: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing service", func(in *CreateInput) { in.ServiceName = "  " }},
		{"negative price", func(in *CreateInput) { in.ServicePriceCents = -1 }},
		{"bad date", func(in *CreateInput) { in.Date = "01/06/2024" }},
		{"bad slot", func(in *CreateInput) { in.TimeSlot = "10h00" }},
		{"bad email", func(in *CreateInput) { in.OwnerEmail = "not-an-email" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := corteInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), client, in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v (%T), want *ValidationError", err, err)
			}
		})
	}
}

func TestCancel_ClientSetsProvenanceAndUnseenFlag(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByClient); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	got := m.active[appt.ID]
	if got.Status != domain.StatusCanceled {
		t.Fatalf("status = %s, want canceled", got.Status)
	}
	if !got.CanceledByClient || got.StaffNotified {
		t.Fatalf("provenance/seen flags = %v/%v, want true/false", got.CanceledByClient, got.StaffNotified)
	}

	// canceling again lands on the same terminal state
	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByClient); err != nil {
		t.Fatalf("second Cancel error: %v", err)
	}
	if m.active[appt.ID].Status != domain.StatusCanceled {
		t.Fatalf("second cancel changed terminal state")
	}
}

func TestCancel_StaffProvenance(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.Cancel(context.Background(), staff, appt.ID, InitiatedByStaff); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	got := m.active[appt.ID]
	if got.CanceledByClient {
		t.Fatalf("staff cancellation flagged as client-initiated")
	}
	if !got.StaffNotified {
		t.Fatalf("staff cancellation should not sit in the unseen queue")
	}
}

func TestCancel_Permissions(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	other := domain.Identity{ID: "u2", Role: domain.RoleClient}
	if err := svc.Cancel(context.Background(), other, appt.ID, InitiatedByClient); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("error = %v, want ErrPermissionDenied", err)
	}
	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByStaff); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("client as staff initiator = %v, want ErrPermissionDenied", err)
	}
	if err := svc.Cancel(context.Background(), client, uuid.New(), InitiatedByClient); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id = %v, want ErrNotFound", err)
	}
}

func TestCancel_CompletedIsInvalid(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.SetStatus(context.Background(), staff, appt.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if err := svc.SetStatus(context.Background(), staff, appt.ID, domain.StatusCompleted); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	if err := svc.Cancel(context.Background(), staff, appt.ID, InitiatedByStaff); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel completed = %v, want ErrInvalidState", err)
	}
}

func TestSetStatus_TransitionTable(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.SetStatus(context.Background(), staff, appt.ID, domain.StatusCompleted); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pending -> completed = %v, want ErrInvalidState", err)
	}
	if err := svc.SetStatus(context.Background(), client, appt.ID, domain.StatusConfirmed); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("client set status = %v, want ErrPermissionDenied", err)
	}
	if err := svc.SetStatus(context.Background(), staff, appt.ID, "rejected"); err == nil {
		t.Fatalf("expected validation error for unknown status")
	}
	if err := svc.SetStatus(context.Background(), staff, appt.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("pending -> confirmed error: %v", err)
	}
	if m.active[appt.ID].Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", m.active[appt.ID].Status)
	}
}

func TestMoveToTrashAndRestore_RoundTrip(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	in := corteInput()
	in.ClientNote = "maquina 2 na lateral"
	appt := mustCreate(t, svc, client, in)

	if err := svc.MoveToTrash(context.Background(), staff, appt.ID); err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}
	if _, ok := m.active[appt.ID]; ok {
		t.Fatalf("appointment still in active collection after trashing")
	}

	trashed, err := svc.ListTrash(context.Background(), staff)
	if err != nil {
		t.Fatalf("ListTrash error: %v", err)
	}
	if len(trashed) != 1 {
		t.Fatalf("trash size = %d, want 1", len(trashed))
	}
	rec := trashed[0]
	if rec.OriginalID != appt.ID {
		t.Fatalf("original_id = %s, want %s", rec.OriginalID, appt.ID)
	}
	if rec.DeletedAt.IsZero() {
		t.Fatalf("deleted_at not set")
	}

	restored, err := svc.Restore(context.Background(), staff, rec.ID)
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if restored.ID == appt.ID {
		t.Fatalf("restored record kept the old storage identity")
	}

	// field-for-field identical except identity
	got, want := restored, appt
	got.ID, want.ID = uuid.Nil, uuid.Nil
	got.UpdatedAt, want.UpdatedAt = time.Time{}, time.Time{}
	if got != want {
		t.Fatalf("restored = %+v, want %+v", got, want)
	}

	if rem, _ := svc.ListTrash(context.Background(), staff); len(rem) != 0 {
		t.Fatalf("trash not emptied after restore: %+v", rem)
	}
}

func TestMoveToTrash_MidSequenceFailureDuplicatesNeverLoses(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	m.failActiveDelete = errors.New("connection reset")
	if err := svc.MoveToTrash(context.Background(), staff, appt.ID); err == nil {
		t.Fatalf("expected error from failed delete step")
	}

	if _, ok := m.active[appt.ID]; !ok {
		t.Fatalf("record lost from active collection")
	}
	if trashed, _ := m.List(context.Background()); len(trashed) != 1 {
		t.Fatalf("trash copy missing: record must be duplicated, not lost")
	}
}

func TestMoveToTrash_ConcurrentRemovalIsSoftNotFound(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	// Racer A finished the whole sequence first.
	if err := svc.MoveToTrash(context.Background(), staff, appt.ID); err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}

	// Racer B sees the document gone before its copy step.
	if err := svc.MoveToTrash(context.Background(), staff, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second MoveToTrash = %v, want ErrNotFound", err)
	}

	// Racer interleaved after the copy step: delete observes not-found and
	// the extra trash copy stays behind.
	appt2 := mustCreate(t, svc, client, corteInput())
	m.failActiveDelete = store.ErrNotFound
	if err := svc.MoveToTrash(context.Background(), staff, appt2.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("interleaved MoveToTrash = %v, want soft ErrNotFound", err)
	}
}

func TestMoveToTrash_RequiresStaff(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.MoveToTrash(context.Background(), client, appt.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("error = %v, want ErrPermissionDenied", err)
	}
}

func TestPurgePermanently(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())

	if err := svc.MoveToTrash(context.Background(), staff, appt.ID); err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}
	trashed, _ := svc.ListTrash(context.Background(), staff)

	if err := svc.PurgePermanently(context.Background(), staff, trashed[0].ID); err != nil {
		t.Fatalf("PurgePermanently error: %v", err)
	}
	if rem, _ := svc.ListTrash(context.Background(), staff); len(rem) != 0 {
		t.Fatalf("trash record survived the purge")
	}
	if err := svc.PurgePermanently(context.Background(), staff, trashed[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second purge = %v, want ErrNotFound", err)
	}
}

func TestRemoveFromPersonalHistory(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	// Upcoming pending appointment: removal must fail with InvalidState.
	upcoming := mustCreate(t, svc, client, corteInput())
	if err := svc.RemoveFromPersonalHistory(context.Background(), client, upcoming.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("remove upcoming = %v, want ErrInvalidState", err)
	}

	// Canceled appointment: removal succeeds and writes history.
	if err := svc.Cancel(context.Background(), client, upcoming.ID, InitiatedByClient); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if err := svc.RemoveFromPersonalHistory(context.Background(), client, upcoming.ID); err != nil {
		t.Fatalf("RemoveFromPersonalHistory error: %v", err)
	}
	if _, ok := m.active[upcoming.ID]; ok {
		t.Fatalf("appointment still active after removal")
	}
	if len(m.history) != 1 {
		t.Fatalf("history records = %d, want 1", len(m.history))
	}
	h := m.history[0]
	if h.OriginalID != upcoming.ID || h.RemovedBy != client.ID {
		t.Fatalf("history record = %+v", h)
	}

	// Past-dated appointment counts as terminal even while pending.
	past := corteInput()
	past.Date = "2024-05-01"
	pastAppt := mustCreate(t, svc, client, past)
	if err := svc.RemoveFromPersonalHistory(context.Background(), client, pastAppt.ID); err != nil {
		t.Fatalf("remove past-dated error: %v", err)
	}
}

func TestRemoveFromPersonalHistory_OwnerOnly(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)
	appt := mustCreate(t, svc, client, corteInput())
	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByClient); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	// Not even staff may purge someone else's personal view.
	if err := svc.RemoveFromPersonalHistory(context.Background(), staff, appt.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("staff removal = %v, want ErrPermissionDenied", err)
	}
}

func TestRenameOwnerAcrossAppointments(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	for i := 0; i < 3; i++ {
		in := corteInput()
		in.TimeSlot = time.Date(2024, 6, 1, 10+i, 0, 0, 0, time.UTC).Format(domain.SlotLayout)
		mustCreate(t, svc, client, in)
	}
	other := domain.Identity{ID: "u2", DisplayName: "Rafa", Role: domain.RoleClient}
	otherAppt := mustCreate(t, svc, other, corteInput())

	count, err := svc.RenameOwnerAcrossAppointments(context.Background(), client, client.ID, "Diego R.")
	if err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	for _, a := range m.active {
		if a.OwnerID == client.ID && a.OwnerName != "Diego R." {
			t.Fatalf("appointment %s kept old name %q", a.ID, a.OwnerName)
		}
	}
	if m.active[otherAppt.ID].OwnerName != "Rafa" {
		t.Fatalf("rename leaked onto another owner")
	}

	if _, err := svc.RenameOwnerAcrossAppointments(context.Background(), other, client.ID, "X"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("rename of another owner = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.RenameOwnerAcrossAppointments(context.Background(), admin, client.ID, "Diego Ramos"); err != nil {
		t.Fatalf("admin rename error: %v", err)
	}
}

func TestDetectUnacknowledgedClientCancellations_ScenarioOnceOnly(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	appt := mustCreate(t, svc, client, corteInput())
	if appt.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", appt.Status)
	}

	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByClient); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	first, err := svc.DetectUnacknowledgedClientCancellations(context.Background(), staff)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if len(first) != 1 || first[0].ID != appt.ID {
		t.Fatalf("first detect = %+v, want exactly the canceled appointment", first)
	}
	if !m.active[appt.ID].StaffNotified {
		t.Fatalf("seen flag not flipped by detect")
	}

	second, err := svc.DetectUnacknowledgedClientCancellations(context.Background(), staff)
	if err != nil {
		t.Fatalf("second Detect error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second detect returned %d rows, want 0", len(second))
	}

	if _, err := svc.DetectUnacknowledgedClientCancellations(context.Background(), client); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("client detect = %v, want ErrPermissionDenied", err)
	}
}

func TestWatch_DeliversSnapshotsOnMutation(t *testing.T) {
	m := newMemStore()
	svc := newTestService(t, m)

	sub, err := svc.Watch(client, client.ID)
	if err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	defer sub.Close()

	if _, err := svc.Watch(domain.Identity{ID: "u2", Role: domain.RoleClient}, client.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("foreign watch = %v, want ErrPermissionDenied", err)
	}

	appt := mustCreate(t, svc, client, corteInput())

	select {
	case snap := <-sub.C():
		if len(snap) != 1 || snap[0].ID != appt.ID {
			t.Fatalf("snapshot = %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot delivered after create")
	}

	if err := svc.Cancel(context.Background(), client, appt.ID, InitiatedByClient); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	select {
	case snap := <-sub.C():
		if snap[0].Status != domain.StatusCanceled {
			t.Fatalf("snapshot status = %s, want canceled", snap[0].Status)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot delivered after cancel")
	}
}
