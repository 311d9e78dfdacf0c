// Package appointments mediates every transition an appointment can undergo
// and keeps the active, trash and history collections mutually exclusive.
// Identity is passed explicitly into every call; nothing here reads an
// ambient current user.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
	"barberagenda/internal/watch"
)

// Initiator records cancellation provenance.
type Initiator string

const (
	InitiatedByClient Initiator = "client"
	InitiatedByStaff  Initiator = "staff"
)

type Service struct {
	appts   store.AppointmentStore
	trash   store.TrashStore
	history store.HistoryStore
	hub     *watch.Hub
	loc     *time.Location
	now     func() time.Time
}

// NewService wires the lifecycle manager. hub may be nil when no live
// subscribers exist (tests, one-shot tools). loc is the shop's time zone
// used to derive sortable timestamps from date + slot tokens.
func NewService(appts store.AppointmentStore, trash store.TrashStore, history store.HistoryStore, hub *watch.Hub, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		appts:   appts,
		trash:   trash,
		history: history,
		hub:     hub,
		loc:     loc,
		now:     time.Now,
	}
}

type CreateInput struct {
	OwnerID           string
	OwnerName         string
	OwnerEmail        string
	ServiceName       string
	ServicePriceCents int64
	Date              string
	TimeSlot          string
	ClientNote        string
}

// Create books a new pending appointment. Blocked-day and double-booking
// validation is the booking entry path's concern; this layer accepts what
// it is given.
func (s *Service) Create(ctx context.Context, actor domain.Identity, in CreateInput) (domain.Appointment, error) {
	if !actor.Authenticated() {
		return domain.Appointment{}, ErrPermissionDenied
	}
	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID && !actor.Role.Staff() {
		return domain.Appointment{}, ErrPermissionDenied
	}

	name := strings.TrimSpace(in.OwnerName)
	if name == "" {
		name = actor.DisplayName
	}
	if name == "" {
		return domain.Appointment{}, validationError("owner name is required")
	}

	email := strings.TrimSpace(in.OwnerEmail)
	if email == "" {
		email = actor.Email
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.Appointment{}, validationError("invalid owner email")
		}
	}

	serviceName := strings.TrimSpace(in.ServiceName)
	if serviceName == "" {
		return domain.Appointment{}, validationError("service is required")
	}
	if in.ServicePriceCents < 0 {
		return domain.Appointment{}, validationError("service price must not be negative")
	}

	scheduledAt, err := domain.ScheduleTime(in.Date, in.TimeSlot, s.loc)
	if err != nil {
		return domain.Appointment{}, validationError("date must be YYYY-MM-DD and slot HH:MM")
	}

	appt := domain.Appointment{
		OwnerID:           ownerID,
		OwnerName:         name,
		OwnerEmail:        email,
		ServiceName:       serviceName,
		ServicePriceCents: in.ServicePriceCents,
		Date:              in.Date,
		TimeSlot:          in.TimeSlot,
		ScheduledAt:       scheduledAt,
		Status:            domain.StatusPending,
		ClientNote:        strings.TrimSpace(in.ClientNote),
		CreatedAt:         s.now().UTC(),
	}

	created, err := s.appts.Create(ctx, appt)
	if err != nil {
		return domain.Appointment{}, s.mapStoreErr("create appointment", err)
	}

	s.publishSnapshot(ctx, created.OwnerID)
	return created, nil
}

// Cancel sets the terminal canceled status. Client-initiated cancellations
// carry provenance and an unseen flag so staff tooling can acknowledge them
// later. Repeating a cancel lands on the same terminal state.
func (s *Service) Cancel(ctx context.Context, actor domain.Identity, id uuid.UUID, by Initiator) error {
	appt, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	switch by {
	case InitiatedByClient:
		if appt.OwnerID != actor.ID {
			return ErrPermissionDenied
		}
	case InitiatedByStaff:
		if !actor.Role.Staff() {
			return ErrPermissionDenied
		}
	default:
		return validationError("initiator must be client or staff")
	}

	if !appt.Status.CanTransitionTo(domain.StatusCanceled) {
		return fmt.Errorf("cannot cancel a %s appointment: %w", appt.Status, ErrInvalidState)
	}

	if err := s.appts.MarkCanceled(ctx, id, by == InitiatedByClient); err != nil {
		return s.mapStoreErr("cancel appointment", err)
	}

	s.publishSnapshot(ctx, appt.OwnerID)
	return nil
}

// SetStatus applies a staff-driven transition, guarded by the transition
// table: pending -> confirmed/canceled, confirmed -> completed/canceled.
func (s *Service) SetStatus(ctx context.Context, actor domain.Identity, id uuid.UUID, status domain.Status) error {
	if !actor.Role.Staff() {
		return ErrPermissionDenied
	}
	if !status.Valid() {
		return validationError("unknown status")
	}
	if status == domain.StatusCanceled {
		return s.Cancel(ctx, actor, id, InitiatedByStaff)
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !appt.Status.CanTransitionTo(status) {
		return fmt.Errorf("%s -> %s: %w", appt.Status, status, ErrInvalidState)
	}

	if err := s.appts.SetStatus(ctx, id, status); err != nil {
		return s.mapStoreErr("set status", err)
	}

	s.publishSnapshot(ctx, appt.OwnerID)
	return nil
}

// SetStaffNote updates the staff observation field.
func (s *Service) SetStaffNote(ctx context.Context, actor domain.Identity, id uuid.UUID, note string) error {
	if !actor.Role.Staff() {
		return ErrPermissionDenied
	}
	appt, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appts.SetStaffNote(ctx, id, strings.TrimSpace(note)); err != nil {
		return s.mapStoreErr("set staff note", err)
	}
	s.publishSnapshot(ctx, appt.OwnerID)
	return nil
}

// MoveToTrash copies the appointment into the trash collection and then
// deletes it from the active one, in that fixed order. A failure between
// the two steps leaves the record duplicated, never lost. A concurrent
// removal shows up as a benign not-found on the delete step.
func (s *Service) MoveToTrash(ctx context.Context, actor domain.Identity, id uuid.UUID) error {
	if !actor.Role.Staff() {
		return ErrPermissionDenied
	}

	appt, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.trash.Insert(ctx, domain.Trash(appt, s.now().UTC())); err != nil {
		return s.mapStoreErr("copy to trash", err)
	}

	if err := s.appts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost the race: another session already removed it. The copy
			// above stays behind; duplication is the safe failure mode.
			return fmt.Errorf("already removed: %w", ErrNotFound)
		}
		return s.mapStoreErr("delete after trash copy", err)
	}

	s.publishSnapshot(ctx, appt.OwnerID)
	return nil
}

// Restore re-inserts a trashed appointment into the active collection under
// a new identity, then deletes the trash record. Insert-then-delete mirrors
// the MoveToTrash ordering: duplication over loss.
func (s *Service) Restore(ctx context.Context, actor domain.Identity, trashID uuid.UUID) (domain.Appointment, error) {
	if !actor.Role.Staff() {
		return domain.Appointment{}, ErrPermissionDenied
	}

	rec, err := s.trash.Get(ctx, trashID)
	if err != nil {
		return domain.Appointment{}, s.mapStoreErr("read trash record", err)
	}

	restored, err := s.appts.Create(ctx, rec.Restored())
	if err != nil {
		return domain.Appointment{}, s.mapStoreErr("restore appointment", err)
	}

	if err := s.trash.Delete(ctx, trashID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return restored, fmt.Errorf("trash record already removed: %w", ErrNotFound)
		}
		return restored, s.mapStoreErr("delete trash record", err)
	}

	s.publishSnapshot(ctx, restored.OwnerID)
	return restored, nil
}

// PurgePermanently deletes a trash record with no further copy. Callers must
// gate this behind an explicit confirmation.
func (s *Service) PurgePermanently(ctx context.Context, actor domain.Identity, trashID uuid.UUID) error {
	if !actor.Role.Staff() {
		return ErrPermissionDenied
	}
	if err := s.trash.Delete(ctx, trashID); err != nil {
		return s.mapStoreErr("purge trash record", err)
	}
	return nil
}

// RemoveFromPersonalHistory lets an owner drop a finished appointment from
// their own view. It writes the append-only history record first, then
// deletes the active document.
func (s *Service) RemoveFromPersonalHistory(ctx context.Context, actor domain.Identity, id uuid.UUID) error {
	appt, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if appt.OwnerID != actor.ID {
		return ErrPermissionDenied
	}
	if !appt.Terminal(s.now().UTC()) {
		return fmt.Errorf("appointment is still upcoming: %w", ErrInvalidState)
	}

	if err := s.history.Insert(ctx, domain.History(appt, actor.ID, s.now().UTC())); err != nil {
		return s.mapStoreErr("write history record", err)
	}

	if err := s.appts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("already removed: %w", ErrNotFound)
		}
		return s.mapStoreErr("delete after history copy", err)
	}

	s.publishSnapshot(ctx, appt.OwnerID)
	return nil
}

// RenameOwnerAcrossAppointments rewrites the denormalized display name on
// every active appointment of ownerID. The overwrite is idempotent, so a
// partial failure is fixed by retrying.
func (s *Service) RenameOwnerAcrossAppointments(ctx context.Context, actor domain.Identity, ownerID, newName string) (int, error) {
	if actor.ID != ownerID && actor.Role != domain.RoleAdmin {
		return 0, ErrPermissionDenied
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return 0, validationError("display name is required")
	}

	count, err := s.appts.RenameOwner(ctx, ownerID, newName)
	if err != nil {
		return 0, s.mapStoreErr("rename owner", err)
	}

	s.publishSnapshot(ctx, ownerID)
	return count, nil
}

// DetectUnacknowledgedClientCancellations claims every client cancellation
// staff have not seen yet. The mark-as-seen happens atomically with the
// read, so two staff sessions never both observe the same cancellation.
func (s *Service) DetectUnacknowledgedClientCancellations(ctx context.Context, actor domain.Identity) ([]domain.Appointment, error) {
	if !actor.Role.Staff() {
		return nil, ErrPermissionDenied
	}
	claimed, err := s.appts.ClaimUnseenClientCancellations(ctx)
	if err != nil {
		return nil, s.mapStoreErr("detect cancellations", err)
	}
	return claimed, nil
}

func (s *Service) ListForOwner(ctx context.Context, actor domain.Identity, ownerID string) ([]domain.Appointment, error) {
	if actor.ID != ownerID && !actor.Role.Staff() {
		return nil, ErrPermissionDenied
	}
	rows, err := s.appts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.mapStoreErr("list appointments", err)
	}
	return rows, nil
}

func (s *Service) ListAll(ctx context.Context, actor domain.Identity) ([]domain.Appointment, error) {
	if !actor.Role.Staff() {
		return nil, ErrPermissionDenied
	}
	rows, err := s.appts.ListAll(ctx)
	if err != nil {
		return nil, s.mapStoreErr("list appointments", err)
	}
	return rows, nil
}

func (s *Service) ListTrash(ctx context.Context, actor domain.Identity) ([]domain.TrashedAppointment, error) {
	if !actor.Role.Staff() {
		return nil, ErrPermissionDenied
	}
	rows, err := s.trash.List(ctx)
	if err != nil {
		return nil, s.mapStoreErr("list trash", err)
	}
	return rows, nil
}

// Watch opens a live subscription on ownerID's active appointments. Staff
// may watch any owner, or all owners with watch.AllOwners. The caller owns
// the subscription and must Close it when the view goes away.
func (s *Service) Watch(actor domain.Identity, ownerID string) (*watch.Subscription, error) {
	if s.hub == nil {
		return nil, errors.New("live subscriptions are not enabled")
	}
	if actor.ID != ownerID && !actor.Role.Staff() {
		return nil, ErrPermissionDenied
	}
	return s.hub.Subscribe(ownerID), nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, s.mapStoreErr("load appointment", err)
	}
	return appt, nil
}

func (s *Service) mapStoreErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// publishSnapshot re-delivers the owner's full active list to subscribers.
// Best effort: a failed read only delays the next delivery.
func (s *Service) publishSnapshot(ctx context.Context, ownerID string) {
	if s.hub == nil {
		return
	}
	rows, err := s.appts.ListByOwner(ctx, ownerID)
	if err != nil {
		return
	}
	s.hub.Publish(ownerID, rows)
}
