package store

import (
	"context"

	"github.com/google/uuid"

	"barberagenda/internal/domain"
)

// AppointmentStore is the active collection. Trash and history are separate
// stores so a record is never in two collections through a single call.
type AppointmentStore interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error)
	ListAll(ctx context.Context) ([]domain.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
	MarkCanceled(ctx context.Context, id uuid.UUID, byClient bool) error
	SetStaffNote(ctx context.Context, id uuid.UUID, note string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// RenameOwner rewrites the denormalized owner display name on every
	// active appointment of ownerID and reports how many rows changed.
	RenameOwner(ctx context.Context, ownerID, newName string) (int, error)

	// ClaimUnseenClientCancellations atomically flips the staff-notified
	// flag on every client-initiated cancellation not yet acknowledged and
	// returns the claimed set. Two sequential calls never return the same
	// appointment twice.
	ClaimUnseenClientCancellations(ctx context.Context) ([]domain.Appointment, error)
}

type TrashStore interface {
	Insert(ctx context.Context, rec domain.TrashedAppointment) (domain.TrashedAppointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.TrashedAppointment, error)
	List(ctx context.Context) ([]domain.TrashedAppointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryStore is append-only; history records are never read back.
type HistoryStore interface {
	Insert(ctx context.Context, rec domain.HistoryRecord) error
}
