package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TrashedAppointment is a soft-deleted copy of an appointment. It keeps the
// original id as a foreign key so a restore preserves referential continuity,
// but the record itself has a new storage identity.
type TrashedAppointment struct {
	bun.BaseModel `bun:"table:trashed_appointments"`

	ID                uuid.UUID `bun:"id,pk,type:uuid"`
	OriginalID        uuid.UUID `bun:"original_id,notnull,type:uuid"`
	OwnerID           string    `bun:"owner_id,notnull"`
	OwnerName         string    `bun:"owner_name,notnull"`
	OwnerEmail        string    `bun:"owner_email,notnull"`
	ServiceName       string    `bun:"service_name,notnull"`
	ServicePriceCents int64     `bun:"service_price_cents,notnull"`
	Date              string    `bun:"date,notnull"`
	TimeSlot          string    `bun:"time_slot,notnull"`
	ScheduledAt       time.Time `bun:"scheduled_at,notnull"`
	Status            Status    `bun:"status,notnull"`
	CanceledByClient  bool      `bun:"canceled_by_client,notnull"`
	StaffNotified     bool      `bun:"staff_notified,notnull"`
	ClientNote        string    `bun:"client_note"`
	StaffNote         string    `bun:"staff_note"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	DeletedAt         time.Time `bun:"deleted_at,notnull"`
}

func (t *TrashedAppointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if t.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			t.ID = id
		}
		if t.DeletedAt.IsZero() {
			t.DeletedAt = time.Now().UTC()
		}
	}
	return nil
}

// Trash copies an active appointment into its trash representation.
func Trash(a Appointment, deletedAt time.Time) TrashedAppointment {
	return TrashedAppointment{
		OriginalID:        a.ID,
		OwnerID:           a.OwnerID,
		OwnerName:         a.OwnerName,
		OwnerEmail:        a.OwnerEmail,
		ServiceName:       a.ServiceName,
		ServicePriceCents: a.ServicePriceCents,
		Date:              a.Date,
		TimeSlot:          a.TimeSlot,
		ScheduledAt:       a.ScheduledAt,
		Status:            a.Status,
		CanceledByClient:  a.CanceledByClient,
		StaffNotified:     a.StaffNotified,
		ClientNote:        a.ClientNote,
		StaffNote:         a.StaffNote,
		CreatedAt:         a.CreatedAt,
		DeletedAt:         deletedAt,
	}
}

// Restored strips the trash-only fields and yields a fresh active record.
// The zero ID makes the store assign a new identity on insert.
func (t TrashedAppointment) Restored() Appointment {
	return Appointment{
		OwnerID:           t.OwnerID,
		OwnerName:         t.OwnerName,
		OwnerEmail:        t.OwnerEmail,
		ServiceName:       t.ServiceName,
		ServicePriceCents: t.ServicePriceCents,
		Date:              t.Date,
		TimeSlot:          t.TimeSlot,
		ScheduledAt:       t.ScheduledAt,
		Status:            t.Status,
		CanceledByClient:  t.CanceledByClient,
		StaffNotified:     t.StaffNotified,
		ClientNote:        t.ClientNote,
		StaffNote:         t.StaffNote,
		CreatedAt:         t.CreatedAt,
	}
}

// HistoryRecord is the append-only copy written when an owner purges a
// terminal appointment from their personal view. It is never read back.
type HistoryRecord struct {
	bun.BaseModel `bun:"table:appointment_history"`

	ID                uuid.UUID `bun:"id,pk,type:uuid"`
	OriginalID        uuid.UUID `bun:"original_id,notnull,type:uuid"`
	OwnerID           string    `bun:"owner_id,notnull"`
	OwnerName         string    `bun:"owner_name,notnull"`
	ServiceName       string    `bun:"service_name,notnull"`
	ServicePriceCents int64     `bun:"service_price_cents,notnull"`
	Date              string    `bun:"date,notnull"`
	TimeSlot          string    `bun:"time_slot,notnull"`
	Status            Status    `bun:"status,notnull"`
	RemovedBy         string    `bun:"removed_by,notnull"`
	RemovedAt         time.Time `bun:"removed_at,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

func (h *HistoryRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if h.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			h.ID = id
		}
		if h.RemovedAt.IsZero() {
			h.RemovedAt = time.Now().UTC()
		}
	}
	return nil
}

// History builds the terminal copy of an appointment removed by removedBy.
func History(a Appointment, removedBy string, removedAt time.Time) HistoryRecord {
	return HistoryRecord{
		OriginalID:        a.ID,
		OwnerID:           a.OwnerID,
		OwnerName:         a.OwnerName,
		ServiceName:       a.ServiceName,
		ServicePriceCents: a.ServicePriceCents,
		Date:              a.Date,
		TimeSlot:          a.TimeSlot,
		Status:            a.Status,
		RemovedBy:         removedBy,
		RemovedAt:         removedAt,
		CreatedAt:         a.CreatedAt,
	}
}
