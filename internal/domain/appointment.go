package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

// Appointment is a booking in the active collection. Service name and price
// are denormalized at booking time; OwnerName is rewritten by the fan-out
// rename when the owner edits their profile.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID                uuid.UUID `bun:"id,pk,type:uuid"`
	OwnerID           string    `bun:"owner_id,notnull"`
	OwnerName         string    `bun:"owner_name,notnull"`
	OwnerEmail        string    `bun:"owner_email,notnull"`
	ServiceName       string    `bun:"service_name,notnull"`
	ServicePriceCents int64     `bun:"service_price_cents,notnull"`
	Date              string    `bun:"date,notnull"`
	TimeSlot          string    `bun:"time_slot,notnull"`
	ScheduledAt       time.Time `bun:"scheduled_at,notnull"`
	Status            Status    `bun:"status,notnull"`
	CanceledByClient  bool      `bun:"canceled_by_client,notnull,default:false"`
	StaffNotified     bool      `bun:"staff_notified,notnull,default:false"`
	ClientNote        string    `bun:"client_note"`
	StaffNote         string    `bun:"staff_note"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// ScheduleTime derives the sortable timestamp from a calendar date and a
// time-of-day slot token, interpreted in the shop's time zone.
func ScheduleTime(date, slot string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+SlotLayout, date+" "+slot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/slot %q %q: %w", date, slot, err)
	}
	return t.UTC(), nil
}

// Past reports whether the appointment's slot has already gone by.
func (a Appointment) Past(now time.Time) bool {
	return a.ScheduledAt.Before(now)
}

// Terminal reports whether the appointment is past normal scheduling:
// a terminal status, or a slot already in the past.
func (a Appointment) Terminal(now time.Time) bool {
	return a.Status.Terminal() || a.Past(now)
}
