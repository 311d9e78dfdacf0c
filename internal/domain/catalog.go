package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is a bookable catalog entry. Appointments snapshot its name and
// price at booking time, so edits here never rewrite existing bookings.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull,unique"`
	Description     string    `bun:"description"`
	PriceCents      int64     `bun:"price_cents,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull,default:30"`
	Active          bool      `bun:"active,notnull,default:true"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

// BlockedDay marks a calendar date the shop takes no bookings on.
type BlockedDay struct {
	bun.BaseModel `bun:"table:blocked_days"`

	Date      string    `bun:"date,pk"`
	Reason    string    `bun:"reason"`
	CreatedBy string    `bun:"created_by,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
