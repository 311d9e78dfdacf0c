// Package catalog manages the bookable services, the blocked-day calendar
// and slot availability. The booking entry path consults it before handing
// a creation to the lifecycle manager.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"barberagenda/internal/cache"
	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

var (
	ErrDayBlocked = errors.New("day is blocked")
	ErrSlotTaken  = errors.New("slot already booked")
)

// DefaultSlots is the shop's bookable grid, one slot per half hour.
var DefaultSlots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00", "17:30", "18:00",
}

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	catalog store.CatalogStore
	blocked store.BlockedDayStore
	appts   store.AppointmentStore
	cache   *cache.Catalog
	slots   []string
}

// NewService wires the catalog. c may be nil (no caching).
func NewService(catalog store.CatalogStore, blocked store.BlockedDayStore, appts store.AppointmentStore, c *cache.Catalog) *Service {
	return &Service{
		catalog: catalog,
		blocked: blocked,
		appts:   appts,
		cache:   c,
		slots:   DefaultSlots,
	}
}

// ListServices returns the active catalog, served from cache when warm.
func (s *Service) ListServices(ctx context.Context) ([]domain.Service, error) {
	if cached, ok := s.cache.GetServices(ctx); ok {
		return cached, nil
	}
	rows, err := s.catalog.ListServices(ctx, true)
	if err != nil {
		return nil, err
	}
	s.cache.SetServices(ctx, rows)
	return rows, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	return s.catalog.GetService(ctx, id)
}

type ServiceInput struct {
	Name            string
	Description     string
	PriceCents      int64
	DurationMinutes int
	Active          bool
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("service name is required")
	}
	if in.PriceCents < 0 {
		return validationError("price must not be negative")
	}
	if in.DurationMinutes < 0 {
		return validationError("duration must not be negative")
	}
	return nil
}

func (s *Service) CreateService(ctx context.Context, in ServiceInput) (domain.Service, error) {
	if err := in.validate(); err != nil {
		return domain.Service{}, err
	}
	created, err := s.catalog.CreateService(ctx, domain.Service{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		PriceCents:      in.PriceCents,
		DurationMinutes: in.DurationMinutes,
		Active:          in.Active,
	})
	if err != nil {
		return domain.Service{}, err
	}
	s.cache.Invalidate(ctx)
	return created, nil
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (domain.Service, error) {
	if err := in.validate(); err != nil {
		return domain.Service{}, err
	}
	current, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return domain.Service{}, err
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Description = strings.TrimSpace(in.Description)
	current.PriceCents = in.PriceCents
	current.DurationMinutes = in.DurationMinutes
	current.Active = in.Active

	updated, err := s.catalog.UpdateService(ctx, current)
	if err != nil {
		return domain.Service{}, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.DeleteService(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *Service) ListBlockedDays(ctx context.Context) ([]domain.BlockedDay, error) {
	return s.blocked.List(ctx)
}

func (s *Service) BlockDay(ctx context.Context, actor domain.Identity, date, reason string) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return validationError("date must be YYYY-MM-DD")
	}
	return s.blocked.Block(ctx, domain.BlockedDay{
		Date:      date,
		Reason:    strings.TrimSpace(reason),
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Service) UnblockDay(ctx context.Context, date string) error {
	return s.blocked.Unblock(ctx, date)
}

// CheckSlotAvailable rejects a booking on a blocked day or into a slot
// another active, non-canceled appointment already holds.
func (s *Service) CheckSlotAvailable(ctx context.Context, date, slot string) error {
	blocked, err := s.blocked.IsBlocked(ctx, date)
	if err != nil {
		return fmt.Errorf("check blocked day: %w", err)
	}
	if blocked {
		return ErrDayBlocked
	}

	taken, err := s.takenSlots(ctx, date)
	if err != nil {
		return err
	}
	if taken[slot] {
		return ErrSlotTaken
	}
	return nil
}

// AvailableSlots returns the bookable grid for date, minus taken slots.
// A blocked day has no availability at all.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	blocked, err := s.blocked.IsBlocked(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("check blocked day: %w", err)
	}
	if blocked {
		return []string{}, nil
	}

	taken, err := s.takenSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		if !taken[slot] {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *Service) takenSlots(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := s.appts.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list day bookings: %w", err)
	}
	taken := make(map[string]bool, len(rows))
	for _, a := range rows {
		if a.Status == domain.StatusCanceled {
			continue
		}
		taken[a.TimeSlot] = true
	}
	return taken, nil
}
