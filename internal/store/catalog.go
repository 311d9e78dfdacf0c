package store

import (
	"context"

	"github.com/google/uuid"

	"barberagenda/internal/domain"
)

type CatalogStore interface {
	CreateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

type BlockedDayStore interface {
	Block(ctx context.Context, day domain.BlockedDay) error
	Unblock(ctx context.Context, date string) error
	IsBlocked(ctx context.Context, date string) (bool, error)
	List(ctx context.Context) ([]domain.BlockedDay, error)
}
