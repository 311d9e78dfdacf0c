package store

import (
	"context"

	"github.com/google/uuid"

	"barberagenda/internal/domain"
)

type UserStore interface {
	Create(ctx context.Context, u domain.UserProfile) (domain.UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (domain.UserProfile, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.Role) error
}

type DeviceTokenStore interface {
	Register(ctx context.Context, tok domain.DeviceToken) error
	Remove(ctx context.Context, token string) error
	ListForUser(ctx context.Context, ownerID string) ([]domain.DeviceToken, error)
	ListForRole(ctx context.Context, role domain.Role) ([]domain.DeviceToken, error)
}
