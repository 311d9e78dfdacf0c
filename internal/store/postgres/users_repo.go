package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.UserProfile) (domain.UserProfile, error) {
	m := u
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.UserProfile{}, store.ErrConflict
		}
		return domain.UserProfile{}, err
	}
	return m, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.UserProfile, error) {
	var m domain.UserProfile
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, store.ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	return m, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	var m domain.UserProfile
	err := r.db.NewSelect().
		Model(&m).
		Where("lower(email) = lower(?)", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, store.ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	return m, nil
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	res, err := r.db.NewUpdate().
		Model((*domain.UserProfile)(nil)).
		Set("display_name = ?", name).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	res, err := r.db.NewUpdate().
		Model((*domain.UserProfile)(nil)).
		Set("role = ?", role).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type DeviceTokenRepo struct {
	db *bun.DB
}

func NewDeviceTokenRepo(db *bun.DB) *DeviceTokenRepo {
	return &DeviceTokenRepo{db: db}
}

func (r *DeviceTokenRepo) Register(ctx context.Context, tok domain.DeviceToken) error {
	m := tok
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (token) DO UPDATE").
		Set("owner_id = EXCLUDED.owner_id").
		Set("platform = EXCLUDED.platform").
		Exec(ctx)
	return err
}

func (r *DeviceTokenRepo) Remove(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*domain.DeviceToken)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

func (r *DeviceTokenRepo) ListForUser(ctx context.Context, ownerID string) ([]domain.DeviceToken, error) {
	var rows []domain.DeviceToken
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DeviceTokenRepo) ListForRole(ctx context.Context, role domain.Role) ([]domain.DeviceToken, error) {
	var rows []domain.DeviceToken
	err := r.db.NewSelect().
		Model(&rows).
		Join("JOIN users AS u ON u.id::text = device_token.owner_id").
		Where("u.role = ?", role).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
