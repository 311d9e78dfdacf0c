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

type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	m := svc
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Service{}, store.ErrConflict
		}
		return domain.Service{}, err
	}
	return m, nil
}

func (r *CatalogRepo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var m domain.Service
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return m, nil
}

func (r *CatalogRepo) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	var rows []domain.Service
	q := r.db.NewSelect().Model(&rows).OrderExpr("name ASC")
	if activeOnly {
		q = q.Where("active")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	m := svc
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("name", "description", "price_cents", "duration_minutes", "active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Service{}, err
	}
	if err := requireAffected(res); err != nil {
		return domain.Service{}, err
	}
	return m, nil
}

func (r *CatalogRepo) DeleteService(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type BlockedDayRepo struct {
	db *bun.DB
}

func NewBlockedDayRepo(db *bun.DB) *BlockedDayRepo {
	return &BlockedDayRepo{db: db}
}

func (r *BlockedDayRepo) Block(ctx context.Context, day domain.BlockedDay) error {
	m := day
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (date) DO UPDATE").
		Set("reason = EXCLUDED.reason").
		Exec(ctx)
	return err
}

func (r *BlockedDayRepo) Unblock(ctx context.Context, date string) error {
	res, err := r.db.NewDelete().
		Model((*domain.BlockedDay)(nil)).
		Where("date = ?", date).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *BlockedDayRepo) IsBlocked(ctx context.Context, date string) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.BlockedDay)(nil)).
		Where("date = ?", date).
		Exists(ctx)
}

func (r *BlockedDayRepo) List(ctx context.Context) ([]domain.BlockedDay, error) {
	var rows []domain.BlockedDay
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
