package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

type TrashRepo struct {
	db *bun.DB
}

func NewTrashRepo(db *bun.DB) *TrashRepo {
	return &TrashRepo{db: db}
}

func (r *TrashRepo) Insert(ctx context.Context, rec domain.TrashedAppointment) (domain.TrashedAppointment, error) {
	m := rec
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.TrashedAppointment{}, err
	}
	return m, nil
}

func (r *TrashRepo) Get(ctx context.Context, id uuid.UUID) (domain.TrashedAppointment, error) {
	var m domain.TrashedAppointment
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TrashedAppointment{}, store.ErrNotFound
		}
		return domain.TrashedAppointment{}, err
	}
	return m, nil
}

func (r *TrashRepo) List(ctx context.Context) ([]domain.TrashedAppointment, error) {
	var rows []domain.TrashedAppointment
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("deleted_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TrashRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.TrashedAppointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
