package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"barberagenda/internal/domain"
)

type HistoryRepo struct {
	db *bun.DB
}

func NewHistoryRepo(db *bun.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert is the only operation: history is write-once and never read back.
func (r *HistoryRepo) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	m := rec
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	return err
}
