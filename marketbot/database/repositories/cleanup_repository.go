package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

// cleanupRowID pins the single-row cleanup_state table.
const cleanupRowID = 1

type CleanupRepository interface {
	DB() *bun.DB
	LastCleanup(ctx context.Context) (time.Time, error)
	SetLastCleanup(ctx context.Context, t time.Time) error
}

type cleanupRepository struct {
	db *bun.DB
}

func NewCleanupRepository(db *bun.DB) CleanupRepository {
	return &cleanupRepository{db: db}
}

func (r *cleanupRepository) DB() *bun.DB {
	return r.db
}

func (r *cleanupRepository) LastCleanup(ctx context.Context) (time.Time, error) {
	state := new(models.CleanupState)
	err := r.db.NewSelect().
		Model(state).
		Where("id = ?", cleanupRowID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		// Never cleaned: the zero time makes the first pass run now.
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get cleanup state: %w", err)
	}
	return state.LastCleanup, nil
}

func (r *cleanupRepository) SetLastCleanup(ctx context.Context, t time.Time) error {
	state := &models.CleanupState{ID: cleanupRowID, LastCleanup: t}

	_, err := r.db.NewInsert().
		Model(state).
		On("CONFLICT (id) DO UPDATE").
		Set("last_cleanup = EXCLUDED.last_cleanup").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set cleanup state: %w", err)
	}
	return nil
}
