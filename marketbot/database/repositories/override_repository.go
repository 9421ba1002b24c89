package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

var ErrOverrideNotFound = errors.New("price override not found")

type OverrideRepository interface {
	DB() *bun.DB
	GetAll(ctx context.Context) ([]*models.PriceOverride, error)
	Upsert(ctx context.Context, override *models.PriceOverride) error
	Delete(ctx context.Context, itemID int64) error
}

type overrideRepository struct {
	db *bun.DB
}

func NewOverrideRepository(db *bun.DB) OverrideRepository {
	return &overrideRepository{db: db}
}

func (r *overrideRepository) DB() *bun.DB {
	return r.db
}

func (r *overrideRepository) GetAll(ctx context.Context) ([]*models.PriceOverride, error) {
	var overrides []*models.PriceOverride

	err := r.db.NewSelect().
		Model(&overrides).
		Order("item_id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get price overrides: %w", err)
	}
	return overrides, nil
}

func (r *overrideRepository) Upsert(ctx context.Context, override *models.PriceOverride) error {
	override.UpdatedAt = time.Now()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = override.UpdatedAt
	}

	_, err := r.db.NewInsert().
		Model(override).
		On("CONFLICT (item_id) DO UPDATE").
		Set("avg_price = EXCLUDED.avg_price").
		Set("min_price = EXCLUDED.min_price").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert price override: %w", err)
	}
	return nil
}

func (r *overrideRepository) Delete(ctx context.Context, itemID int64) error {
	result, err := r.db.NewDelete().
		Model((*models.PriceOverride)(nil)).
		Where("item_id = ?", itemID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete price override: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrOverrideNotFound
	}
	return nil
}
