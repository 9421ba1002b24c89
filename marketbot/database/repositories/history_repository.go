package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

type HistoryRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, rec *models.SaleHistory) error
	CreateWithTx(ctx context.Context, tx bun.Tx, rec *models.SaleHistory) error
	RecentByCount(ctx context.Context, itemID int64, n int) ([]*models.SaleHistory, error)
	RecentByDays(ctx context.Context, itemID int64, days int) ([]*models.SaleHistory, error)
	OlderThan(ctx context.Context, cutoff time.Time) ([]*models.SaleHistory, error)
	PruneToCount(ctx context.Context, n int) (int64, error)
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}

type historyRepository struct {
	db *bun.DB
}

func NewHistoryRepository(db *bun.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) DB() *bun.DB {
	return r.db
}

func (r *historyRepository) Create(ctx context.Context, rec *models.SaleHistory) error {
	_, err := r.db.NewInsert().Model(rec).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

func (r *historyRepository) CreateWithTx(ctx context.Context, tx bun.Tx, rec *models.SaleHistory) error {
	_, err := tx.NewInsert().Model(rec).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

func (r *historyRepository) RecentByCount(ctx context.Context, itemID int64, n int) ([]*models.SaleHistory, error) {
	var records []*models.SaleHistory

	err := r.db.NewSelect().
		Model(&records).
		Where("item_id = ?", itemID).
		Order("sold_at DESC").
		Limit(n).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get sale history: %w", err)
	}
	return records, nil
}

func (r *historyRepository) RecentByDays(ctx context.Context, itemID int64, days int) ([]*models.SaleHistory, error) {
	var records []*models.SaleHistory

	err := r.db.NewSelect().
		Model(&records).
		Where("item_id = ?", itemID).
		Where("sold_at > ?", time.Now().AddDate(0, 0, -days)).
		Order("sold_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get sale history: %w", err)
	}
	return records, nil
}

func (r *historyRepository) OlderThan(ctx context.Context, cutoff time.Time) ([]*models.SaleHistory, error) {
	var records []*models.SaleHistory

	err := r.db.NewSelect().
		Model(&records).
		Where("sold_at < ?", cutoff).
		Order("sold_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get expired sale history: %w", err)
	}
	return records, nil
}

// PruneToCount deletes everything but the newest n rows across all items.
func (r *historyRepository) PruneToCount(ctx context.Context, n int) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.SaleHistory)(nil)).
		Where("id NOT IN (SELECT id FROM sale_history ORDER BY sold_at DESC LIMIT ?)", n).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to prune sale history: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (r *historyRepository) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.SaleHistory)(nil)).
		Where("sold_at < ?", time.Now().AddDate(0, 0, -days)).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to prune sale history: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
