package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

const (
	itemCacheSize   = 10000
	itemCacheExpiry = 10 * time.Minute
)

var ErrItemNotFound = errors.New("item not found")

type ItemRepository interface {
	DB() *bun.DB
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetAll(ctx context.Context) ([]*models.Item, error)
	GetSellable(ctx context.Context) ([]*models.Item, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) error
	InvalidateCache(id int64)
}

// cachedItem wraps a template with its fetch time so stale entries fall
// through to the database.
type cachedItem struct {
	item      *models.Item
	timestamp time.Time
}

type itemRepository struct {
	db    *bun.DB
	cache *lru.Cache
}

func NewItemRepository(db *bun.DB) ItemRepository {
	cache, _ := lru.New(itemCacheSize)
	return &itemRepository{db: db, cache: cache}
}

func (r *itemRepository) DB() *bun.DB {
	return r.db
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	cacheKey := fmt.Sprintf("item:%d", id)
	if cached, ok := r.cache.Get(cacheKey); ok {
		if c, ok := cached.(cachedItem); ok && time.Since(c.timestamp) < itemCacheExpiry {
			return c.item, nil
		}
	}

	item := new(models.Item)
	err := r.db.NewSelect().
		Model(item).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	r.cache.Add(cacheKey, cachedItem{item: item, timestamp: time.Now()})
	return item, nil
}

func (r *itemRepository) GetAll(ctx context.Context) ([]*models.Item, error) {
	var items []*models.Item

	err := r.db.NewSelect().
		Model(&items).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

// GetSellable returns every enabled template with a nonzero price, the
// pool the per-house bins are built from.
func (r *itemRepository) GetSellable(ctx context.Context) ([]*models.Item, error) {
	var items []*models.Item

	err := r.db.NewSelect().
		Model(&items).
		Where("disabled = false").
		Where("buy_price > 0 OR sell_price > 0").
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get sellable items: %w", err)
	}
	return items, nil
}

func (r *itemRepository) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	result, err := r.db.NewUpdate().
		Model((*models.Item)(nil)).
		Set("disabled = ?", disabled).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrItemNotFound
	}

	r.InvalidateCache(id)
	return nil
}

func (r *itemRepository) InvalidateCache(id int64) {
	r.cache.Remove(fmt.Sprintf("item:%d", id))
}
