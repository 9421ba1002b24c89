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

var ErrConfigNotFound = errors.New("house config not found")

type ConfigRepository interface {
	DB() *bun.DB
	Get(ctx context.Context, houseID int32) (*models.HouseConfig, error)
	GetAll(ctx context.Context) ([]*models.HouseConfig, error)
	Upsert(ctx context.Context, cfg *models.HouseConfig) error
}

type configRepository struct {
	db *bun.DB
}

func NewConfigRepository(db *bun.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) DB() *bun.DB {
	return r.db
}

func (r *configRepository) Get(ctx context.Context, houseID int32) (*models.HouseConfig, error) {
	cfg := new(models.HouseConfig)
	err := r.db.NewSelect().
		Model(cfg).
		Where("house_id = ?", houseID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house config: %w", err)
	}
	return cfg, nil
}

func (r *configRepository) GetAll(ctx context.Context) ([]*models.HouseConfig, error) {
	var configs []*models.HouseConfig

	err := r.db.NewSelect().
		Model(&configs).
		Order("house_id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get house configs: %w", err)
	}
	return configs, nil
}

func (r *configRepository) Upsert(ctx context.Context, cfg *models.HouseConfig) error {
	cfg.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(cfg).
		On("CONFLICT (house_id) DO UPDATE").
		Set("seller_enabled = EXCLUDED.seller_enabled").
		Set("buyer_enabled = EXCLUDED.buyer_enabled").
		Set("min_items = EXCLUDED.min_items").
		Set("max_items = EXCLUDED.max_items").
		Set("items_per_cycle = EXCLUDED.items_per_cycle").
		Set("duplicates_cap = EXCLUDED.duplicates_cap").
		Set("duration_class = EXCLUDED.duration_class").
		Set("divisible_stacks = EXCLUDED.divisible_stacks").
		Set("max_stack_size = EXCLUDED.max_stack_size").
		Set("sell_at_market_price = EXCLUDED.sell_at_market_price").
		Set("use_buy_price_for_seller = EXCLUDED.use_buy_price_for_seller").
		Set("use_buy_price_for_buyer = EXCLUDED.use_buy_price_for_buyer").
		Set("bidding_interval_mins = EXCLUDED.bidding_interval_mins").
		Set("bids_per_interval = EXCLUDED.bids_per_interval").
		Set("use_sale_count = EXCLUDED.use_sale_count").
		Set("history_count = EXCLUDED.history_count").
		Set("history_days = EXCLUDED.history_days").
		Set("filter_outliers = EXCLUDED.filter_outliers").
		Set("weight_recent = EXCLUDED.weight_recent").
		Set("min_price_tolerance = EXCLUDED.min_price_tolerance").
		Set("abort_on_error = EXCLUDED.abort_on_error").
		Set("min_price_pct = EXCLUDED.min_price_pct").
		Set("max_price_pct = EXCLUDED.max_price_pct").
		Set("min_bid_pct = EXCLUDED.min_bid_pct").
		Set("max_bid_pct = EXCLUDED.max_bid_pct").
		Set("max_stack = EXCLUDED.max_stack").
		Set("buyer_price_mult = EXCLUDED.buyer_price_mult").
		Set("bucket_pct = EXCLUDED.bucket_pct").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert house config: %w", err)
	}
	return nil
}
