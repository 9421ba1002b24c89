package marketbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
)

// Registry owns the live per-house engine configuration. It assembles
// immutable engine.HouseConfig snapshots from the persisted config rows,
// the price overrides and the item catalog, and swaps them atomically so
// a running cycle never sees a half-applied admin edit.
type Registry struct {
	configs   repositories.ConfigRepository
	overrides repositories.OverrideRepository
	items     repositories.ItemRepository

	snapshot atomic.Pointer[map[engine.House]*engine.HouseConfig]
}

func NewRegistry(configs repositories.ConfigRepository, overrides repositories.OverrideRepository, items repositories.ItemRepository) *Registry {
	return &Registry{configs: configs, overrides: overrides, items: items}
}

// HouseConfig returns the current snapshot for a house, or nil before
// the first Reload.
func (r *Registry) HouseConfig(house engine.House) *engine.HouseConfig {
	snap := r.snapshot.Load()
	if snap == nil {
		return nil
	}
	return (*snap)[house]
}

// Reload rebuilds every house snapshot from the database. Missing config
// rows fall back to defaults with both sides disabled.
func (r *Registry) Reload(ctx context.Context) error {
	overrideRows, err := r.overrides.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load price overrides: %w", err)
	}
	overrides := make(map[int64]engine.Override, len(overrideRows))
	for _, row := range overrideRows {
		overrides[row.ItemID] = engine.Override{Avg: row.AvgPrice, Min: row.MinPrice}
	}

	items, err := r.items.GetSellable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sellable items: %w", err)
	}

	snap := make(map[engine.House]*engine.HouseConfig, len(engine.Houses))
	for _, house := range engine.Houses {
		row, err := r.Row(ctx, int32(house))
		if err != nil {
			return err
		}
		snap[house] = buildHouseConfig(row, overrides, items)
	}

	r.snapshot.Store(&snap)
	slog.Info("House configuration reloaded",
		slog.Int("overrides", len(overrides)),
		slog.Int("sellable_items", len(items)))
	return nil
}

// Row returns the persisted config row for a house, or defaults when
// none exists yet.
func (r *Registry) Row(ctx context.Context, houseID int32) (*models.HouseConfig, error) {
	row, err := r.configs.Get(ctx, houseID)
	if err == nil {
		return row, nil
	}
	if errors.Is(err, repositories.ErrConfigNotFound) {
		return DefaultHouseConfig(houseID), nil
	}
	return nil, err
}

// Update applies a mutation to a house's persisted row and reloads the
// snapshots so the next cycle picks it up.
func (r *Registry) Update(ctx context.Context, houseID int32, mutate func(*models.HouseConfig)) error {
	row, err := r.Row(ctx, houseID)
	if err != nil {
		return err
	}
	mutate(row)
	if err := r.configs.Upsert(ctx, row); err != nil {
		return err
	}
	return r.Reload(ctx)
}

// DefaultHouseConfig is the row used for a house that was never
// configured: everything off, but with the stock percentage tables so
// enabling the house is a single toggle.
func DefaultHouseConfig(houseID int32) *models.HouseConfig {
	return &models.HouseConfig{
		HouseID:             houseID,
		SellerEnabled:       false,
		BuyerEnabled:        false,
		MinItems:            0,
		MaxItems:            0,
		ItemsPerCycle:       75,
		DuplicatesCap:       1,
		DurationClass:       int32(engine.DurationLong),
		DivisibleStacks:     true,
		MaxStackSize:        0,
		BiddingIntervalMins: 60,
		BidsPerInterval:     1,
		HistoryCount:        50,
		HistoryDays:         30,
		FilterOutliers:      true,
		MinPriceTolerance:   1.0,
		AbortOnError:        true,
		MinPricePct:         []int32{100, 150, 150, 200, 250, 300, 400},
		MaxPricePct:         []int32{150, 250, 250, 300, 350, 400, 500},
		MinBidPct:           []int32{70, 70, 70, 70, 70, 70, 70},
		MaxBidPct:           []int32{100, 100, 100, 100, 100, 100, 100},
		MaxStack:            []int32{0, 0, 0, 0, 0, 0, 0},
		BuyerPriceMult:      []int32{1, 1, 5, 12, 35, 170, 550},
		BucketPct: []int32{
			0, 0, // poor
			10, 27, // common
			30, 12, // uncommon
			8, 10, // rare
			2, 1, // epic
			0, 0, // legendary
			0, 0, // artifact
		},
	}
}

func buildHouseConfig(row *models.HouseConfig, overrides map[int64]engine.Override, items []*models.Item) *engine.HouseConfig {
	cfg := &engine.HouseConfig{
		House: engine.House(row.HouseID),

		SellerEnabled: row.SellerEnabled,
		BuyerEnabled:  row.BuyerEnabled,

		MinTotal:      row.MinItems,
		MaxTotal:      row.MaxItems,
		ItemsPerCycle: row.ItemsPerCycle,
		DuplicatesCap: row.DuplicatesCap,

		DurationClass:   engine.DurationClass(row.DurationClass),
		DivisibleStacks: row.DivisibleStacks,
		MaxStackSize:    row.MaxStackSize,

		SellAtMarketPrice:    row.SellAtMarketPrice,
		UseBuyPriceForSeller: row.UseBuyPriceForSeller,
		UseBuyPriceForBuyer:  row.UseBuyPriceForBuyer,

		BiddingInterval: time.Duration(row.BiddingIntervalMins) * time.Minute,
		BidsPerInterval: row.BidsPerInterval,

		UseSaleCount:   row.UseSaleCount,
		HistoryCount:   row.HistoryCount,
		HistoryDays:    row.HistoryDays,
		FilterOutliers: row.FilterOutliers,
		WeightRecent:   row.WeightRecent,

		MinPriceTolerance: row.MinPriceTolerance,
		AbortOnError:      row.AbortOnError,

		MinPricePct:    qualityTable(row.MinPricePct),
		MaxPricePct:    qualityTable(row.MaxPricePct),
		MinBidPct:      qualityTable(row.MinBidPct),
		MaxBidPct:      qualityTable(row.MaxBidPct),
		MaxStack:       qualityTable(row.MaxStack),
		BuyerPriceMult: qualityTable(row.BuyerPriceMult),

		Overrides: overrides,
	}

	for i, pct := range row.BucketPct {
		if i >= engine.NumBuckets {
			break
		}
		cfg.BucketPct[i] = pct
	}
	cfg.CalculateCaps()

	// Only tradable classes enter the selling pool; the rest circulate
	// outside the market.
	for _, it := range items {
		q := engine.Quality(it.Quality)
		class := engine.ItemClass(it.Class)
		if q > engine.MaxQuality {
			continue
		}
		if class != engine.ClassItem && class != engine.ClassTradeGood {
			continue
		}
		b := engine.BucketIndex(q, engine.KindOf(&engine.Item{Class: class}))
		cfg.Bins[b] = append(cfg.Bins[b], it.ID)
	}

	return cfg
}

func qualityTable(src []int32) engine.QualityTable {
	var t engine.QualityTable
	for i := 0; i < len(t) && i < len(src); i++ {
		t[i] = src[i]
	}
	return t
}
