package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
)

// PriceModel computes the buyout/bid pair for one unit of an item from
// the static catalog price, the configured percentage ranges, optional
// administrator overrides and the market history averages.
type PriceModel struct {
	cfg      *HouseConfig
	analyzer *Analyzer
	rng      *rand.Rand
}

func NewPriceModel(cfg *HouseConfig, analyzer *Analyzer, rng *rand.Rand) *PriceModel {
	return &PriceModel{cfg: cfg, analyzer: analyzer, rng: rng}
}

// Price returns the per-unit buyout and bid price for the item. The
// caller scales both by the stack quantity. Items above the supported
// quality are rejected with ErrUnsupportedQuality.
func (m *PriceModel) Price(ctx context.Context, item *Item) (PricePair, error) {
	if item.Quality > MaxQuality {
		return PricePair{}, fmt.Errorf("item %d quality %d: %w", item.ID, item.Quality, ErrUnsupportedQuality)
	}

	var baseBuyout, baseBid int64

	override, hasOverride := m.cfg.Override(item.ID)
	if hasOverride {
		// Overrides anchor the price directly; the percentage ranges
		// do not apply.
		baseBuyout = override.Avg
		baseBid = override.Min
	} else {
		if m.cfg.SellAtMarketPrice {
			price, err := m.analyzer.MarketPrice(ctx, item.ID)
			if err != nil {
				return PricePair{}, err
			}
			baseBuyout = price
		}

		if baseBuyout == 0 {
			if m.cfg.UseBuyPriceForSeller {
				baseBuyout = item.BuyPrice
			} else {
				baseBuyout = item.SellPrice
			}
		}

		q := item.Quality
		baseBuyout = baseBuyout * urand(m.rng, int64(m.cfg.MinPricePct[q]), int64(m.cfg.MaxPricePct[q])) / 100
		baseBid = baseBuyout * urand(m.rng, int64(m.cfg.MinBidPct[q]), int64(m.cfg.MaxBidPct[q])) / 100
	}

	// Nonzero market averages replace the static baseline.
	avg, err := m.analyzer.MovingAverages(ctx, item.ID)
	if err != nil {
		return PricePair{}, err
	}
	if avg.Buyout > 0 {
		baseBuyout = avg.Buyout
	}
	if avg.Bid > 0 {
		baseBid = avg.Bid
	}

	// Independent random deviation of -10%..+10% around each baseline.
	buyoutDeviation := urand(m.rng, 0, 20) - 10
	bidDeviation := urand(m.rng, 0, 20) - 10
	buyout := baseBuyout * (100 + buyoutDeviation) / 100
	bid := baseBid * (100 + bidDeviation) / 100

	// The bid may never exceed the buyout. When it does, cap it and lift
	// the buyout by a random 1-5% so the pair stays attractive.
	if bid > buyout {
		bid = buyout
		buyout = buyout * urand(m.rng, 101, 105) / 100
	}

	if hasOverride {
		buyout = m.clamp(buyout, override)
		bid = m.clamp(bid, override)
	}

	if buyout < 0 {
		buyout = 0
	}
	if bid < 0 {
		bid = 0
	}

	slog.Debug("Computed listing price",
		slog.Int64("item_id", item.ID),
		slog.Int64("buyout", buyout),
		slog.Int64("bid", bid),
		slog.Bool("override", hasOverride))

	return PricePair{Buyout: buyout, Bid: bid}, nil
}

func (m *PriceModel) clamp(price int64, o Override) int64 {
	lo := int64(float64(o.Min) * m.cfg.MinPriceTolerance)
	hi := o.Avg * 2
	if price < lo {
		return lo
	}
	if price > hi {
		return hi
	}
	return price
}
