package engine

import (
	"context"
	"log/slog"
	"math/rand"
)

// Buyer runs the buy half of a bot's cycle: it walks listings owned by
// outsiders, derives a willingness-to-pay per listing and either bids
// or buys out.
type Buyer struct {
	market     Market
	catalog    Catalog
	analyzer   *Analyzer
	cfg        *HouseConfig
	rng        *rand.Rand
	botID      int64
	identities []int64
}

func NewBuyer(market Market, catalog Catalog, analyzer *Analyzer, cfg *HouseConfig, rng *rand.Rand, botID int64, identities []int64) *Buyer {
	return &Buyer{
		market:     market,
		catalog:    catalog,
		analyzer:   analyzer,
		cfg:        cfg,
		rng:        rng,
		botID:      botID,
		identities: identities,
	}
}

// BuyStats are the diagnostic counters of one buy cycle.
type BuyStats struct {
	Examined int
	Bids     int
	Buyouts  int
	Rejected int
	Errors   int
}

// Run executes one buy cycle, spending at most BidsPerInterval entries.
func (b *Buyer) Run(ctx context.Context) BuyStats {
	var stats BuyStats

	if !b.cfg.BuyerEnabled {
		slog.Debug("Buyer is disabled", slog.String("house", b.cfg.House.String()))
		return stats
	}

	listings, err := b.market.ListingsNotInvolving(ctx, b.cfg.House, b.identities)
	if err != nil {
		slog.Error("Failed to scan purchasable listings",
			slog.String("house", b.cfg.House.String()),
			slog.String("error", err.Error()))
		stats.Errors++
		return stats
	}

	// Each examined listing spends one entry of the interval budget,
	// whether or not it attracts a bid.
	budget := b.cfg.BidsPerInterval
	for i := range listings {
		if budget <= 0 {
			break
		}
		budget--
		l := &listings[i]
		stats.Examined++

		if err := b.consider(ctx, l, &stats); err != nil {
			slog.Error("Buy evaluation failed",
				slog.Int64("listing_id", l.ID),
				slog.String("error", err.Error()))
			stats.Errors++
		}
	}

	slog.Info("Buy cycle complete",
		slog.String("house", b.cfg.House.String()),
		slog.Int64("bot_id", b.botID),
		slog.Int("examined", stats.Examined),
		slog.Int("bids", stats.Bids),
		slog.Int("buyouts", stats.Buyouts),
		slog.Int("rejected", stats.Rejected))

	return stats
}

// consider evaluates one listing and acts on it.
func (b *Buyer) consider(ctx context.Context, l *Listing, stats *BuyStats) error {
	item, err := b.catalog.Instance(ctx, l)
	if err != nil {
		return err
	}

	if item.Quality > MaxQuality {
		stats.Rejected++
		return nil
	}

	// These classes circulate outside the market economy and are never
	// worth bidding on.
	switch item.Class {
	case ClassConsumable, ClassGeneric, ClassCurrency, ClassPermanent:
		stats.Rejected++
		return nil
	}

	maxPrice, err := b.maxPrice(ctx, item)
	if err != nil {
		return err
	}
	maxPrice *= int64(l.StackCount)

	current := l.CurrentPrice()
	if maxPrice <= 0 || current >= maxPrice {
		stats.Rejected++
		return nil
	}

	// Bid a random fraction of the remaining headroom, never below the
	// marketplace minimum raise.
	bid := current + (maxPrice-current)*urand(b.rng, 1, 100)/100
	if min := current + b.market.MinimumOutbid(current); bid < min {
		bid = min
	}

	if l.Buyout > 0 && bid >= l.Buyout {
		if err := b.market.BuyoutListing(ctx, l, b.botID); err != nil {
			return err
		}
		stats.Buyouts++
		slog.Debug("Bought out listing",
			slog.Int64("listing_id", l.ID),
			slog.Int64("item_id", l.ItemID),
			slog.Int64("price", l.Buyout))
		return nil
	}

	if err := b.market.PlaceBid(ctx, l, b.botID, bid); err != nil {
		return err
	}
	stats.Bids++
	slog.Debug("Placed bid",
		slog.Int64("listing_id", l.ID),
		slog.Int64("item_id", l.ItemID),
		slog.Int64("bid", bid))
	return nil
}

// maxPrice is the per-unit willingness to pay: the override average plus
// its spread over the override minimum when one is set, otherwise the
// same spread over the sale history, otherwise a multiple of the catalog
// price.
func (b *Buyer) maxPrice(ctx context.Context, item *Item) (int64, error) {
	if o, ok := b.cfg.Override(item.ID); ok {
		return o.Avg + (o.Avg - o.Min), nil
	}

	avg, min, err := b.analyzer.AverageAndMinimum(ctx, item.ID)
	if err != nil {
		return 0, err
	}
	if avg > 0 {
		return avg + (avg - min), nil
	}

	base := item.SellPrice
	if b.cfg.UseBuyPriceForBuyer {
		base = item.BuyPrice
	}
	return base * int64(b.cfg.BuyerPriceMult[item.Quality]), nil
}
