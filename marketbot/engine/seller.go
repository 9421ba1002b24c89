package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Seller runs the sell half of a bot's cycle: it scans the house, asks
// the throttle for a quota, walks the selector's candidates and turns
// them into listings.
type Seller struct {
	market     Market
	catalog    Catalog
	pricer     *PriceModel
	cfg        *HouseConfig
	rng        *rand.Rand
	clock      Clock
	botID      int64
	identities []int64
}

func NewSeller(market Market, catalog Catalog, pricer *PriceModel, cfg *HouseConfig, rng *rand.Rand, clock Clock, botID int64, identities []int64) *Seller {
	return &Seller{
		market:     market,
		catalog:    catalog,
		pricer:     pricer,
		cfg:        cfg,
		rng:        rng,
		clock:      clock,
		botID:      botID,
		identities: identities,
	}
}

// SellStats are the diagnostic counters of one sell cycle. They inform
// the cycle log only, never control flow.
type SellStats struct {
	Requested int
	Sold      int
	EmptyBin  int
	TooMany   int
	Errors    int
}

// Run executes one sell cycle. Errors degrade to skipped work; nothing
// propagates to the scheduler.
func (s *Seller) Run(ctx context.Context) SellStats {
	var stats SellStats

	if !s.cfg.SellerEnabled {
		slog.Debug("Seller is disabled", slog.String("house", s.cfg.House.String()))
		return stats
	}

	listings, err := s.market.Listings(ctx, s.cfg.House)
	if err != nil {
		slog.Error("Failed to scan house listings",
			slog.String("house", s.cfg.House.String()),
			slog.String("error", err.Error()))
		stats.Errors++
		return stats
	}

	scan := s.scan(listings)

	quota := SellQuota(s.cfg, scan.totalBot, scan.botListings, len(s.identities))
	if quota.Skip {
		if quota.Reason == "bot at fair share" {
			stats.TooMany++
		}
		slog.Debug("Sell cycle skipped",
			slog.String("house", s.cfg.House.String()),
			slog.String("reason", quota.Reason))
		return stats
	}
	stats.Requested = quota.ListThisCycle

	selector := NewSelector(s.cfg, s.rng, scan.listed, scan.botStacks, scan.counts)

	live := scan.botListings
	for i := 0; i < quota.ListThisCycle; i++ {
		// The fair share is re-checked every iteration; other bots may
		// have listed in the meantime on a shared tick.
		if live >= quota.MaxPerBot {
			stats.TooMany++
			break
		}

		cand, ok := selector.Next()
		if !ok {
			stats.EmptyBin++
			break
		}

		if !s.listCandidate(ctx, cand, selector, &stats) && s.cfg.AbortOnError {
			// Conservative fail-fast: one catalog inconsistency ends
			// the whole remaining cycle.
			break
		}
		if stats.Sold > 0 {
			live = scan.botListings + stats.Sold
		}
	}

	slog.Info("Sell cycle complete",
		slog.String("house", s.cfg.House.String()),
		slog.Int64("bot_id", s.botID),
		slog.Int("requested", stats.Requested),
		slog.Int("sold", stats.Sold),
		slog.Int("empty_bin", stats.EmptyBin),
		slog.Int("too_many", stats.TooMany),
		slog.Int("errors", stats.Errors))

	return stats
}

// listCandidate prices and publishes a single candidate. It reports
// false on a catalog inconsistency so the caller can apply the
// abort-on-error policy.
func (s *Seller) listCandidate(ctx context.Context, cand Candidate, selector *Selector, stats *SellStats) bool {
	item, err := s.catalog.Item(ctx, cand.ItemID)
	if err != nil {
		slog.Error("Could not resolve item template",
			slog.Int64("item_id", cand.ItemID),
			slog.String("error", err.Error()))
		stats.Errors++
		return false
	}

	instance, err := s.catalog.Instantiate(ctx, cand.ItemID)
	if err != nil {
		slog.Error("Could not instantiate item",
			slog.Int64("item_id", cand.ItemID),
			slog.String("error", err.Error()))
		stats.Errors++
		return false
	}

	if item.Quality > MaxQuality {
		slog.Error("Item quality not supported",
			slog.Int64("item_id", item.ID),
			slog.Int("quality", int(item.Quality)))
		stats.Errors++
		return false
	}

	stack := s.stackSize(item, instance)

	price, err := s.pricer.Price(ctx, item)
	if err != nil {
		slog.Error("Price computation failed",
			slog.Int64("item_id", item.ID),
			slog.String("error", err.Error()))
		stats.Errors++
		return false
	}

	duration := s.listingDuration()
	listing := &Listing{
		HouseID:    s.cfg.House,
		ItemID:     item.ID,
		Owner:      s.botID,
		StartBid:   price.Bid * int64(stack),
		Buyout:     price.Buyout * int64(stack),
		Deposit:    s.market.Deposit(item, duration, stack),
		StackCount: stack,
		ExpiresAt:  s.clock.Now().Add(duration),
	}

	if err := s.market.CreateListing(ctx, listing); err != nil {
		slog.Error("Failed to create listing",
			slog.Int64("item_id", item.ID),
			slog.String("error", err.Error()))
		stats.Errors++
		return false
	}

	selector.Commit(cand)
	stats.Sold++

	slog.Debug("Listed item",
		slog.String("house", s.cfg.House.String()),
		slog.Int64("item_id", item.ID),
		slog.Int("stack", int(stack)),
		slog.Int64("start_bid", listing.StartBid),
		slog.Int64("buyout", listing.Buyout))

	return true
}

// stackSize picks the stack quantity for a listing. The per-quality cap
// bounds the pseudo-random stack count; a cap of zero means only the
// item's natural maximum applies.
func (s *Seller) stackSize(item *Item, instance *Item) int32 {
	maxStack := instance.MaxStack
	capQ := s.cfg.MaxStack[item.Quality]

	switch {
	case capQ > 1 && maxStack > 1:
		n := s.stackCount(maxStack)
		if n > capQ {
			n = capQ
		}
		return n
	case capQ == 0 && maxStack > 1:
		return s.stackCount(maxStack)
	default:
		return 1
	}
}

// stackCount organizes stacks in a pseudo-random way, preferring
// divisors of the item's maximum (multiples of 5, 4 or 3) over a pure
// uniform draw, to mimic realistic lot sizes.
func (s *Seller) stackCount(max int32) int32 {
	if max == 1 {
		return 1
	}

	limit := max
	if s.cfg.MaxStackSize > 0 && s.cfg.MaxStackSize < limit {
		limit = s.cfg.MaxStackSize
	}

	if s.cfg.DivisibleStacks {
		var n int32
		switch {
		case max%5 == 0:
			n = int32(urand(s.rng, 1, 4)) * 5
		case max%4 == 0:
			n = int32(urand(s.rng, 1, 4)) * 4
		case max%3 == 0:
			n = int32(urand(s.rng, 1, 3)) * 3
		default:
			n = int32(urand(s.rng, 1, int64(limit)))
		}
		if n > limit {
			n = limit
		}
		return n
	}

	return int32(urand(s.rng, 1, int64(limit)))
}

// listingDuration draws from the configured duration class: short is
// 10-50 minutes, medium 1-23 hours, long 1-3 days.
func (s *Seller) listingDuration() time.Duration {
	switch s.cfg.DurationClass {
	case DurationShort:
		return time.Duration(urand(s.rng, 1, 5)*600) * time.Second
	case DurationMedium:
		return time.Duration(urand(s.rng, 1, 23)) * time.Hour
	default:
		return time.Duration(urand(s.rng, 1, 3)) * 24 * time.Hour
	}
}

// cycleScan is the fresh market snapshot a sell cycle works from.
type cycleScan struct {
	listed      map[int64]bool
	botStacks   map[int64]int32
	counts      [NumBuckets]int32
	totalBot    int
	botListings int
}

func (s *Seller) scan(listings []Listing) cycleScan {
	scan := cycleScan{
		listed:    make(map[int64]bool),
		botStacks: make(map[int64]int32),
	}

	bucketOf := make(map[int64]int)
	for b, bin := range s.cfg.Bins {
		for _, id := range bin {
			bucketOf[id] = b
		}
	}

	recognized := make(map[int64]bool, len(s.identities))
	for _, id := range s.identities {
		recognized[id] = true
	}

	for i := range listings {
		l := &listings[i]
		scan.listed[l.ItemID] = true
		if !recognized[l.Owner] {
			continue
		}
		scan.totalBot++
		if b, ok := bucketOf[l.ItemID]; ok {
			scan.counts[b]++
		}
		if l.Owner == s.botID {
			scan.botListings++
			scan.botStacks[l.ItemID]++
		}
	}

	return scan
}
