package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// ConfigSource yields the live configuration for a house. Implementations
// return immutable snapshots; the scheduler fetches a fresh one per tick
// so admin edits take effect on the next cycle.
type ConfigSource interface {
	HouseConfig(house House) *HouseConfig
}

// Archiver exports history rows that are about to fall out of retention.
// A nil archiver disables the export.
type Archiver interface {
	Archive(ctx context.Context, olderThan time.Time) error
}

// RetentionPolicy bounds the sale-history ledger. Zero values disable the
// corresponding prune.
type RetentionPolicy struct {
	KeepDays  int
	KeepCount int
}

// cleanupInterval is how often the retention pass may run. The timestamp
// of the last run is persisted so restarts do not reset the gate.
const cleanupInterval = 24 * time.Hour

// Scheduler drives the decision cycles across all houses: one sell pass
// per bot per tick, a buy pass per house whenever its bidding interval
// has elapsed, and the daily retention pass.
type Scheduler struct {
	market     Market
	catalog    Catalog
	history    HistoryStore
	cleanups   CleanupStore
	configs    ConfigSource
	archiver   Archiver
	clock      Clock
	rng        *rand.Rand
	identities []int64
	retention  RetentionPolicy

	lastBuy map[House]time.Time
}

func NewScheduler(market Market, catalog Catalog, history HistoryStore, cleanups CleanupStore, configs ConfigSource, archiver Archiver, clock Clock, rng *rand.Rand, identities []int64, retention RetentionPolicy) *Scheduler {
	return &Scheduler{
		market:     market,
		catalog:    catalog,
		history:    history,
		cleanups:   cleanups,
		configs:    configs,
		archiver:   archiver,
		clock:      clock,
		rng:        rng,
		identities: identities,
		retention:  retention,
		lastBuy:    make(map[House]time.Time),
	}
}

// Run ticks the scheduler on the given cadence until the context ends.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	slog.Info("Market bot scheduler started",
		slog.Duration("interval", every),
		slog.Int("bots", len(s.identities)))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Market bot scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one full pass over every house, then the retention gate.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, house := range Houses {
		cfg := s.configs.HouseConfig(house)
		if cfg == nil {
			continue
		}
		s.runHouse(ctx, house, cfg)
	}
	s.maybeCleanup(ctx)
}

func (s *Scheduler) runHouse(ctx context.Context, house House, cfg *HouseConfig) {
	analyzer := NewAnalyzer(s.history, cfg)
	pricer := NewPriceModel(cfg, analyzer, s.rng)

	if cfg.SellerEnabled {
		for _, botID := range s.identities {
			seller := NewSeller(s.market, s.catalog, pricer, cfg, s.rng, s.clock, botID, s.identities)
			seller.Run(ctx)
		}
	}

	// A zero bid quota means the buy phase is off: the interval clock
	// must not advance, so raising the quota takes effect immediately.
	if !cfg.BuyerEnabled || cfg.BidsPerInterval <= 0 {
		return
	}
	now := s.clock.Now()
	if last, ok := s.lastBuy[house]; ok && now.Sub(last) < cfg.BiddingInterval {
		return
	}

	// Any bot identity works for buying; pick one at random so purchase
	// history does not concentrate on a single name.
	botID := s.identities[urand(s.rng, 0, int64(len(s.identities)-1))]
	buyer := NewBuyer(s.market, s.catalog, analyzer, cfg, s.rng, botID, s.identities)
	buyer.Run(ctx)
	s.lastBuy[house] = now
}

// maybeCleanup runs the retention pass at most once per cleanupInterval.
// When the archiver fails, pruning is skipped so no unexported rows are
// lost; the gate stays open and the next tick retries.
func (s *Scheduler) maybeCleanup(ctx context.Context) {
	last, err := s.cleanups.LastCleanup(ctx)
	if err != nil {
		slog.Error("Failed to load last cleanup timestamp", slog.String("error", err.Error()))
		return
	}

	now := s.clock.Now()
	if now.Sub(last) < cleanupInterval {
		return
	}

	if s.retention.KeepDays > 0 {
		cutoff := now.AddDate(0, 0, -s.retention.KeepDays)
		if s.archiver != nil {
			if err := s.archiver.Archive(ctx, cutoff); err != nil {
				slog.Error("History archive failed, keeping rows", slog.String("error", err.Error()))
				return
			}
		}
		deleted, err := s.history.PruneOlderThan(ctx, s.retention.KeepDays)
		if err != nil {
			slog.Error("History prune by age failed", slog.String("error", err.Error()))
			return
		}
		if deleted > 0 {
			slog.Info("Pruned sale history by age",
				slog.Int64("deleted", deleted),
				slog.Int("keep_days", s.retention.KeepDays))
		}
	}

	if s.retention.KeepCount > 0 {
		deleted, err := s.history.PruneToCount(ctx, s.retention.KeepCount)
		if err != nil {
			slog.Error("History prune by count failed", slog.String("error", err.Error()))
			return
		}
		if deleted > 0 {
			slog.Info("Pruned sale history by count",
				slog.Int64("deleted", deleted),
				slog.Int("keep_count", s.retention.KeepCount))
		}
	}

	if err := s.cleanups.SetLastCleanup(ctx, now); err != nil {
		slog.Error("Failed to persist cleanup timestamp", slog.String("error", err.Error()))
	}
}
