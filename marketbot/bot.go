package marketbot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"marketbot/marketbot/admin"
	"marketbot/marketbot/archive"
	"marketbot/marketbot/database"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
	"marketbot/marketbot/market"
)

// Bot wires the decision engine to its marketplace, catalog and history
// backends and runs the periodic cycles.
type Bot struct {
	cfg *Config
	db  *database.DB

	listings  repositories.ListingRepository
	items     repositories.ItemRepository
	history   repositories.HistoryRepository
	overrides repositories.OverrideRepository
	configs   repositories.ConfigRepository
	cleanups  repositories.CleanupRepository
	mails     repositories.MailRepository

	store     *market.Store
	catalog   *market.Catalog
	registry  *Registry
	scheduler *engine.Scheduler
	api       *admin.API
}

func New(ctx context.Context, cfg *Config) (*Bot, error) {
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	b := &Bot{cfg: cfg, db: db}

	bunDB := db.BunDB()
	b.listings = repositories.NewListingRepository(bunDB)
	b.items = repositories.NewItemRepository(bunDB)
	b.history = repositories.NewHistoryRepository(bunDB)
	b.overrides = repositories.NewOverrideRepository(bunDB)
	b.configs = repositories.NewConfigRepository(bunDB)
	b.cleanups = repositories.NewCleanupRepository(bunDB)
	b.mails = repositories.NewMailRepository(bunDB)

	mailer := market.NewMailer(b.mails)
	b.store = market.NewStore(b.listings, b.history, mailer)
	b.catalog = market.NewCatalog(b.items)

	b.registry = NewRegistry(b.configs, b.overrides, b.items)
	if err := b.registry.Reload(ctx); err != nil {
		db.Close()
		return nil, err
	}

	var archiver engine.Archiver
	if cfg.Archive.Enabled {
		a, err := archive.New(cfg.Archive, b.history)
		if err != nil {
			db.Close()
			return nil, err
		}
		archiver = a
	}

	seed := cfg.Bot.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	b.scheduler = engine.NewScheduler(
		b.store,
		b.catalog,
		market.NewHistory(b.history),
		b.cleanups,
		b.registry,
		archiver,
		engine.SystemClock{},
		rng,
		cfg.Bot.BotIDs,
		engine.RetentionPolicy{
			KeepDays:  cfg.Bot.HistoryKeepDays,
			KeepCount: cfg.Bot.HistoryKeepCount,
		},
	)

	if cfg.Admin.Enabled {
		b.api = admin.New(b.registry, b.store, b.listings, b.overrides, b.items, cfg.Bot.BotIDs)
	}

	return b, nil
}

// Start runs the scheduler, the settlement sweep and the admin API until
// the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	cycle := time.Duration(b.cfg.Bot.CycleIntervalMins) * time.Minute
	if cycle <= 0 {
		cycle = time.Minute
	}
	sweep := time.Duration(b.cfg.Bot.SweepIntervalMins) * time.Minute
	if sweep <= 0 {
		sweep = time.Minute
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.scheduler.Run(ctx, cycle)
	})

	g.Go(func() error {
		return b.runSweep(ctx, sweep)
	})

	if b.api != nil {
		g.Go(func() error {
			return b.api.Listen(ctx, b.cfg.Admin.Addr)
		})
	}

	slog.Info("Market bot started",
		slog.Int("bots", len(b.cfg.Bot.BotIDs)),
		slog.Duration("cycle", cycle),
		slog.Duration("sweep", sweep))

	return g.Wait()
}

// runSweep settles expired listings on its own cadence so sold and
// lapsed listings clear even when the decision cycle is long.
func (b *Bot) runSweep(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := b.store.SettleExpired(ctx, time.Now()); err != nil {
				slog.Error("Settlement sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (b *Bot) Close() {
	if b.db != nil {
		b.db.Close()
	}
	slog.Info("Market bot shut down")
}
