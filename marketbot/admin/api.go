// Package admin exposes the operator command surface over HTTP: house
// toggles, volume limits, pricing tables, forced expiry and the price
// override book.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
)

// ConfigAdmin is the slice of the registry the API needs: reading and
// mutating persisted rows, and the live snapshot for status output.
type ConfigAdmin interface {
	HouseConfig(house engine.House) *engine.HouseConfig
	Row(ctx context.Context, houseID int32) (*models.HouseConfig, error)
	Update(ctx context.Context, houseID int32, mutate func(*models.HouseConfig)) error
	Reload(ctx context.Context) error
}

type API struct {
	app        *fiber.App
	registry   ConfigAdmin
	market     engine.Market
	listings   repositories.ListingRepository
	overrides  repositories.OverrideRepository
	items      repositories.ItemRepository
	search     *Search
	identities []int64
}

func New(registry ConfigAdmin, market engine.Market, listings repositories.ListingRepository, overrides repositories.OverrideRepository, items repositories.ItemRepository, identities []int64) *API {
	app := fiber.New(fiber.Config{
		AppName:               "marketbot-admin",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	app.Use(recover.New())

	a := &API{
		app:        app,
		registry:   registry,
		market:     market,
		listings:   listings,
		overrides:  overrides,
		items:      items,
		search:     NewSearch(items),
		identities: identities,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	api := a.app.Group("/api")

	api.Get("/status", a.handleStatus)

	houses := api.Group("/houses/:house")
	houses.Post("/seller", a.handleToggle(func(row *models.HouseConfig, on bool) { row.SellerEnabled = on }))
	houses.Post("/buyer", a.handleToggle(func(row *models.HouseConfig, on bool) { row.BuyerEnabled = on }))
	houses.Post("/marketprice", a.handleToggle(func(row *models.HouseConfig, on bool) { row.SellAtMarketPrice = on }))
	houses.Post("/minitems", a.handleSetInt(func(row *models.HouseConfig, v int) { row.MinItems = v }))
	houses.Post("/maxitems", a.handleSetInt(func(row *models.HouseConfig, v int) { row.MaxItems = v }))
	houses.Post("/percentages", a.handlePercentages)
	houses.Post("/quality-table", a.handleQualityTable)
	houses.Post("/expire", a.handleExpire)

	api.Get("/overrides", a.handleListOverrides)
	api.Put("/overrides/:item", a.handleSetOverride)
	api.Delete("/overrides/:item", a.handleDeleteOverride)

	api.Get("/items/search", a.handleSearchItems)
	api.Post("/items/:item/disabled", a.handleSetDisabled)

	api.Post("/reload", a.handleReload)
}

// Listen blocks serving the API until the context ends.
func (a *API) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.app.Listen(addr)
	}()

	slog.Info("Admin API listening", slog.String("type", "api"), slog.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.app.ShutdownWithContext(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (a *API) house(c *fiber.Ctx) (engine.House, error) {
	id, err := c.ParamsInt("house")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid house id")
	}
	house := engine.House(id)
	for _, h := range engine.Houses {
		if h == house {
			return house, nil
		}
	}
	return 0, fiber.NewError(fiber.StatusNotFound, "unknown house")
}

func (a *API) handleStatus(c *fiber.Ctx) error {
	out := fiber.Map{}
	for _, house := range engine.Houses {
		cfg := a.registry.HouseConfig(house)
		if cfg == nil {
			continue
		}
		count, err := a.listings.CountByHouse(c.Context(), int32(house))
		if err != nil {
			return err
		}
		out[house.String()] = fiber.Map{
			"seller_enabled":   cfg.SellerEnabled,
			"buyer_enabled":    cfg.BuyerEnabled,
			"listings":         count,
			"min_items":        cfg.MinTotal,
			"max_items":        cfg.MaxTotal,
			"items_per_cycle":  cfg.ItemsPerCycle,
			"min_per_bot":      engine.MinPerBot(cfg, len(a.identities)),
			"bidding_interval": cfg.BiddingInterval.String(),
		}
	}
	return c.JSON(out)
}

func (a *API) handleToggle(apply func(*models.HouseConfig, bool)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		house, err := a.house(c)
		if err != nil {
			return err
		}

		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}

		if err := a.registry.Update(c.Context(), int32(house), func(row *models.HouseConfig) {
			apply(row, req.Enabled)
		}); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"house": house.String(), "enabled": req.Enabled})
	}
}

func (a *API) handleSetInt(apply func(*models.HouseConfig, int)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		house, err := a.house(c)
		if err != nil {
			return err
		}

		var req struct {
			Value int `json:"value"`
		}
		if err := c.BodyParser(&req); err != nil || req.Value < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid value")
		}

		if err := a.registry.Update(c.Context(), int32(house), func(row *models.HouseConfig) {
			apply(row, req.Value)
		}); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"house": house.String(), "value": req.Value})
	}
}

// handlePercentages replaces the bucket listing shares. The shares must
// cover every bucket and sum to 100.
func (a *API) handlePercentages(c *fiber.Ctx) error {
	house, err := a.house(c)
	if err != nil {
		return err
	}

	var req struct {
		BucketPct []int32 `json:"bucket_pct"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if len(req.BucketPct) != engine.NumBuckets {
		return fiber.NewError(fiber.StatusBadRequest, "bucket_pct must have one entry per bucket")
	}
	var sum int32
	for _, pct := range req.BucketPct {
		if pct < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "percentages must be non-negative")
		}
		sum += pct
	}
	if sum != 100 {
		return fiber.NewError(fiber.StatusBadRequest, "percentages must sum to 100")
	}

	if err := a.registry.Update(c.Context(), int32(house), func(row *models.HouseConfig) {
		row.BucketPct = req.BucketPct
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"house": house.String(), "bucket_pct": req.BucketPct})
}

func (a *API) handleQualityTable(c *fiber.Ctx) error {
	house, err := a.house(c)
	if err != nil {
		return err
	}

	var req struct {
		Table  string  `json:"table"`
		Values []int32 `json:"values"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if len(req.Values) != engine.NumQualities {
		return fiber.NewError(fiber.StatusBadRequest, "values must have one entry per quality tier")
	}

	apply := map[string]func(*models.HouseConfig, []int32){
		"min_price_pct":    func(r *models.HouseConfig, v []int32) { r.MinPricePct = v },
		"max_price_pct":    func(r *models.HouseConfig, v []int32) { r.MaxPricePct = v },
		"min_bid_pct":      func(r *models.HouseConfig, v []int32) { r.MinBidPct = v },
		"max_bid_pct":      func(r *models.HouseConfig, v []int32) { r.MaxBidPct = v },
		"max_stack":        func(r *models.HouseConfig, v []int32) { r.MaxStack = v },
		"buyer_price_mult": func(r *models.HouseConfig, v []int32) { r.BuyerPriceMult = v },
	}
	fn, ok := apply[req.Table]
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unknown quality table")
	}

	if err := a.registry.Update(c.Context(), int32(house), func(row *models.HouseConfig) {
		fn(row, req.Values)
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"house": house.String(), "table": req.Table})
}

// handleExpire force-expires every bot-owned listing on the house; the
// next settlement sweep drains them.
func (a *API) handleExpire(c *fiber.Ctx) error {
	house, err := a.house(c)
	if err != nil {
		return err
	}

	expired, err := a.market.ExpireOwnedBy(c.Context(), house, a.identities)
	if err != nil {
		return err
	}

	slog.Info("Force-expired bot listings",
		slog.String("type", "api"),
		slog.String("house", house.String()),
		slog.Int64("count", expired))
	return c.JSON(fiber.Map{"house": house.String(), "expired": expired})
}

func (a *API) handleListOverrides(c *fiber.Ctx) error {
	overrides, err := a.overrides.GetAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(overrides)
}

func (a *API) handleSetOverride(c *fiber.Ctx) error {
	itemID, err := a.resolveItem(c)
	if err != nil {
		return err
	}

	var req struct {
		AvgPrice int64 `json:"avg_price"`
		MinPrice int64 `json:"min_price"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.AvgPrice <= 0 || req.MinPrice <= 0 || req.MinPrice > req.AvgPrice {
		return fiber.NewError(fiber.StatusBadRequest, "override requires 0 < min_price <= avg_price")
	}

	if err := a.overrides.Upsert(c.Context(), &models.PriceOverride{
		ItemID:   itemID,
		AvgPrice: req.AvgPrice,
		MinPrice: req.MinPrice,
	}); err != nil {
		return err
	}
	if err := a.registry.Reload(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item_id": itemID, "avg_price": req.AvgPrice, "min_price": req.MinPrice})
}

func (a *API) handleDeleteOverride(c *fiber.Ctx) error {
	itemID, err := a.resolveItem(c)
	if err != nil {
		return err
	}

	if err := a.overrides.Delete(c.Context(), itemID); err != nil {
		if errors.Is(err, repositories.ErrOverrideNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no override for item")
		}
		return err
	}
	if err := a.registry.Reload(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item_id": itemID, "deleted": true})
}

func (a *API) handleSearchItems(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing query")
	}

	results, err := a.search.ByName(c.Context(), query, 25)
	if err != nil {
		return err
	}
	return c.JSON(results)
}

func (a *API) handleSetDisabled(c *fiber.Ctx) error {
	itemID, err := a.resolveItem(c)
	if err != nil {
		return err
	}

	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	if err := a.items.SetDisabled(c.Context(), itemID, req.Disabled); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "unknown item")
		}
		return err
	}
	if err := a.registry.Reload(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item_id": itemID, "disabled": req.Disabled})
}

func (a *API) handleReload(c *fiber.Ctx) error {
	if err := a.registry.Reload(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reloaded": true})
}

// resolveItem accepts either a numeric template id or an item name; a
// name goes through the fuzzy search and must match unambiguously.
func (a *API) resolveItem(c *fiber.Ctx) (int64, error) {
	param := c.Params("item")
	if id, err := c.ParamsInt("item"); err == nil {
		return int64(id), nil
	}

	results, err := a.search.ByName(c.Context(), param, 2)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "no item matches")
	}
	if len(results) > 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "ambiguous item name")
	}
	return results[0].ID, nil
}
