package market

import (
	"context"
	"errors"
	"fmt"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
)

// Catalog implements engine.Catalog over the item repository. Template
// lookups go through the repository's LRU cache.
type Catalog struct {
	items repositories.ItemRepository
}

func NewCatalog(items repositories.ItemRepository) *Catalog {
	return &Catalog{items: items}
}

func (c *Catalog) Item(ctx context.Context, templateID int64) (*engine.Item, error) {
	row, err := c.items.GetByID(ctx, templateID)
	if errors.Is(err, repositories.ErrItemNotFound) {
		return nil, fmt.Errorf("item %d: %w", templateID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toEngineItem(row), nil
}

// Instantiate materializes a fresh physical item. Templates here carry
// no per-instance state, so this is a copy of the template; it exists as
// a separate step so instantiation failures surface distinctly.
func (c *Catalog) Instantiate(ctx context.Context, templateID int64) (*engine.Item, error) {
	return c.Item(ctx, templateID)
}

func (c *Catalog) Instance(ctx context.Context, l *engine.Listing) (*engine.Item, error) {
	return c.Item(ctx, l.ItemID)
}

func toEngineItem(row *models.Item) *engine.Item {
	return &engine.Item{
		ID:        row.ID,
		Name:      row.Name,
		Quality:   engine.Quality(row.Quality),
		Class:     engine.ItemClass(row.Class),
		BuyPrice:  row.BuyPrice,
		SellPrice: row.SellPrice,
		MaxStack:  row.MaxStack,
		Disabled:  row.Disabled,
	}
}
