package admin

import (
	"context"

	"github.com/sahilm/fuzzy"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
)

// itemSource implements fuzzy.Source over the item catalog.
type itemSource []*models.Item

func (s itemSource) Len() int            { return len(s) }
func (s itemSource) String(i int) string { return s[i].Name }

// Search resolves item names to templates for the admin surface, so an
// operator can say "Copper Ore" instead of quoting a numeric id.
type Search struct {
	items repositories.ItemRepository
}

func NewSearch(items repositories.ItemRepository) *Search {
	return &Search{items: items}
}

// ByName returns the best-matching templates for a query, most relevant
// first.
func (s *Search) ByName(ctx context.Context, query string, limit int) ([]*models.Item, error) {
	all, err := s.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, itemSource(all))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]*models.Item, len(matches))
	for i, match := range matches {
		results[i] = all[match.Index]
	}
	return results, nil
}
