package admin

import (
	"context"
	"testing"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

type fakeItems struct {
	items []*models.Item
}

func (f *fakeItems) DB() *bun.DB { return nil }

func (f *fakeItems) GetByID(_ context.Context, id int64) (*models.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, nil
}

func (f *fakeItems) GetAll(_ context.Context) ([]*models.Item, error)      { return f.items, nil }
func (f *fakeItems) GetSellable(_ context.Context) ([]*models.Item, error) { return f.items, nil }
func (f *fakeItems) SetDisabled(_ context.Context, _ int64, _ bool) error  { return nil }
func (f *fakeItems) InvalidateCache(_ int64)                               {}

func TestSearchByName(t *testing.T) {
	search := NewSearch(&fakeItems{items: []*models.Item{
		{ID: 1, Name: "Copper Ore"},
		{ID: 2, Name: "Copper Bar"},
		{ID: 3, Name: "Iron Ore"},
		{ID: 4, Name: "Linen Cloth"},
	}})

	t.Run("exact name ranks first", func(t *testing.T) {
		results, err := search.ByName(context.Background(), "Copper Ore", 0)
		if err != nil {
			t.Fatalf("ByName: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("no results")
		}
		if results[0].ID != 1 {
			t.Errorf("top result = %q, want Copper Ore", results[0].Name)
		}
	})

	t.Run("partial query matches", func(t *testing.T) {
		results, err := search.ByName(context.Background(), "copp", 0)
		if err != nil {
			t.Fatalf("ByName: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		results, err := search.ByName(context.Background(), "Ore", 1)
		if err != nil {
			t.Fatalf("ByName: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
	})

	t.Run("no match", func(t *testing.T) {
		results, err := search.ByName(context.Background(), "zzzz", 0)
		if err != nil {
			t.Fatalf("ByName: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results, want 0", len(results))
		}
	})
}
