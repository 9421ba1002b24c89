package market

import (
	"context"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
)

// History implements engine.HistoryStore over the sale-history
// repository.
type History struct {
	history repositories.HistoryRepository
}

func NewHistory(history repositories.HistoryRepository) *History {
	return &History{history: history}
}

func (h *History) RecentByCount(ctx context.Context, itemID int64, n int) ([]engine.SaleRecord, error) {
	rows, err := h.history.RecentByCount(ctx, itemID, n)
	if err != nil {
		return nil, err
	}
	return toSaleRecords(rows), nil
}

func (h *History) RecentByDays(ctx context.Context, itemID int64, days int) ([]engine.SaleRecord, error) {
	rows, err := h.history.RecentByDays(ctx, itemID, days)
	if err != nil {
		return nil, err
	}
	return toSaleRecords(rows), nil
}

func (h *History) Append(ctx context.Context, rec *engine.SaleRecord) error {
	return h.history.Create(ctx, &models.SaleHistory{
		ItemID: rec.ItemID,
		Price:  rec.Price,
		Kind:   models.SaleKind(rec.Kind),
		SoldAt: rec.SoldAt,
	})
}

func (h *History) PruneToCount(ctx context.Context, n int) (int64, error) {
	return h.history.PruneToCount(ctx, n)
}

func (h *History) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	return h.history.PruneOlderThan(ctx, days)
}

func toSaleRecords(rows []*models.SaleHistory) []engine.SaleRecord {
	out := make([]engine.SaleRecord, len(rows))
	for i, row := range rows {
		out[i] = engine.SaleRecord{
			ItemID: row.ItemID,
			Price:  row.Price,
			Kind:   engine.SaleKind(row.Kind),
			SoldAt: row.SoldAt,
		}
	}
	return out
}
