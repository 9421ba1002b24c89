package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Analyzer computes moving-average buyout and bid prices for an item from
// the recent completed-sale history, with optional outlier filtering and
// recency weighting.
type Analyzer struct {
	history HistoryStore
	cfg     *HouseConfig
}

func NewAnalyzer(history HistoryStore, cfg *HouseConfig) *Analyzer {
	return &Analyzer{history: history, cfg: cfg}
}

// MovingAverages returns the averaged buyout and bid price for an item.
// A zero component means "no data, apply no adjustment".
func (a *Analyzer) MovingAverages(ctx context.Context, itemID int64) (PricePair, error) {
	var (
		records []SaleRecord
		err     error
	)

	if a.cfg.UseSaleCount {
		records, err = a.history.RecentByCount(ctx, itemID, a.cfg.HistoryCount)
	} else {
		records, err = a.history.RecentByDays(ctx, itemID, a.cfg.HistoryDays)
	}
	if err != nil {
		return PricePair{}, fmt.Errorf("failed to fetch sale history: %w", err)
	}

	// Records arrive newest-first; split into the two settlement series.
	var buyouts, bids []int64
	for _, rec := range records {
		switch rec.Kind {
		case SaleBuyout:
			buyouts = append(buyouts, rec.Price)
		case SaleBid:
			bids = append(bids, rec.Price)
		}
	}

	if a.cfg.FilterOutliers {
		buyouts = filterOutliers(buyouts)
		bids = filterOutliers(bids)
	}

	avg := PricePair{
		Buyout: a.average(buyouts),
		Bid:    a.average(bids),
	}

	if o, ok := a.cfg.Override(itemID); ok {
		avg.Buyout = a.clampToOverride(avg.Buyout, o)
		avg.Bid = a.clampToOverride(avg.Bid, o)
	}

	slog.Debug("Computed moving averages",
		slog.Int64("item_id", itemID),
		slog.Int("samples", len(records)),
		slog.Int64("avg_buyout", avg.Buyout),
		slog.Int64("avg_bid", avg.Bid))

	return avg, nil
}

// MarketPrice is the current market estimate for one unit of an item,
// used by the seller when SellAtMarketPrice is enabled. Zero means the
// item has no usable sale history.
func (a *Analyzer) MarketPrice(ctx context.Context, itemID int64) (int64, error) {
	avg, err := a.MovingAverages(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return avg.Buyout, nil
}

// AverageAndMinimum returns the averaged buyout price together with the
// lowest buyout in the same window, both after outlier filtering. The
// buyer derives its willingness to pay from the spread between the two.
func (a *Analyzer) AverageAndMinimum(ctx context.Context, itemID int64) (avg, min int64, err error) {
	var records []SaleRecord
	if a.cfg.UseSaleCount {
		records, err = a.history.RecentByCount(ctx, itemID, a.cfg.HistoryCount)
	} else {
		records, err = a.history.RecentByDays(ctx, itemID, a.cfg.HistoryDays)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch sale history: %w", err)
	}

	var buyouts []int64
	for _, rec := range records {
		if rec.Kind == SaleBuyout {
			buyouts = append(buyouts, rec.Price)
		}
	}
	if a.cfg.FilterOutliers {
		buyouts = filterOutliers(buyouts)
	}
	if len(buyouts) == 0 {
		return 0, 0, nil
	}

	min = buyouts[0]
	for _, p := range buyouts[1:] {
		if p < min {
			min = p
		}
	}
	avg = a.average(buyouts)

	if o, ok := a.cfg.Override(itemID); ok {
		avg = a.clampToOverride(avg, o)
		min = a.clampToOverride(min, o)
	}

	return avg, min, nil
}

// average reduces a series, newest-first, to its (optionally
// recency-weighted) mean. Empty series average to zero.
func (a *Analyzer) average(prices []int64) int64 {
	if len(prices) == 0 {
		return 0
	}

	if a.cfg.WeightRecent {
		// Oldest entry carries weight 1, rising toward the most recent.
		var weighted, totalWeight int64
		weight := int64(1)
		for i := len(prices) - 1; i >= 0; i-- {
			weighted += prices[i] * weight
			totalWeight += weight
			weight++
		}
		return weighted / totalWeight
	}

	var total int64
	for _, p := range prices {
		total += p
	}
	return total / int64(len(prices))
}

// clampToOverride bounds a nonzero average inside
// [Min*tolerance, Avg*2]. Zero passes through untouched so the caller
// still sees "no data".
func (a *Analyzer) clampToOverride(price int64, o Override) int64 {
	if price == 0 {
		return 0
	}
	lo := int64(float64(o.Min) * a.cfg.MinPriceTolerance)
	hi := o.Avg * 2
	if price < lo {
		return lo
	}
	if price > hi {
		return hi
	}
	return price
}

// filterOutliers drops entries outside [median/2, median*2].
func filterOutliers(prices []int64) []int64 {
	if len(prices) == 0 {
		return prices
	}
	med := median(prices)
	kept := prices[:0]
	for _, p := range prices {
		if p > 2*med || p < med/2 {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// median is the standard sorted-middle median; even-length series
// average the two central values.
func median(prices []int64) int64 {
	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
