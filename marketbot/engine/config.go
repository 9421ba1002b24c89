package engine

import (
	"math"
	"time"
)

// BucketKind splits each rarity tier into discrete items and stackable
// trade goods.
type BucketKind int

const (
	KindItem BucketKind = iota
	KindTradeGood

	NumKinds = 2

	// NumBuckets is the full rarity x kind grid.
	NumBuckets = NumQualities * NumKinds
)

// BucketIndex maps a (quality, kind) pair onto the flat bucket grid.
func BucketIndex(q Quality, k BucketKind) int {
	return int(q)*NumKinds + int(k)
}

// KindOf classifies a catalog item into its selector bucket kind.
func KindOf(it *Item) BucketKind {
	if it.Class == ClassTradeGood {
		return KindTradeGood
	}
	return KindItem
}

// DurationClass selects the listing-lifetime band for new listings.
type DurationClass int32

const (
	DurationLong   DurationClass = 0 // 1-3 days
	DurationMedium DurationClass = 1 // 1-23 hours
	DurationShort  DurationClass = 2 // 10-50 minutes
)

// QualityTable carries one tunable value per rarity tier.
type QualityTable [NumQualities]int32

// HouseConfig is the per-house configuration bundle. It is immutable for
// the duration of a cycle; the admin surface replaces it between cycles.
type HouseConfig struct {
	House House

	SellerEnabled bool
	BuyerEnabled  bool

	// Listing volume.
	MinTotal      int
	MaxTotal      int
	ItemsPerCycle int
	DuplicatesCap int

	// Listing shape.
	DurationClass   DurationClass
	DivisibleStacks bool
	MaxStackSize    int32 // global stack ceiling, independent of quality

	// Price sources.
	SellAtMarketPrice    bool
	UseBuyPriceForSeller bool
	UseBuyPriceForBuyer  bool

	// Buyer pacing.
	BiddingInterval time.Duration
	BidsPerInterval int

	// History window. When UseSaleCount is set the analyzer looks at the
	// last HistoryCount sales, otherwise at the last HistoryDays days.
	UseSaleCount   bool
	HistoryCount   int
	HistoryDays    int
	FilterOutliers bool
	WeightRecent   bool

	// MinPriceTolerance relaxes an override's minimum price: the lower
	// clamp bound is Min * MinPriceTolerance.
	MinPriceTolerance float64

	// AbortOnError keeps the original fail-fast behavior: a catalog
	// inconsistency aborts the remaining sell cycle instead of just the
	// current candidate.
	AbortOnError bool

	// Per-quality percentage ranges applied to the base price.
	MinPricePct    QualityTable
	MaxPricePct    QualityTable
	MinBidPct      QualityTable
	MaxBidPct      QualityTable
	MaxStack       QualityTable // 0 = no per-quality cap
	BuyerPriceMult QualityTable // multiple of base the buyer will pay up to

	// Bucket layout: listing share percentages, derived caps and the
	// eligible template ids per bucket.
	BucketPct  [NumBuckets]int32
	BucketCaps [NumBuckets]int32
	Bins       [NumBuckets][]int64

	// Price overrides by template id, loaded at init and on reload.
	Overrides map[int64]Override
}

// Override returns the price override for an item, if any.
func (c *HouseConfig) Override(itemID int64) (Override, bool) {
	o, ok := c.Overrides[itemID]
	return o, ok
}

// CalculateCaps rederives the per-bucket caps from the share percentages
// and the configured listing maximum. Invoked whenever MaxTotal or the
// percentage table changes.
func (c *HouseConfig) CalculateCaps() {
	for i, pct := range c.BucketPct {
		c.BucketCaps[i] = int32(math.Round(float64(pct) / 100.0 * float64(c.MaxTotal)))
	}
}

// bucketPriority is the fixed iteration order of the selector: rarest
// tier first, the discrete-item bucket before the trade-good bucket at
// each tier.
var bucketPriority = func() [NumBuckets]int {
	var order [NumBuckets]int
	i := 0
	for q := MaxQuality; q >= QualityPoor; q-- {
		order[i] = BucketIndex(q, KindItem)
		order[i+1] = BucketIndex(q, KindTradeGood)
		i += 2
	}
	return order
}()
