// Package engine holds the per-cycle decision logic of the market bots:
// what to sell, at which price, how much to bid, and when to clean up.
// It talks to the marketplace, the item catalog and the history ledger
// exclusively through the interfaces below so that the decision code
// stays independent from the storage layer.
package engine

import (
	"context"
	"errors"
	"time"
)

// House identifies one of the three auction markets.
type House int32

const (
	HouseAlliance House = 2
	HouseHorde    House = 6
	HouseNeutral  House = 7
)

func (h House) String() string {
	switch h {
	case HouseAlliance:
		return "alliance"
	case HouseHorde:
		return "horde"
	case HouseNeutral:
		return "neutral"
	}
	return "unknown"
}

// Houses lists all markets in the order the scheduler visits them.
var Houses = []House{HouseAlliance, HouseHorde, HouseNeutral}

// Quality is the rarity tier of an item, 0 (poor) through 6 (artifact).
type Quality int32

const (
	QualityPoor Quality = iota
	QualityCommon
	QualityUncommon
	QualityRare
	QualityEpic
	QualityLegendary
	QualityArtifact

	// MaxQuality is the highest supported tier; anything above is rejected.
	MaxQuality = QualityArtifact

	NumQualities = int(MaxQuality) + 1
)

// ItemClass is the coarse catalog classification of an item. Trade goods
// form their own selector buckets; consumables, generics, currency and
// permanently bound items are never bid on by the buyer.
type ItemClass int32

const (
	ClassItem ItemClass = iota
	ClassTradeGood
	ClassConsumable
	ClassGeneric
	ClassCurrency
	ClassPermanent
)

// ErrUnsupportedQuality marks an item whose quality exceeds MaxQuality.
var ErrUnsupportedQuality = errors.New("engine: unsupported item quality")

// ErrNotFound is returned by collaborators when a template or listing
// cannot be resolved.
var ErrNotFound = errors.New("engine: not found")

// Item is a catalog entry resolved by template id.
type Item struct {
	ID        int64
	Name      string
	Quality   Quality
	Class     ItemClass
	BuyPrice  int64
	SellPrice int64
	MaxStack  int32
	Disabled  bool
}

// Listing is an active offer on one of the houses. The marketplace store
// owns the record; the engine reads it and proposes mutations.
//
// Invariants: Bid == 0 || Bid >= StartBid, and Buyout == 0 || Bid <= Buyout.
type Listing struct {
	ID         int64
	HouseID    House
	ItemID     int64
	Owner      int64
	Bidder     int64
	StartBid   int64
	Bid        int64
	Buyout     int64
	Deposit    int64
	StackCount int32
	ExpiresAt  time.Time
}

// CurrentPrice is the price a new bid has to beat.
func (l *Listing) CurrentPrice() int64 {
	if l.Bid > 0 {
		return l.Bid
	}
	return l.StartBid
}

// PricePair is the computed buyout/bid pair for one unit of an item.
type PricePair struct {
	Buyout int64
	Bid    int64
}

// SaleKind says how a completed auction settled.
type SaleKind string

const (
	SaleBuyout SaleKind = "buyout"
	SaleBid    SaleKind = "bid"
)

// SaleRecord is one completed-auction observation from the history ledger.
type SaleRecord struct {
	ItemID int64
	Price  int64
	Kind   SaleKind
	SoldAt time.Time
}

// Override is an administrator-supplied price floor/anchor for an item.
// When present it supersedes catalog-derived pricing.
type Override struct {
	Avg int64
	Min int64
}

// Market is the marketplace collaborator. Mutations are atomic at the
// single-listing granularity; the engine performs no locking of its own.
type Market interface {
	// Listings returns every active listing on the house.
	Listings(ctx context.Context, house House) ([]Listing, error)
	// ListingsNotInvolving returns listings whose owner and bidder are
	// both outside the given identity set, ordered by ascending id.
	ListingsNotInvolving(ctx context.Context, house House, identities []int64) ([]Listing, error)
	// CreateListing publishes a new listing and fills in its id.
	CreateListing(ctx context.Context, l *Listing) error
	// PlaceBid sets a new highest bidder, notifying the displaced one.
	PlaceBid(ctx context.Context, l *Listing, bidder int64, amount int64) error
	// BuyoutListing settles the sale immediately and removes the listing.
	BuyoutListing(ctx context.Context, l *Listing, buyer int64) error
	// ExpireOwnedBy force-expires every listing owned by the identities.
	ExpireOwnedBy(ctx context.Context, house House, identities []int64) (int64, error)
	// MinimumOutbid is the marketplace-defined minimum raise over a price.
	MinimumOutbid(current int64) int64
	// Deposit computes the listing deposit for a duration and stack.
	Deposit(item *Item, duration time.Duration, stack int32) int64
}

// Catalog resolves item templates and their physical instances.
type Catalog interface {
	// Item resolves a template id, or ErrNotFound.
	Item(ctx context.Context, templateID int64) (*Item, error)
	// Instantiate materializes a fresh physical item for a template.
	Instantiate(ctx context.Context, templateID int64) (*Item, error)
	// Instance resolves the physical item backing a listing, or ErrNotFound.
	Instance(ctx context.Context, l *Listing) (*Item, error)
}

// HistoryStore is the append-only ledger of completed sales.
type HistoryStore interface {
	RecentByCount(ctx context.Context, itemID int64, n int) ([]SaleRecord, error)
	RecentByDays(ctx context.Context, itemID int64, days int) ([]SaleRecord, error)
	Append(ctx context.Context, rec *SaleRecord) error
	// PruneToCount deletes everything but the newest n rows.
	PruneToCount(ctx context.Context, n int) (int64, error)
	// PruneOlderThan deletes rows older than the given number of days.
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}

// CleanupStore persists the single last-retention-run timestamp.
type CleanupStore interface {
	LastCleanup(ctx context.Context) (time.Time, error)
	SetLastCleanup(ctx context.Context, t time.Time) error
}

// Clock abstracts wall time so scheduler tests never sleep.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
