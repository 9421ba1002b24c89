package engine

import (
	"context"
	"time"
)

// Shared fakes for the engine tests. Everything is in-memory and
// deterministic; randomness comes from seeded *rand.Rand instances in
// the individual tests.

func testConfig() *HouseConfig {
	cfg := &HouseConfig{
		House:             HouseAlliance,
		SellerEnabled:     true,
		BuyerEnabled:      true,
		MinTotal:          10,
		MaxTotal:          20,
		ItemsPerCycle:     5,
		DuplicatesCap:     3,
		DurationClass:     DurationLong,
		BiddingInterval:   time.Hour,
		BidsPerInterval:   5,
		UseSaleCount:      true,
		HistoryCount:      50,
		FilterOutliers:    true,
		MinPriceTolerance: 1.0,
		AbortOnError:      true,
		Overrides:         map[int64]Override{},
	}
	for q := range cfg.MinPricePct {
		cfg.MinPricePct[q] = 100
		cfg.MaxPricePct[q] = 100
		cfg.MinBidPct[q] = 70
		cfg.MaxBidPct[q] = 90
		cfg.BuyerPriceMult[q] = 2
	}
	for b := range cfg.BucketPct {
		cfg.BucketPct[b] = 100
	}
	cfg.CalculateCaps()
	return cfg
}

type placedBid struct {
	listingID int64
	bidder    int64
	amount    int64
}

type fakeMarket struct {
	listings   []Listing
	created    []Listing
	bids       []placedBid
	buyouts    []int64
	expired    int64
	nextID     int64
	createErr  error
	listingErr error
}

func (f *fakeMarket) Listings(ctx context.Context, house House) ([]Listing, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	out := make([]Listing, 0, len(f.listings)+len(f.created))
	out = append(out, f.listings...)
	out = append(out, f.created...)
	return out, nil
}

func (f *fakeMarket) ListingsNotInvolving(ctx context.Context, house House, identities []int64) ([]Listing, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	skip := make(map[int64]bool, len(identities))
	for _, id := range identities {
		skip[id] = true
	}
	var out []Listing
	for _, l := range f.listings {
		if skip[l.Owner] || (l.Bidder != 0 && skip[l.Bidder]) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeMarket) CreateListing(ctx context.Context, l *Listing) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	l.ID = f.nextID
	f.created = append(f.created, *l)
	return nil
}

func (f *fakeMarket) PlaceBid(ctx context.Context, l *Listing, bidder int64, amount int64) error {
	f.bids = append(f.bids, placedBid{listingID: l.ID, bidder: bidder, amount: amount})
	return nil
}

func (f *fakeMarket) BuyoutListing(ctx context.Context, l *Listing, buyer int64) error {
	f.buyouts = append(f.buyouts, l.ID)
	return nil
}

func (f *fakeMarket) ExpireOwnedBy(ctx context.Context, house House, identities []int64) (int64, error) {
	owned := make(map[int64]bool, len(identities))
	for _, id := range identities {
		owned[id] = true
	}
	var n int64
	for _, l := range f.listings {
		if owned[l.Owner] {
			n++
		}
	}
	f.expired = n
	return n, nil
}

func (f *fakeMarket) MinimumOutbid(current int64) int64 {
	raise := current * 5 / 100
	if raise < 1 {
		raise = 1
	}
	return raise
}

func (f *fakeMarket) Deposit(item *Item, duration time.Duration, stack int32) int64 {
	return int64(stack) * 5
}

type fakeCatalog struct {
	items map[int64]*Item
}

func (f *fakeCatalog) Item(ctx context.Context, templateID int64) (*Item, error) {
	it, ok := f.items[templateID]
	if !ok {
		return nil, ErrNotFound
	}
	return it, nil
}

func (f *fakeCatalog) Instantiate(ctx context.Context, templateID int64) (*Item, error) {
	return f.Item(ctx, templateID)
}

func (f *fakeCatalog) Instance(ctx context.Context, l *Listing) (*Item, error) {
	return f.Item(ctx, l.ItemID)
}

type fakeHistory struct {
	records     map[int64][]SaleRecord
	appended    []SaleRecord
	prunedDays  int
	prunedCount int
}

func (f *fakeHistory) RecentByCount(ctx context.Context, itemID int64, n int) ([]SaleRecord, error) {
	recs := f.records[itemID]
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}

func (f *fakeHistory) RecentByDays(ctx context.Context, itemID int64, days int) ([]SaleRecord, error) {
	return f.records[itemID], nil
}

func (f *fakeHistory) Append(ctx context.Context, rec *SaleRecord) error {
	f.appended = append(f.appended, *rec)
	return nil
}

func (f *fakeHistory) PruneToCount(ctx context.Context, n int) (int64, error) {
	f.prunedCount++
	return 1, nil
}

func (f *fakeHistory) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	f.prunedDays = days
	return 1, nil
}

type fakeCleanups struct {
	last time.Time
	sets []time.Time
}

func (f *fakeCleanups) LastCleanup(ctx context.Context) (time.Time, error) {
	return f.last, nil
}

func (f *fakeCleanups) SetLastCleanup(ctx context.Context, t time.Time) error {
	f.last = t
	f.sets = append(f.sets, t)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeConfigs struct {
	byHouse map[House]*HouseConfig
}

func (f *fakeConfigs) HouseConfig(house House) *HouseConfig {
	return f.byHouse[house]
}

type fakeArchiver struct {
	calls []time.Time
	err   error
}

func (f *fakeArchiver) Archive(ctx context.Context, olderThan time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, olderThan)
	return nil
}
