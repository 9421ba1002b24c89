package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func newTestBuyer(cfg *HouseConfig, market *fakeMarket, catalog *fakeCatalog, history *fakeHistory, seed int64) *Buyer {
	if history == nil {
		history = &fakeHistory{records: map[int64][]SaleRecord{}}
	}
	analyzer := NewAnalyzer(history, cfg)
	return NewBuyer(market, catalog, analyzer, cfg, rand.New(rand.NewSource(seed)), testBotID, testIdentities)
}

func playerListing(id, itemID, startBid, buyout int64) Listing {
	return Listing{
		ID:         id,
		HouseID:    HouseAlliance,
		ItemID:     itemID,
		Owner:      5000, // a player, not one of the bots
		StartBid:   startBid,
		Buyout:     buyout,
		StackCount: 1,
		ExpiresAt:  time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuyerBidsWithinHeadroom(t *testing.T) {
	cfg := testConfig()
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 100, 100000)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
	}}

	// No history: willingness to pay is SellPrice * multiplier = 1000.
	buyer := newTestBuyer(cfg, market, catalog, nil, 1)
	stats := buyer.Run(context.Background())

	if stats.Bids != 1 {
		t.Fatalf("Bids = %d, want 1", stats.Bids)
	}
	bid := market.bids[0]
	if bid.amount <= 100 || bid.amount > 1000 {
		t.Errorf("bid = %d, want within (100, 1000]", bid.amount)
	}
	if min := int64(100 + 5); bid.amount < min {
		t.Errorf("bid = %d, below the minimum raise %d", bid.amount, min)
	}
}

func TestBuyerBuysOutCheapListings(t *testing.T) {
	cfg := testConfig()
	// Buyout far below the willingness to pay: any drawn bid at or above
	// it converts to an immediate buyout.
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 50, 60)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
	}}

	var buyouts int
	for seed := int64(0); seed < 50; seed++ {
		m := &fakeMarket{listings: market.listings}
		buyer := newTestBuyer(cfg, m, catalog, nil, seed)
		stats := buyer.Run(context.Background())
		buyouts += stats.Buyouts
		if stats.Buyouts+stats.Bids != 1 {
			t.Fatalf("seed %d: expected exactly one action, got %+v", seed, stats)
		}
	}
	if buyouts == 0 {
		t.Error("no seed produced a buyout for a listing priced far under value")
	}
}

func TestBuyerUsesHistoryHeadroom(t *testing.T) {
	cfg := testConfig()
	history := &fakeHistory{records: map[int64][]SaleRecord{
		200: saleRecords(200, SaleBuyout, 120, 80, 100),
	}}
	// avg 100, min 80: willingness to pay = 100 + (100-80) = 120.
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 110, 100000)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, history, 2)
	stats := buyer.Run(context.Background())

	if stats.Bids != 1 {
		t.Fatalf("Bids = %d, want 1", stats.Bids)
	}
	// The minimum raise (5% of 110 = 5) floors the tiny headroom.
	if got := market.bids[0].amount; got < 115 || got > 120 {
		t.Errorf("bid = %d, want within [115, 120]", got)
	}
}

func TestBuyerRejectsOverpricedListings(t *testing.T) {
	cfg := testConfig()
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 5000, 100000)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, nil, 3)
	stats := buyer.Run(context.Background())

	if stats.Bids != 0 || stats.Buyouts != 0 {
		t.Errorf("acted on a listing priced above willingness to pay: %+v", stats)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
}

func TestBuyerSkipsUntradableClasses(t *testing.T) {
	cfg := testConfig()
	classes := []ItemClass{ClassConsumable, ClassGeneric, ClassCurrency, ClassPermanent}

	for _, class := range classes {
		market := &fakeMarket{listings: []Listing{playerListing(1, 200, 10, 100000)}}
		catalog := &fakeCatalog{items: map[int64]*Item{
			200: {ID: 200, Quality: QualityCommon, Class: class, SellPrice: 500, MaxStack: 1},
		}}

		buyer := newTestBuyer(cfg, market, catalog, nil, 4)
		stats := buyer.Run(context.Background())

		if stats.Bids != 0 || stats.Buyouts != 0 {
			t.Errorf("class %d: bot acted on an untradable item", class)
		}
	}
}

func TestBuyerRejectsUnsupportedQuality(t *testing.T) {
	cfg := testConfig()
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 10, 100000)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: MaxQuality + 1, SellPrice: 500, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, nil, 8)
	stats := buyer.Run(context.Background())

	if stats.Bids != 0 || stats.Buyouts != 0 {
		t.Errorf("acted on an item above the supported quality: %+v", stats)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
}

func TestBuyerUsesOverrideHeadroom(t *testing.T) {
	cfg := testConfig()
	cfg.Overrides[200] = Override{Avg: 1000, Min: 900}
	// Worthless catalog price and no history: only the override makes
	// this listing attractive. Willingness = 1000 + (1000-900) = 1100.
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 100, 100000)}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 1, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, nil, 9)
	stats := buyer.Run(context.Background())

	if stats.Bids != 1 {
		t.Fatalf("Bids = %d, want 1: %+v", stats.Bids, stats)
	}
	if got := market.bids[0].amount; got <= 100 || got > 1100 {
		t.Errorf("bid = %d, want within (100, 1100]", got)
	}
}

func TestBuyerHonorsBidBudget(t *testing.T) {
	cfg := testConfig()
	cfg.BidsPerInterval = 1
	market := &fakeMarket{listings: []Listing{
		playerListing(1, 200, 100, 100000),
		playerListing(2, 200, 100, 100000),
	}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, nil, 5)
	stats := buyer.Run(context.Background())

	if got := stats.Bids + stats.Buyouts; got != 1 {
		t.Errorf("actions = %d, want the interval budget of 1", got)
	}
}

func TestBuyerChargesBudgetPerExaminedListing(t *testing.T) {
	cfg := testConfig()
	cfg.BidsPerInterval = 1
	// The first listing never attracts a bid; it must still spend the
	// single budget entry so the second is not reached.
	market := &fakeMarket{listings: []Listing{
		playerListing(1, 300, 100, 100000),
		playerListing(2, 200, 100, 100000),
	}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 1},
		300: {ID: 300, Quality: QualityCommon, Class: ClassCurrency, SellPrice: 500, MaxStack: 1},
	}}

	buyer := newTestBuyer(cfg, market, catalog, nil, 10)
	stats := buyer.Run(context.Background())

	if stats.Examined != 1 {
		t.Errorf("Examined = %d, want 1", stats.Examined)
	}
	if got := stats.Bids + stats.Buyouts; got != 0 {
		t.Errorf("actions = %d, want 0", got)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
}

func TestBuyerScalesByStack(t *testing.T) {
	cfg := testConfig()
	l := playerListing(1, 200, 100, 100000)
	l.StackCount = 10
	market := &fakeMarket{listings: []Listing{l}}
	catalog := &fakeCatalog{items: map[int64]*Item{
		200: {ID: 200, Quality: QualityCommon, SellPrice: 500, MaxStack: 20},
	}}

	// Per-unit willingness 1000, stack 10 -> up to 10000.
	buyer := newTestBuyer(cfg, market, catalog, nil, 6)
	stats := buyer.Run(context.Background())

	if stats.Bids != 1 {
		t.Fatalf("Bids = %d, want 1", stats.Bids)
	}
	if got := market.bids[0].amount; got <= 100 || got > 10000 {
		t.Errorf("bid = %d, want within (100, 10000]", got)
	}
}

func TestBuyerSkipsWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.BuyerEnabled = false
	market := &fakeMarket{listings: []Listing{playerListing(1, 200, 100, 100000)}}

	buyer := newTestBuyer(cfg, market, &fakeCatalog{}, nil, 7)
	stats := buyer.Run(context.Background())

	if stats.Examined != 0 {
		t.Errorf("disabled buyer examined %d listings", stats.Examined)
	}
}
