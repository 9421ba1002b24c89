package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

func newTestPriceModel(cfg *HouseConfig, history *fakeHistory, seed int64) *PriceModel {
	if history == nil {
		history = &fakeHistory{records: map[int64][]SaleRecord{}}
	}
	return NewPriceModel(cfg, NewAnalyzer(history, cfg), rand.New(rand.NewSource(seed)))
}

func TestPriceRejectsUnsupportedQuality(t *testing.T) {
	m := newTestPriceModel(testConfig(), nil, 1)

	_, err := m.Price(context.Background(), &Item{ID: 1, Quality: MaxQuality + 1})
	if !errors.Is(err, ErrUnsupportedQuality) {
		t.Fatalf("Price() error = %v, want ErrUnsupportedQuality", err)
	}
}

func TestPriceBidNeverExceedsBuyout(t *testing.T) {
	cfg := testConfig()
	item := &Item{ID: 2, Quality: QualityRare, SellPrice: 1000}

	for seed := int64(0); seed < 200; seed++ {
		m := newTestPriceModel(cfg, nil, seed)
		got, err := m.Price(context.Background(), item)
		if err != nil {
			t.Fatalf("seed %d: Price() error = %v", seed, err)
		}
		if got.Bid > got.Buyout {
			t.Fatalf("seed %d: bid %d exceeds buyout %d", seed, got.Bid, got.Buyout)
		}
		if got.Buyout < 0 || got.Bid < 0 {
			t.Fatalf("seed %d: negative price %+v", seed, got)
		}
	}
}

func TestPriceUsesSellPriceBaseline(t *testing.T) {
	cfg := testConfig()
	item := &Item{ID: 3, Quality: QualityCommon, BuyPrice: 4000, SellPrice: 1000}

	m := newTestPriceModel(cfg, nil, 7)
	got, err := m.Price(context.Background(), item)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	// With 100% price range the base is SellPrice before deviation, so
	// the result stays within +-10% of it plus the buyout lift.
	if got.Buyout < 900 || got.Buyout > 1160 {
		t.Errorf("Buyout = %d, want within deviation range of 1000", got.Buyout)
	}
}

func TestPriceUsesBuyPriceWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.UseBuyPriceForSeller = true
	item := &Item{ID: 3, Quality: QualityCommon, BuyPrice: 4000, SellPrice: 1000}

	m := newTestPriceModel(cfg, nil, 7)
	got, err := m.Price(context.Background(), item)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got.Buyout < 3600 || got.Buyout > 4640 {
		t.Errorf("Buyout = %d, want within deviation range of 4000", got.Buyout)
	}
}

func TestPriceClampsToOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Overrides[4] = Override{Avg: 100, Min: 40}
	item := &Item{ID: 4, Quality: QualityEpic, SellPrice: 100000}

	for seed := int64(0); seed < 100; seed++ {
		m := newTestPriceModel(cfg, nil, seed)
		got, err := m.Price(context.Background(), item)
		if err != nil {
			t.Fatalf("seed %d: Price() error = %v", seed, err)
		}
		if got.Buyout < 40 || got.Buyout > 200 {
			t.Fatalf("seed %d: buyout %d outside override clamp [40, 200]", seed, got.Buyout)
		}
		if got.Bid < 40 || got.Bid > 200 {
			t.Fatalf("seed %d: bid %d outside override clamp [40, 200]", seed, got.Bid)
		}
	}
}

func TestPricePrefersMarketAverages(t *testing.T) {
	cfg := testConfig()
	history := &fakeHistory{records: map[int64][]SaleRecord{
		6: saleRecords(6, SaleBuyout, 500, 500, 500),
	}}
	item := &Item{ID: 6, Quality: QualityUncommon, SellPrice: 10}

	m := newTestPriceModel(cfg, history, 11)
	got, err := m.Price(context.Background(), item)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	// The market average 500 replaces the tiny catalog baseline; only the
	// +-10% deviation and buyout lift remain.
	if got.Buyout < 450 || got.Buyout > 580 {
		t.Errorf("Buyout = %d, want near market average 500", got.Buyout)
	}
}

func TestPriceZeroCatalogPrice(t *testing.T) {
	m := newTestPriceModel(testConfig(), nil, 3)

	got, err := m.Price(context.Background(), &Item{ID: 9, Quality: QualityPoor})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if got.Buyout != 0 || got.Bid != 0 {
		t.Errorf("prices = %+v, want zeros for an unpriced item", got)
	}
}
