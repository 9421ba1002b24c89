package marketbot

import (
	"testing"
	"time"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/engine"
)

func TestDefaultHouseConfig(t *testing.T) {
	row := DefaultHouseConfig(int32(engine.HouseNeutral))

	if row.SellerEnabled || row.BuyerEnabled {
		t.Error("a fresh house must start disabled")
	}

	var sum int32
	for _, pct := range row.BucketPct {
		sum += pct
	}
	if sum != 100 {
		t.Errorf("default bucket percentages sum to %d, want 100", sum)
	}

	for _, table := range [][]int32{
		row.MinPricePct, row.MaxPricePct, row.MinBidPct,
		row.MaxBidPct, row.MaxStack, row.BuyerPriceMult,
	} {
		if len(table) != engine.NumQualities {
			t.Errorf("quality table has %d entries, want %d", len(table), engine.NumQualities)
		}
	}
	if len(row.BucketPct) != engine.NumBuckets {
		t.Errorf("bucket table has %d entries, want %d", len(row.BucketPct), engine.NumBuckets)
	}
}

func TestBuildHouseConfig(t *testing.T) {
	row := DefaultHouseConfig(int32(engine.HouseAlliance))
	row.MaxItems = 100
	row.BiddingIntervalMins = 30

	overrides := map[int64]engine.Override{5: {Avg: 100, Min: 50}}
	items := []*models.Item{
		{ID: 1, Quality: int32(engine.QualityCommon), Class: int32(engine.ClassTradeGood)},
		{ID: 2, Quality: int32(engine.QualityRare), Class: int32(engine.ClassItem)},
		// Not tradable classes: never enter the bins.
		{ID: 3, Quality: int32(engine.QualityCommon), Class: int32(engine.ClassConsumable)},
		{ID: 4, Quality: int32(engine.QualityCommon), Class: int32(engine.ClassCurrency)},
		// Above the supported tier.
		{ID: 5, Quality: int32(engine.MaxQuality) + 1, Class: int32(engine.ClassItem)},
	}

	cfg := buildHouseConfig(row, overrides, items)

	if cfg.House != engine.HouseAlliance {
		t.Errorf("house = %v, want alliance", cfg.House)
	}
	if cfg.BiddingInterval != 30*time.Minute {
		t.Errorf("bidding interval = %v, want 30m", cfg.BiddingInterval)
	}
	if len(cfg.Overrides) != 1 {
		t.Errorf("overrides = %d, want 1", len(cfg.Overrides))
	}

	tradeGood := engine.BucketIndex(engine.QualityCommon, engine.KindTradeGood)
	if got := cfg.Bins[tradeGood]; len(got) != 1 || got[0] != 1 {
		t.Errorf("common trade-good bin = %v, want [1]", got)
	}
	rareItem := engine.BucketIndex(engine.QualityRare, engine.KindItem)
	if got := cfg.Bins[rareItem]; len(got) != 1 || got[0] != 2 {
		t.Errorf("rare item bin = %v, want [2]", got)
	}

	var binned int
	for _, bin := range cfg.Bins {
		binned += len(bin)
	}
	if binned != 2 {
		t.Errorf("%d items binned, want 2", binned)
	}

	// CalculateCaps ran: the common trade-good bucket holds 27% of 100.
	if got := cfg.BucketCaps[tradeGood]; got != 27 {
		t.Errorf("common trade-good cap = %d, want 27", got)
	}
}

func TestQualityTable(t *testing.T) {
	t.Run("short source zero-fills", func(t *testing.T) {
		got := qualityTable([]int32{10, 20})
		if got[0] != 10 || got[1] != 20 || got[2] != 0 {
			t.Errorf("qualityTable([10 20]) = %v", got)
		}
	})
	t.Run("long source truncates", func(t *testing.T) {
		src := make([]int32, engine.NumQualities+3)
		for i := range src {
			src[i] = int32(i + 1)
		}
		got := qualityTable(src)
		if got[engine.NumQualities-1] != int32(engine.NumQualities) {
			t.Errorf("last entry = %d, want %d", got[engine.NumQualities-1], engine.NumQualities)
		}
	})
}
