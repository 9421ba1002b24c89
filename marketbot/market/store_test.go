package market

import (
	"testing"
	"time"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/engine"
)

func TestMinimumOutbid(t *testing.T) {
	s := &Store{}
	tests := []struct {
		current int64
		want    int64
	}{
		{0, 1},
		{10, 1},
		{19, 1},
		{20, 1},
		{100, 5},
		{1000, 50},
	}
	for _, tt := range tests {
		if got := s.MinimumOutbid(tt.current); got != tt.want {
			t.Errorf("MinimumOutbid(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestDeposit(t *testing.T) {
	s := &Store{}
	item := &engine.Item{SellPrice: 100}

	tests := []struct {
		name     string
		duration time.Duration
		stack    int32
		want     int64
	}{
		{"single unit short listing", 2 * time.Hour, 1, 15},
		{"one full block", 12 * time.Hour, 1, 15},
		{"two blocks", 24 * time.Hour, 1, 30},
		{"stack scales linearly", 12 * time.Hour, 20, 300},
		{"three day listing", 72 * time.Hour, 5, 450},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Deposit(item, tt.duration, tt.stack); got != tt.want {
				t.Errorf("Deposit(%v, %d) = %d, want %d", tt.duration, tt.stack, got, tt.want)
			}
		})
	}
}

func TestPerUnit(t *testing.T) {
	tests := []struct {
		price int64
		stack int32
		want  int64
	}{
		{100, 1, 100},
		{100, 0, 100},
		{100, 4, 25},
		{99, 4, 24},
	}
	for _, tt := range tests {
		if got := perUnit(tt.price, tt.stack); got != tt.want {
			t.Errorf("perUnit(%d, %d) = %d, want %d", tt.price, tt.stack, got, tt.want)
		}
	}
}

func TestToEngineListings(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	rows := []*models.Listing{
		{
			ID:         7,
			HouseID:    int32(engine.HouseNeutral),
			ItemID:     42,
			OwnerID:    1001,
			BidderID:   2002,
			StartBid:   50,
			Bid:        80,
			Buyout:     200,
			Deposit:    15,
			StackCount: 5,
			ExpiresAt:  expires,
		},
	}

	out := toEngineListings(rows)
	if len(out) != 1 {
		t.Fatalf("got %d listings, want 1", len(out))
	}

	l := out[0]
	if l.ID != 7 || l.HouseID != engine.HouseNeutral || l.ItemID != 42 {
		t.Errorf("identity fields not carried over: %+v", l)
	}
	if l.Owner != 1001 || l.Bidder != 2002 {
		t.Errorf("parties not carried over: owner=%d bidder=%d", l.Owner, l.Bidder)
	}
	if l.StartBid != 50 || l.Bid != 80 || l.Buyout != 200 || l.Deposit != 15 {
		t.Errorf("prices not carried over: %+v", l)
	}
	if l.StackCount != 5 || !l.ExpiresAt.Equal(expires) {
		t.Errorf("stack/expiry not carried over: %+v", l)
	}
}
