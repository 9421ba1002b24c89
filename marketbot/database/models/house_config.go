package models

import (
	"time"

	"github.com/uptrace/bun"
)

// HouseConfig is the persisted per-house tuning row. The quality and
// bucket tables live in jsonb columns so the admin surface can patch
// single entries without schema churn.
type HouseConfig struct {
	bun.BaseModel `bun:"table:house_configs,alias:hc"`

	HouseID int32 `bun:"house_id,pk"`

	SellerEnabled bool `bun:"seller_enabled,notnull,default:false"`
	BuyerEnabled  bool `bun:"buyer_enabled,notnull,default:false"`

	MinItems      int `bun:"min_items,notnull"`
	MaxItems      int `bun:"max_items,notnull"`
	ItemsPerCycle int `bun:"items_per_cycle,notnull"`
	DuplicatesCap int `bun:"duplicates_cap,notnull"`

	DurationClass   int32 `bun:"duration_class,notnull"`
	DivisibleStacks bool  `bun:"divisible_stacks,notnull,default:true"`
	MaxStackSize    int32 `bun:"max_stack_size,notnull"`

	SellAtMarketPrice    bool `bun:"sell_at_market_price,notnull,default:false"`
	UseBuyPriceForSeller bool `bun:"use_buy_price_for_seller,notnull,default:false"`
	UseBuyPriceForBuyer  bool `bun:"use_buy_price_for_buyer,notnull,default:false"`

	BiddingIntervalMins int `bun:"bidding_interval_mins,notnull"`
	BidsPerInterval     int `bun:"bids_per_interval,notnull"`

	UseSaleCount   bool `bun:"use_sale_count,notnull,default:false"`
	HistoryCount   int  `bun:"history_count,notnull"`
	HistoryDays    int  `bun:"history_days,notnull"`
	FilterOutliers bool `bun:"filter_outliers,notnull,default:true"`
	WeightRecent   bool `bun:"weight_recent,notnull,default:false"`

	MinPriceTolerance float64 `bun:"min_price_tolerance,notnull,default:1.0"`
	AbortOnError      bool    `bun:"abort_on_error,notnull,default:true"`

	MinPricePct    []int32 `bun:"min_price_pct,type:jsonb"`
	MaxPricePct    []int32 `bun:"max_price_pct,type:jsonb"`
	MinBidPct      []int32 `bun:"min_bid_pct,type:jsonb"`
	MaxBidPct      []int32 `bun:"max_bid_pct,type:jsonb"`
	MaxStack       []int32 `bun:"max_stack,type:jsonb"`
	BuyerPriceMult []int32 `bun:"buyer_price_mult,type:jsonb"`
	BucketPct      []int32 `bun:"bucket_pct,type:jsonb"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
