package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Listing struct {
	bun.BaseModel `bun:"table:listings,alias:l"`

	ID         int64     `bun:"id,pk,autoincrement"`
	HouseID    int32     `bun:"house_id,notnull"`
	ItemID     int64     `bun:"item_id,notnull"`
	OwnerID    int64     `bun:"owner_id,notnull"`
	BidderID   int64     `bun:"bidder_id"`
	StartBid   int64     `bun:"start_bid,notnull"`
	Bid        int64     `bun:"bid"`
	Buyout     int64     `bun:"buyout"`
	Deposit    int64     `bun:"deposit,notnull"`
	StackCount int32     `bun:"stack_count,notnull"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
