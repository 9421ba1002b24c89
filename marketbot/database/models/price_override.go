package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PriceOverride struct {
	bun.BaseModel `bun:"table:price_overrides,alias:po"`

	ItemID   int64 `bun:"item_id,pk"`
	AvgPrice int64 `bun:"avg_price,notnull"`
	MinPrice int64 `bun:"min_price,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
