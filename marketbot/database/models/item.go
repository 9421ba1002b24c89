package models

import (
	"github.com/uptrace/bun"
)

type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID        int64  `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Quality   int32  `bun:"quality,notnull"`
	Class     int32  `bun:"class,notnull"`
	BuyPrice  int64  `bun:"buy_price,notnull"`
	SellPrice int64  `bun:"sell_price,notnull"`
	MaxStack  int32  `bun:"max_stack,notnull,default:1"`
	Disabled  bool   `bun:"disabled,notnull,default:false"`
}
