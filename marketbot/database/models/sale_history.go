package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SaleKind string

const (
	SaleKindBuyout SaleKind = "buyout"
	SaleKindBid    SaleKind = "bid"
)

type SaleHistory struct {
	bun.BaseModel `bun:"table:sale_history,alias:sh"`

	ID      int64     `bun:"id,pk,autoincrement"`
	ItemID  int64     `bun:"item_id,notnull"`
	HouseID int32     `bun:"house_id,notnull"`
	Price   int64     `bun:"price,notnull"`
	Kind    SaleKind  `bun:"kind,notnull"`
	SoldAt  time.Time `bun:"sold_at,notnull"`
}
