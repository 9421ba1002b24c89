package models

import (
	"time"

	"github.com/uptrace/bun"
)

type MailKind string

const (
	MailKindOutbid   MailKind = "outbid"
	MailKindSold     MailKind = "sold"
	MailKindDelivery MailKind = "delivery"
	MailKindExpired  MailKind = "expired"
)

// MailMessage is the delivery record written when an auction settles:
// proceeds to the seller, the item to the buyer, refunds to an outbid
// bidder.
type MailMessage struct {
	bun.BaseModel `bun:"table:mail_messages,alias:mm"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Kind        MailKind  `bun:"kind,notnull"`
	RecipientID int64     `bun:"recipient_id,notnull"`
	ItemID      int64     `bun:"item_id"`
	StackCount  int32     `bun:"stack_count"`
	Money       int64     `bun:"money"`
	ListingID   int64     `bun:"listing_id"`
	SentAt      time.Time `bun:"sent_at,notnull"`
}
