package market

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
)

// Mailer writes the delivery records for auction settlement: proceeds,
// item deliveries, refunds and expiry returns.
type Mailer struct {
	mails repositories.MailRepository
}

func NewMailer(mails repositories.MailRepository) *Mailer {
	return &Mailer{mails: mails}
}

func (m *Mailer) SendProceeds(ctx context.Context, tx bun.Tx, sellerID int64, listingID int64, money int64) error {
	return m.mails.CreateWithTx(ctx, tx, &models.MailMessage{
		Kind:        models.MailKindSold,
		RecipientID: sellerID,
		Money:       money,
		ListingID:   listingID,
		SentAt:      time.Now(),
	})
}

func (m *Mailer) SendDelivery(ctx context.Context, tx bun.Tx, buyerID int64, listing *models.Listing) error {
	return m.mails.CreateWithTx(ctx, tx, &models.MailMessage{
		Kind:        models.MailKindDelivery,
		RecipientID: buyerID,
		ItemID:      listing.ItemID,
		StackCount:  listing.StackCount,
		ListingID:   listing.ID,
		SentAt:      time.Now(),
	})
}

func (m *Mailer) SendOutbidRefund(ctx context.Context, bidderID int64, listingID int64, money int64) error {
	return m.mails.Create(ctx, &models.MailMessage{
		Kind:        models.MailKindOutbid,
		RecipientID: bidderID,
		Money:       money,
		ListingID:   listingID,
		SentAt:      time.Now(),
	})
}

func (m *Mailer) SendExpired(ctx context.Context, tx bun.Tx, ownerID int64, listing *models.Listing) error {
	return m.mails.CreateWithTx(ctx, tx, &models.MailMessage{
		Kind:        models.MailKindExpired,
		RecipientID: ownerID,
		ItemID:      listing.ItemID,
		StackCount:  listing.StackCount,
		ListingID:   listing.ID,
		SentAt:      time.Now(),
	})
}
