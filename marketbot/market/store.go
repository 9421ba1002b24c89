// Package market backs the decision engine with the Postgres
// marketplace: listings, settlement, mail delivery and the sale ledger.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketbot/marketbot/database/models"
	"marketbot/marketbot/database/repositories"
	"marketbot/marketbot/engine"
)

// depositRatePct is the listing deposit as a percentage of the stack's
// vendor value, charged per 12-hour block of listing time.
const depositRatePct = 15

// Store implements engine.Market over the listing repository. Sales
// settle transactionally: the listing row, the mail records and the
// history entry commit or roll back together.
type Store struct {
	listings repositories.ListingRepository
	history  repositories.HistoryRepository
	mailer   *Mailer
}

func NewStore(listings repositories.ListingRepository, history repositories.HistoryRepository, mailer *Mailer) *Store {
	return &Store{listings: listings, history: history, mailer: mailer}
}

func (s *Store) Listings(ctx context.Context, house engine.House) ([]engine.Listing, error) {
	rows, err := s.listings.GetActive(ctx, int32(house))
	if err != nil {
		return nil, err
	}
	return toEngineListings(rows), nil
}

func (s *Store) ListingsNotInvolving(ctx context.Context, house engine.House, identities []int64) ([]engine.Listing, error) {
	rows, err := s.listings.GetActiveExcluding(ctx, int32(house), identities)
	if err != nil {
		return nil, err
	}
	return toEngineListings(rows), nil
}

func (s *Store) CreateListing(ctx context.Context, l *engine.Listing) error {
	row := &models.Listing{
		HouseID:    int32(l.HouseID),
		ItemID:     l.ItemID,
		OwnerID:    l.Owner,
		StartBid:   l.StartBid,
		Buyout:     l.Buyout,
		Deposit:    l.Deposit,
		StackCount: l.StackCount,
		ExpiresAt:  l.ExpiresAt,
	}
	if err := s.listings.Create(ctx, row); err != nil {
		return err
	}
	l.ID = row.ID
	return nil
}

// PlaceBid records the new highest bid and refunds the displaced bidder
// by mail.
func (s *Store) PlaceBid(ctx context.Context, l *engine.Listing, bidder int64, amount int64) error {
	displaced, err := s.listings.UpdateBid(ctx, l.ID, bidder, amount)
	if err != nil {
		return err
	}
	l.Bid = amount
	l.Bidder = bidder

	if displaced != nil {
		if err := s.mailer.SendOutbidRefund(ctx, displaced.BidderID, l.ID, displaced.Bid); err != nil {
			slog.Error("Failed to mail outbid refund",
				slog.Int64("listing_id", l.ID),
				slog.Int64("bidder_id", displaced.BidderID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// BuyoutListing settles the sale immediately: the buyer gets the items,
// the seller the buyout price, and the sale lands in the history ledger.
func (s *Store) BuyoutListing(ctx context.Context, l *engine.Listing, buyer int64) error {
	tx, err := s.listings.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	row := &models.Listing{
		ID:         l.ID,
		HouseID:    int32(l.HouseID),
		ItemID:     l.ItemID,
		OwnerID:    l.Owner,
		StackCount: l.StackCount,
	}

	if err := s.listings.DeleteWithTx(ctx, tx, l.ID); err != nil {
		return err
	}
	if err := s.mailer.SendProceeds(ctx, tx, l.Owner, l.ID, l.Buyout); err != nil {
		return err
	}
	if err := s.mailer.SendDelivery(ctx, tx, buyer, row); err != nil {
		return err
	}
	if err := s.history.CreateWithTx(ctx, tx, &models.SaleHistory{
		ItemID:  l.ItemID,
		HouseID: int32(l.HouseID),
		Price:   perUnit(l.Buyout, l.StackCount),
		Kind:    models.SaleKindBuyout,
		SoldAt:  time.Now(),
	}); err != nil {
		return err
	}

	// The displaced bidder, if any, gets their money back.
	if l.Bidder != 0 && l.Bidder != buyer {
		if err := s.mailer.mails.CreateWithTx(ctx, tx, &models.MailMessage{
			Kind:        models.MailKindOutbid,
			RecipientID: l.Bidder,
			Money:       l.Bid,
			ListingID:   l.ID,
			SentAt:      time.Now(),
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ExpireOwnedBy(ctx context.Context, house engine.House, identities []int64) (int64, error) {
	return s.listings.ExpireOwnedBy(ctx, int32(house), identities, time.Now())
}

// MinimumOutbid is the marketplace minimum raise: 5% of the current
// price, at least one unit.
func (s *Store) MinimumOutbid(current int64) int64 {
	raise := current * 5 / 100
	if raise < 1 {
		raise = 1
	}
	return raise
}

// Deposit charges a share of the stack's vendor value per 12-hour block
// of listing time.
func (s *Store) Deposit(item *engine.Item, duration time.Duration, stack int32) int64 {
	blocks := int64(duration / (12 * time.Hour))
	if blocks < 1 {
		blocks = 1
	}
	return item.SellPrice * int64(stack) * depositRatePct * blocks / 100
}

// SettleExpired drains every listing past its expiry: a listing with a
// standing bid settles as a bid sale, the rest return to their owner.
func (s *Store) SettleExpired(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.listings.GetExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, row := range rows {
		if err := s.settleOne(ctx, row); err != nil {
			slog.Error("Failed to settle expired listing",
				slog.Int64("listing_id", row.ID),
				slog.String("error", err.Error()))
			continue
		}
		settled++
	}

	if settled > 0 {
		slog.Info("Settled expired listings", slog.Int("count", settled))
	}
	return settled, nil
}

func (s *Store) settleOne(ctx context.Context, row *models.Listing) error {
	tx, err := s.listings.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.listings.DeleteWithTx(ctx, tx, row.ID); err != nil {
		return err
	}

	if row.BidderID != 0 {
		if err := s.mailer.SendProceeds(ctx, tx, row.OwnerID, row.ID, row.Bid); err != nil {
			return err
		}
		if err := s.mailer.SendDelivery(ctx, tx, row.BidderID, row); err != nil {
			return err
		}
		if err := s.history.CreateWithTx(ctx, tx, &models.SaleHistory{
			ItemID:  row.ItemID,
			HouseID: row.HouseID,
			Price:   perUnit(row.Bid, row.StackCount),
			Kind:    models.SaleKindBid,
			SoldAt:  time.Now(),
		}); err != nil {
			return err
		}
	} else {
		if err := s.mailer.SendExpired(ctx, tx, row.OwnerID, row); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// perUnit records history per unit so stacks of different sizes feed the
// same moving average.
func perUnit(price int64, stack int32) int64 {
	if stack <= 1 {
		return price
	}
	return price / int64(stack)
}

func toEngineListings(rows []*models.Listing) []engine.Listing {
	out := make([]engine.Listing, len(rows))
	for i, row := range rows {
		out[i] = engine.Listing{
			ID:         row.ID,
			HouseID:    engine.House(row.HouseID),
			ItemID:     row.ItemID,
			Owner:      row.OwnerID,
			Bidder:     row.BidderID,
			StartBid:   row.StartBid,
			Bid:        row.Bid,
			Buyout:     row.Buyout,
			Deposit:    row.Deposit,
			StackCount: row.StackCount,
			ExpiresAt:  row.ExpiresAt,
		}
	}
	return out
}
