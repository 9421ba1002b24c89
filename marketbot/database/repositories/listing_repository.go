package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"marketbot/marketbot/database/models"
)

var ErrListingNotFound = errors.New("listing not found")

type ListingRepository interface {
	DB() *bun.DB
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	GetActive(ctx context.Context, houseID int32) ([]*models.Listing, error)
	GetActiveExcluding(ctx context.Context, houseID int32, identities []int64) ([]*models.Listing, error)
	GetExpired(ctx context.Context, now time.Time) ([]*models.Listing, error)
	UpdateBid(ctx context.Context, listingID int64, bidderID int64, amount int64) (displaced *models.Listing, err error)
	Delete(ctx context.Context, listingID int64) error
	DeleteWithTx(ctx context.Context, tx bun.Tx, listingID int64) error
	ExpireOwnedBy(ctx context.Context, houseID int32, identities []int64, at time.Time) (int64, error)
	CountByHouse(ctx context.Context, houseID int32) (int, error)
}

type listingRepository struct {
	db *bun.DB
}

func NewListingRepository(db *bun.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) DB() *bun.DB {
	return r.db
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().Model(listing).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	listing := new(models.Listing)
	err := r.db.NewSelect().
		Model(listing).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

func (r *listingRepository) GetActive(ctx context.Context, houseID int32) ([]*models.Listing, error) {
	var listings []*models.Listing

	err := r.db.NewSelect().
		Model(&listings).
		Where("house_id = ?", houseID).
		Where("expires_at > ?", time.Now()).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get active listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) GetActiveExcluding(ctx context.Context, houseID int32, identities []int64) ([]*models.Listing, error) {
	var listings []*models.Listing

	q := r.db.NewSelect().
		Model(&listings).
		Where("house_id = ?", houseID).
		Where("expires_at > ?", time.Now())
	if len(identities) > 0 {
		q = q.Where("owner_id NOT IN (?)", bun.In(identities)).
			Where("bidder_id IS NULL OR bidder_id = 0 OR bidder_id NOT IN (?)", bun.In(identities))
	}

	if err := q.Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get purchasable listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.Listing, error) {
	var listings []*models.Listing

	err := r.db.NewSelect().
		Model(&listings).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get expired listings: %w", err)
	}
	return listings, nil
}

// UpdateBid records a new highest bid under a row lock and returns the
// displaced bidder's listing state, if any, so a refund can be mailed.
func (r *listingRepository) UpdateBid(ctx context.Context, listingID int64, bidderID int64, amount int64) (*models.Listing, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	listing := new(models.Listing)
	err = tx.NewSelect().
		Model(listing).
		Where("id = ?", listingID).
		For("UPDATE").
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing for update: %w", err)
	}

	var displaced *models.Listing
	if listing.BidderID != 0 && listing.BidderID != bidderID {
		prev := *listing
		displaced = &prev
	}

	_, err = tx.NewUpdate().
		Model(listing).
		Set("bid = ?", amount).
		Set("bidder_id = ?", bidderID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", listingID).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return displaced, nil
}

func (r *listingRepository) Delete(ctx context.Context, listingID int64) error {
	result, err := r.db.NewDelete().
		Model((*models.Listing)(nil)).
		Where("id = ?", listingID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) DeleteWithTx(ctx context.Context, tx bun.Tx, listingID int64) error {
	result, err := tx.NewDelete().
		Model((*models.Listing)(nil)).
		Where("id = ?", listingID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ExpireOwnedBy backdates the expiry of every bot-owned listing on the
// house so the next expiry sweep drains them.
func (r *listingRepository) ExpireOwnedBy(ctx context.Context, houseID int32, identities []int64, at time.Time) (int64, error) {
	if len(identities) == 0 {
		return 0, nil
	}

	result, err := r.db.NewUpdate().
		Model((*models.Listing)(nil)).
		Set("expires_at = ?", at).
		Set("updated_at = ?", time.Now()).
		Where("house_id = ?", houseID).
		Where("owner_id IN (?)", bun.In(identities)).
		Where("expires_at > ?", at).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (r *listingRepository) CountByHouse(ctx context.Context, houseID int32) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.Listing)(nil)).
		Where("house_id = ?", houseID).
		Where("expires_at > ?", time.Now()).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}
