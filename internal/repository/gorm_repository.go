package repository

import (
	"context"
	"errors"
	"fmt"

	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"

	"gorm.io/gorm"
)

// GormRepo is a relational implementation of AuctionDB. Bid placement runs in a
// single transaction guarded by a conditional price update.
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo wraps an already migrated GORM connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrStorage, err)
}

// CreateAuction inserts a new auction unless the artwork already has an open one
func (r *GormRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	const op = "repository.gorm.CreateAuction"

	var outcome error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Auction
		err := tx.Where("artwork_id = ? AND status = ?", auction.ArtworkID, model.AuctionActive).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		case existing.Expired(auction.CreatedAt):
			if err := tx.Model(&model.Auction{}).
				Where("auction_id = ? AND status = ?", existing.AuctionID, model.AuctionActive).
				Update("status", model.AuctionEnded).Error; err != nil {
				return err
			}
		default:
			outcome = fmt.Errorf("%s: artwork %s: %w", op, auction.ArtworkID, biddingerrors.ErrAuctionExists)
			return nil
		}

		return tx.Create(&auction).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: artwork %s: %w", op, auction.ArtworkID, biddingerrors.ErrAuctionExists)
	}
	if err != nil {
		return storageErr(op, err)
	}
	return outcome
}

// GetAuction loads one auction by id
func (r *GormRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	const op = "repository.gorm.GetAuction"

	var auction model.Auction
	err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).First(&auction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Auction{}, fmt.Errorf("%s: %s: %w", op, auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, storageErr(op, err)
	}
	return auction, nil
}

// ListAuctionsByStatus returns auctions in the given status, soonest-ending first
func (r *GormRepo) ListAuctionsByStatus(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	const op = "repository.gorm.ListAuctionsByStatus"

	var auctions []model.Auction
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("end_time ASC, auction_id ASC").
		Find(&auctions).Error; err != nil {
		return nil, storageErr(op, err)
	}
	return auctions, nil
}

// MarkEnded transitions an active auction to ended. It reports whether this call made the change.
func (r *GormRepo) MarkEnded(ctx context.Context, auctionID string) (bool, error) {
	const op = "repository.gorm.MarkEnded"

	res := r.db.WithContext(ctx).Model(&model.Auction{}).
		Where("auction_id = ? AND status = ?", auctionID, model.AuctionActive).
		Update("status", model.AuctionEnded)
	if res.Error != nil {
		return false, storageErr(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return false, err
	}
	return false, nil
}

// PlaceBid stamps the bid and appends it together with the new current price in one
// transaction. The price update only applies while the auction is active and the stored
// price is still below the bid, so a writer working from a stale snapshot is rejected.
func (r *GormRepo) PlaceBid(ctx context.Context, bid model.Bid, now Clock) (model.Bid, model.Auction, error) {
	const op = "repository.gorm.PlaceBid"

	var (
		updated model.Auction
		outcome error
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction model.Auction
		if err := tx.Where("auction_id = ?", bid.AuctionID).First(&auction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = fmt.Errorf("%s: %s: %w", op, bid.AuctionID, biddingerrors.ErrAuctionNotFound)
				return nil
			}
			return err
		}

		var last []model.Bid
		if err := tx.Where("auction_id = ?", bid.AuctionID).
			Order("created_at DESC").
			Limit(1).
			Find(&last).Error; err != nil {
			return err
		}
		var lastBid *model.Bid
		if len(last) > 0 {
			lastBid = &last[0]
		}
		bid.CreatedAt = commitTime(now, lastBid)

		if auction.Expired(bid.CreatedAt) {
			if err := tx.Model(&model.Auction{}).
				Where("auction_id = ? AND status = ?", auction.AuctionID, model.AuctionActive).
				Update("status", model.AuctionEnded).Error; err != nil {
				return err
			}
			auction.Status = model.AuctionEnded
		}
		if !auction.IsOpen(bid.CreatedAt) {
			outcome = fmt.Errorf("%s: %s: %w", op, bid.AuctionID, biddingerrors.ErrAuctionClosed)
			return nil
		}
		if bid.Amount <= auction.CurrentPrice {
			outcome = fmt.Errorf("%s: %s: %w", op, bid.AuctionID, biddingerrors.NewBidTooLow(auction.CurrentPrice))
			return nil
		}

		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND status = ? AND current_price < ?", auction.AuctionID, model.AuctionActive, bid.Amount).
			Update("current_price", bid.Amount)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var fresh model.Auction
			if err := tx.Where("auction_id = ?", auction.AuctionID).First(&fresh).Error; err != nil {
				return err
			}
			if fresh.Status != model.AuctionActive {
				outcome = fmt.Errorf("%s: %s: %w", op, bid.AuctionID, biddingerrors.ErrAuctionClosed)
			} else {
				outcome = fmt.Errorf("%s: %s: %w", op, bid.AuctionID, biddingerrors.NewBidTooLow(fresh.CurrentPrice))
			}
			return nil
		}

		if err := tx.Create(&bid).Error; err != nil {
			return err
		}

		auction.CurrentPrice = bid.Amount
		updated = auction
		return nil
	})
	if err != nil {
		return model.Bid{}, model.Auction{}, storageErr(op, err)
	}
	if outcome != nil {
		return model.Bid{}, model.Auction{}, outcome
	}
	return bid, updated, nil
}

// GetBidsByAuction returns the ledger of an auction in commit order
func (r *GormRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	const op = "repository.gorm.GetBidsByAuction"

	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	bids := []model.Bid{}
	if err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at ASC, amount ASC").
		Find(&bids).Error; err != nil {
		return nil, storageErr(op, err)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for an auction
func (r *GormRepo) GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	const op = "repository.gorm.GetWinningBid"

	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return model.Bid{}, err
	}

	var bid model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount DESC, created_at ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("%s: %s: %w", op, auctionID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, storageErr(op, err)
	}
	return bid, nil
}

// GetAuctionsByBidder returns all auctions a user has bid on, soonest-ending first
func (r *GormRepo) GetAuctionsByBidder(ctx context.Context, bidderID string) ([]model.Auction, error) {
	const op = "repository.gorm.GetAuctionsByBidder"

	db := r.db.WithContext(ctx)
	var auctions []model.Auction
	if err := db.
		Where("auction_id IN (?)", db.Model(&model.Bid{}).Select("auction_id").Where("bidder_id = ?", bidderID)).
		Order("end_time ASC, auction_id ASC").
		Find(&auctions).Error; err != nil {
		return nil, storageErr(op, err)
	}
	if len(auctions) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", op, bidderID, biddingerrors.ErrUserNoBids)
	}
	return auctions, nil
}
