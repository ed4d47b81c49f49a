package bidding

import (
	"art-auction/internal/models"
	"art-auction/utils"
	"context"
	"time"
)

// CheckAndCloseIfExpired ends an active auction whose end time has passed and
// returns the auction with its fresh status. Repeated calls are no-ops; an ended
// auction is never reopened.
func (s *BiddingService) CheckAndCloseIfExpired(ctx context.Context, auction models.Auction) (models.Auction, error) {
	if !auction.Expired(s.clock()) {
		return auction, nil
	}

	changed, err := s.repo.MarkEnded(ctx, auction.AuctionID)
	if err != nil {
		return auction, wrapRepoErr("failed to end expired auction "+auction.AuctionID, err)
	}
	auction.Status = models.AuctionEnded

	if changed {
		utils.Info("auction ended", map[string]any{
			"auction_id":    auction.AuctionID,
			"end_time":      auction.EndTime.Format(time.RFC3339),
			"current_price": auction.CurrentPrice,
		})
	}
	return auction, nil
}
