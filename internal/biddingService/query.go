package bidding

import (
	"art-auction/internal/biddingerrors"
	"art-auction/internal/models"
	"art-auction/utils"
	"context"
	"errors"
	"fmt"
	"sort"
)

// ListActiveAuctions returns open auctions, soonest-ending first, each joined with
// its artwork, artist and most recent bids.
func (s *BiddingService) ListActiveAuctions(ctx context.Context) ([]models.AuctionListing, error) {
	auctions, err := s.repo.ListAuctionsByStatus(ctx, models.AuctionActive)
	if err != nil {
		return nil, wrapRepoErr("failed to list active auctions", err)
	}

	users := make(map[string]*models.User)
	listings := make([]models.AuctionListing, 0, len(auctions))
	for _, auction := range auctions {
		auction, err = s.CheckAndCloseIfExpired(ctx, auction)
		if err != nil {
			return nil, err
		}
		if auction.Status != models.AuctionActive {
			continue
		}

		artwork, artist, err := s.resolveArtwork(ctx, auction.ArtworkID, users)
		if err != nil {
			return nil, err
		}

		bids, err := s.repo.GetBidsByAuction(ctx, auction.AuctionID)
		if err != nil {
			return nil, wrapRepoErr("failed to get bids for auction "+auction.AuctionID, err)
		}
		recent := sortBids(bids, models.OrderByTime)
		if len(recent) > s.bidsPerListing {
			recent = recent[:s.bidsPerListing]
		}

		listings = append(listings, models.AuctionListing{
			Auction:    auction,
			Artwork:    artwork,
			Artist:     artist,
			RecentBids: s.bidViews(ctx, recent, users),
		})
	}
	return listings, nil
}

// GetAuctionDetail returns one auction with its artwork, artist and full bid history
func (s *BiddingService) GetAuctionDetail(ctx context.Context, auctionID string, order models.BidOrder) (models.AuctionDetail, error) {
	if auctionID == "" {
		return models.AuctionDetail{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	if order == "" {
		order = models.OrderByAmount
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionDetail{}, wrapRepoErr("failed to load auction "+auctionID, err)
	}
	auction, err = s.CheckAndCloseIfExpired(ctx, auction)
	if err != nil {
		return models.AuctionDetail{}, err
	}

	users := make(map[string]*models.User)
	artwork, artist, err := s.resolveArtwork(ctx, auction.ArtworkID, users)
	if err != nil {
		return models.AuctionDetail{}, err
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionDetail{}, wrapRepoErr("failed to get bids for auction "+auctionID, err)
	}

	return models.AuctionDetail{
		Auction: auction,
		Artwork: artwork,
		Artist:  artist,
		Bids:    s.bidViews(ctx, sortBids(bids, order), users),
	}, nil
}

// GetBidsForAuction returns the bid ledger of an auction in the requested order
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string, order models.BidOrder) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, wrapRepoErr("failed to get bids for auction "+auctionID, err)
	}

	return sortBids(bids, order), nil
}

// resolveArtwork loads an artwork and its artist. A missing catalog entry is not an error.
func (s *BiddingService) resolveArtwork(ctx context.Context, artworkID string, users map[string]*models.User) (*models.Artwork, *models.User, error) {
	artwork, err := s.directory.GetArtwork(ctx, artworkID)
	if errors.Is(err, biddingerrors.ErrArtworkNotFound) {
		utils.Warn("auctioned artwork missing from catalog", map[string]any{"artwork_id": artworkID})
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, wrapRepoErr("failed to load artwork "+artworkID, err)
	}
	return &artwork, s.lookupUser(ctx, artwork.ArtistID, users), nil
}

func (s *BiddingService) bidViews(ctx context.Context, bids []models.Bid, users map[string]*models.User) []models.BidView {
	views := make([]models.BidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, models.BidView{Bid: b, Bidder: s.lookupUser(ctx, b.BidderID, users)})
	}
	return views
}

// sortBids returns a sorted copy: by amount or by time, newest/highest first.
// Any other order leaves commit order untouched.
func sortBids(bids []models.Bid, order models.BidOrder) []models.Bid {
	sorted := append([]models.Bid{}, bids...)
	switch order {
	case models.OrderByAmount:
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Amount == sorted[j].Amount {
				return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
			}
			return sorted[i].Amount > sorted[j].Amount
		})
	case models.OrderByTime:
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
				return sorted[i].Amount > sorted[j].Amount
			}
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}
	return sorted
}
