package bidding

import (
	"art-auction/internal/biddingerrors"
	"art-auction/internal/catalog"
	"art-auction/internal/models"
	"art-auction/internal/repository"
	"art-auction/utils"
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultBidsPerListing = 3

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo           repository.AuctionDB
	directory      catalog.Directory
	now            func() time.Time
	bidsPerListing int
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock replaces the wall clock used for expiry checks and bid timestamps
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) {
		s.now = now
	}
}

// WithBidsPerListing sets how many recent bids each listing entry carries
func WithBidsPerListing(n int) Option {
	return func(s *BiddingService) {
		if n >= 0 {
			s.bidsPerListing = n
		}
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, directory catalog.Directory, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:           repo,
		directory:      directory,
		now:            time.Now,
		bidsPerListing: defaultBidsPerListing,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BiddingService) clock() time.Time {
	return s.now().UTC()
}

// PlaceBid validates a bid against the auction's current state and, if it passes,
// commits it and the new current price as one unit.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (models.PlacedBid, error) {
	if bidderID == "" {
		return models.PlacedBid{}, fmt.Errorf("service: %w - missing bidder identity", biddingerrors.ErrUnauthorized)
	}
	if auctionID == "" {
		return models.PlacedBid{}, fmt.Errorf("service: %w - missing auction ID", biddingerrors.ErrInvalidBid)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.PlacedBid{}, wrapRepoErr("failed to load auction "+auctionID, err)
	}

	auction, err = s.CheckAndCloseIfExpired(ctx, auction)
	if err != nil {
		return models.PlacedBid{}, err
	}

	if err := s.validateBid(auction, amount); err != nil {
		return models.PlacedBid{}, err
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
	}

	// The commit timestamp is taken by the repository under its lock
	bid, updated, err := s.repo.PlaceBid(ctx, bid, s.clock)
	if err != nil {
		return models.PlacedBid{}, wrapRepoErr(fmt.Sprintf("failed to record bid for auction %s by user %s", auctionID, bidderID), err)
	}

	return models.PlacedBid{
		Bid:     models.BidView{Bid: bid, Bidder: s.lookupUser(ctx, bidderID, nil)},
		Auction: updated,
	}, nil
}

// validateBid checks auction state and price rules for bidding
func (s *BiddingService) validateBid(auction models.Auction, amount int64) error {
	now := s.clock()
	if !auction.IsOpen(now) {
		return fmt.Errorf("service: %w - auction %s is %s", biddingerrors.ErrAuctionClosed, auction.AuctionID, auction.Status)
	}
	if now.Before(auction.StartTime) {
		return fmt.Errorf("service: %w - auction %s opens at %s", biddingerrors.ErrAuctionNotStarted,
			auction.AuctionID, auction.StartTime.Format(time.RFC3339))
	}
	if amount <= auction.CurrentPrice {
		return fmt.Errorf("service: %w", biddingerrors.NewBidTooLow(auction.CurrentPrice))
	}
	return nil
}

// CreateAuction opens an auction for an artwork owned by the seller
func (s *BiddingService) CreateAuction(ctx context.Context, req models.NewAuction) (models.Auction, error) {
	if req.SellerID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing seller identity", biddingerrors.ErrUnauthorized)
	}

	now := s.clock()
	if req.StartTime.IsZero() {
		req.StartTime = now
	}
	if err := validateNewAuction(req, now); err != nil {
		return models.Auction{}, err
	}

	artwork, err := s.directory.GetArtwork(ctx, req.ArtworkID)
	if err != nil {
		return models.Auction{}, wrapRepoErr("failed to load artwork "+req.ArtworkID, err)
	}
	if artwork.ArtistID != req.SellerID {
		return models.Auction{}, fmt.Errorf("service: %w - artwork %s does not belong to user %s",
			biddingerrors.ErrForbidden, req.ArtworkID, req.SellerID)
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		ArtworkID:     req.ArtworkID,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		StartingPrice: req.StartingPrice,
		CurrentPrice:  req.StartingPrice,
		Status:        models.AuctionActive,
		CreatedAt:     now,
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, wrapRepoErr("failed to create auction for artwork "+req.ArtworkID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id":     auction.AuctionID,
		"artwork_id":     auction.ArtworkID,
		"starting_price": auction.StartingPrice,
		"end_time":       auction.EndTime.Format(time.RFC3339),
	})
	return auction, nil
}

func validateNewAuction(req models.NewAuction, now time.Time) error {
	switch {
	case req.ArtworkID == "":
		return fmt.Errorf("service: %w - missing artwork ID", biddingerrors.ErrInvalidAuction)
	case req.StartingPrice <= 0:
		return fmt.Errorf("service: %w - starting price must be positive", biddingerrors.ErrInvalidAuction)
	case !req.StartTime.Before(req.EndTime):
		return fmt.Errorf("service: %w - start time must be before end time", biddingerrors.ErrInvalidAuction)
	case !now.Before(req.EndTime):
		return fmt.Errorf("service: %w - end time is in the past", biddingerrors.ErrInvalidAuction)
	}
	return nil
}

// CloseAuction ends an auction before its end time. Only the artist of the auctioned artwork may do so.
func (s *BiddingService) CloseAuction(ctx context.Context, auctionID, requesterID string) (models.Auction, error) {
	if requesterID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing user identity", biddingerrors.ErrUnauthorized)
	}
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing auction ID", biddingerrors.ErrInvalidAuction)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, wrapRepoErr("failed to load auction "+auctionID, err)
	}

	artwork, err := s.directory.GetArtwork(ctx, auction.ArtworkID)
	if err != nil {
		return models.Auction{}, wrapRepoErr("failed to load artwork "+auction.ArtworkID, err)
	}
	if artwork.ArtistID != requesterID {
		return models.Auction{}, fmt.Errorf("service: %w - user %s cannot close auction %s",
			biddingerrors.ErrForbidden, requesterID, auctionID)
	}

	changed, err := s.repo.MarkEnded(ctx, auctionID)
	if err != nil {
		return models.Auction{}, wrapRepoErr("failed to close auction "+auctionID, err)
	}
	auction.Status = models.AuctionEnded

	if changed {
		utils.Info("auction closed by owner", map[string]any{
			"auction_id":    auctionID,
			"user_id":       requesterID,
			"current_price": auction.CurrentPrice,
		})
	}
	return auction, nil
}

// GetWinningBid returns the highest bid for a specific auction. An unknown auction
// is reported as not found rather than as an auction without bids.
func (s *BiddingService) GetWinningBid(ctx context.Context, auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	winningBid, err := s.repo.GetWinningBid(ctx, auctionID)
	if err != nil {
		return models.Bid{}, wrapRepoErr("failed to get winning bid for auction "+auctionID, err)
	}

	return winningBid, nil
}

// GetAuctionsByBidder returns all auctions a user has placed bids on, with fresh status
func (s *BiddingService) GetAuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBid)
	}

	auctions, err := s.repo.GetAuctionsByBidder(ctx, bidderID)
	if err != nil {
		return nil, wrapRepoErr("failed to get auctions for user "+bidderID, err)
	}

	for i := range auctions {
		if auctions[i], err = s.CheckAndCloseIfExpired(ctx, auctions[i]); err != nil {
			return nil, err
		}
	}
	return auctions, nil
}

// lookupUser resolves a user identity for presentation. Missing users resolve to nil.
func (s *BiddingService) lookupUser(ctx context.Context, userID string, cache map[string]*models.User) *models.User {
	if cache != nil {
		if u, ok := cache[userID]; ok {
			return u
		}
	}

	var resolved *models.User
	user, err := s.directory.GetUser(ctx, userID)
	switch {
	case err == nil:
		resolved = &user
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		utils.Debug("user not found in directory", map[string]any{"user_id": userID})
	default:
		utils.Warn("failed to resolve user", map[string]any{"user_id": userID, "error": err.Error()})
	}

	if cache != nil {
		cache[userID] = resolved
	}
	return resolved
}

var domainErrors = []error{
	biddingerrors.ErrAuctionNotFound,
	biddingerrors.ErrArtworkNotFound,
	biddingerrors.ErrUserNotFound,
	biddingerrors.ErrAuctionClosed,
	biddingerrors.ErrBidTooLow,
	biddingerrors.ErrAuctionExists,
	biddingerrors.ErrNoBids,
	biddingerrors.ErrUserNoBids,
	biddingerrors.ErrStorage,
}

// wrapRepoErr adds service context to a repository error. Errors outside the
// domain taxonomy are reported as storage failures.
func wrapRepoErr(op string, err error) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return fmt.Errorf("service: %s: %w", op, err)
		}
	}
	return fmt.Errorf("service: %s: %w: %w", op, biddingerrors.ErrStorage, err)
}
