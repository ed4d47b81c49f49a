package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Clock supplies the commit timestamp of a bid. PlaceBid reads it inside its critical section.
type Clock func() time.Time

// AuctionDB defines the auction and bid storage interface.
// PlaceBid is the only operation that mutates the bid ledger or current price.
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctionsByStatus(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error)
	MarkEnded(ctx context.Context, auctionID string) (bool, error)
	PlaceBid(ctx context.Context, bid model.Bid, now Clock) (model.Bid, model.Auction, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error)
	GetAuctionsByBidder(ctx context.Context, bidderID string) ([]model.Auction, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu            sync.RWMutex
	auctions      map[string]model.Auction // key: auctionID -> value: auction
	bids          map[string][]model.Bid   // key: auctionID -> value: bids in commit order
	bidderAuction map[string][]string      // key: bidderID -> value: auctionIDs the user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:      make(map[string]model.Auction),
		bids:          make(map[string][]model.Bid),
		bidderAuction: make(map[string][]string),
	}
}

// CreateAuction stores a new auction, refusing a second open auction for the same artwork.
// An open auction whose end time has passed is closed first.
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.auctions {
		if existing.ArtworkID != auction.ArtworkID || existing.Status != model.AuctionActive {
			continue
		}
		if !existing.Expired(auction.CreatedAt) {
			return fmt.Errorf("create auction for artwork %s: %w", auction.ArtworkID, biddingerrors.ErrAuctionExists)
		}
		existing.Status = model.AuctionEnded
		r.auctions[id] = existing
	}

	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns a copy of the stored auction
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctionsByStatus returns auctions in the given status, soonest-ending first
func (r *MemoryRepo) ListAuctionsByStatus(_ context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		if a.Status == status {
			auctions = append(auctions, a)
		}
	}
	sortByEndTime(auctions)
	return auctions, nil
}

// sortByEndTime orders auctions soonest-ending first, ties broken by id
func sortByEndTime(auctions []model.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		if auctions[i].EndTime.Equal(auctions[j].EndTime) {
			return auctions[i].AuctionID < auctions[j].AuctionID
		}
		return auctions[i].EndTime.Before(auctions[j].EndTime)
	})
}

// MarkEnded transitions an active auction to ended. It reports whether this call made the change.
func (r *MemoryRepo) MarkEnded(_ context.Context, auctionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("mark auction %s ended: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if auction.Status == model.AuctionEnded {
		return false, nil
	}
	auction.Status = model.AuctionEnded
	r.auctions[auctionID] = auction
	return true, nil
}

// PlaceBid stamps the bid, re-validates it against the stored auction and, under the
// same lock, appends it to the ledger and advances the current price. The returned bid
// carries the commit timestamp.
func (r *MemoryRepo) PlaceBid(_ context.Context, bid model.Bid, now Clock) (model.Bid, model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return model.Bid{}, model.Auction{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	ledger := r.bids[bid.AuctionID]
	var last *model.Bid
	if len(ledger) > 0 {
		last = &ledger[len(ledger)-1]
	}
	bid.CreatedAt = commitTime(now, last)

	if auction.Expired(bid.CreatedAt) {
		auction.Status = model.AuctionEnded
		r.auctions[auction.AuctionID] = auction
	}
	if !auction.IsOpen(bid.CreatedAt) {
		return model.Bid{}, model.Auction{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionClosed)
	}
	if bid.Amount <= auction.CurrentPrice {
		return model.Bid{}, model.Auction{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.NewBidTooLow(auction.CurrentPrice))
	}

	r.bids[bid.AuctionID] = append(ledger, bid)
	auction.CurrentPrice = bid.Amount
	r.auctions[auction.AuctionID] = auction

	for _, id := range r.bidderAuction[bid.BidderID] {
		if id == bid.AuctionID {
			return bid, auction, nil
		}
	}
	r.bidderAuction[bid.BidderID] = append(r.bidderAuction[bid.BidderID], bid.AuctionID)

	return bid, auction, nil
}

// commitTime reads the clock and keeps the ledger strictly increasing in time,
// so the newest bid is always the highest one.
func commitTime(now Clock, last *model.Bid) time.Time {
	stamp := now().UTC()
	if last != nil && !stamp.After(last.CreatedAt) {
		stamp = last.CreatedAt.Add(time.Nanosecond)
	}
	return stamp
}

// GetBidsByAuction returns all bids for an auction in commit order
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid{}, r.bids[auctionID]...), nil
}

// GetWinningBid returns the highest bid for an auction
func (r *MemoryRepo) GetWinningBid(_ context.Context, auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, nil
}

// GetAuctionsByBidder returns all auctions a user has bid on, soonest-ending first
func (r *MemoryRepo) GetAuctionsByBidder(_ context.Context, bidderID string) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctionIDs, ok := r.bidderAuction[bidderID]
	if !ok || len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get auctions for bidder %s: %w", bidderID, biddingerrors.ErrUserNoBids)
	}

	auctions := make([]model.Auction, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		if auction, exists := r.auctions[id]; exists {
			auctions = append(auctions, auction)
		}
	}
	sortByEndTime(auctions)
	return auctions, nil
}

// AddAuction stores an auction as-is, bypassing the open-auction check. Intended for tests and seeding.
func (r *MemoryRepo) AddAuction(auction model.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auction.CreatedAt.IsZero() {
		auction.CreatedAt = time.Now().UTC()
	}
	r.auctions[auction.AuctionID] = auction
}
