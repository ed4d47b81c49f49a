package repository

import (
	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Helper to create a new active Auction
func newAuction(auctionID, artworkID string, price int64, endTime time.Time) model.Auction {
	return model.Auction{
		AuctionID:     auctionID,
		ArtworkID:     artworkID,
		StartTime:     base.Add(-time.Hour),
		EndTime:       endTime,
		StartingPrice: price,
		CurrentPrice:  price,
		Status:        model.AuctionActive,
		CreatedAt:     base.Add(-time.Hour),
	}
}

// Helper to create a new Bid. The repository stamps it on commit.
func newBid(bidID, auctionID, bidderID string, amount int64) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
	}
}

// at returns a clock frozen at t
func at(t time.Time) Clock {
	return func() time.Time { return t }
}

// Test CreateAuction
func TestMemoryRepo_CreateAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(ctx, newAuction("a1", "art1", 1000, base.Add(time.Hour))))
	require.NoError(t, repo.CreateAuction(ctx, newAuction("a2", "art2", 1000, base.Add(-time.Minute))))

	replacement := newAuction("a3", "art2", 2000, base.Add(time.Hour))
	replacement.CreatedAt = base

	tests := []struct {
		name    string
		auction model.Auction
		wantErr error
	}{
		{name: "artwork_with_open_auction", auction: newAuction("a4", "art1", 500, base.Add(2*time.Hour)), wantErr: biddingerrors.ErrAuctionExists},
		{name: "artwork_with_expired_open_auction", auction: replacement},
		{name: "new_artwork", auction: newAuction("a5", "art3", 100, base.Add(time.Hour))},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := repo.CreateAuction(ctx, tc.auction)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			stored, err := repo.GetAuction(ctx, tc.auction.AuctionID)
			require.NoError(t, err)
			require.Equal(t, tc.auction, stored)
		})
	}

	t.Run("expired_auction_closed_on_replacement", func(t *testing.T) {
		old, err := repo.GetAuction(ctx, "a2")
		require.NoError(t, err)
		require.Equal(t, model.AuctionEnded, old.Status)
	})
}

// Test PlaceBid
func TestMemoryRepo_PlaceBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("a1", "art1", 1000, base.Add(time.Hour)))

	// Steps run in order: each one sees the price left by the previous step
	steps := []struct {
		name      string
		bid       model.Bid
		at        time.Time
		wantErr   error
		wantPrice int64
	}{
		{name: "first_bid_above_start", bid: newBid("b1", "a1", "u1", 1500), at: base, wantPrice: 1500},
		{name: "equal_to_current_price", bid: newBid("b2", "a1", "u2", 1500), at: base.Add(time.Second), wantErr: biddingerrors.ErrBidTooLow, wantPrice: 1500},
		{name: "below_current_price", bid: newBid("b3", "a1", "u2", 1200), at: base.Add(time.Second), wantErr: biddingerrors.ErrBidTooLow, wantPrice: 1500},
		{name: "zero_amount", bid: newBid("b4", "a1", "u2", 0), at: base.Add(time.Second), wantErr: biddingerrors.ErrBidTooLow, wantPrice: 1500},
		{name: "negative_amount", bid: newBid("b5", "a1", "u2", -10), at: base.Add(time.Second), wantErr: biddingerrors.ErrBidTooLow, wantPrice: 1500},
		{name: "outbid_by_one", bid: newBid("b6", "a1", "u2", 1501), at: base.Add(2 * time.Second), wantPrice: 1501},
		{name: "unknown_auction", bid: newBid("b7", "missing", "u1", 5000), at: base, wantErr: biddingerrors.ErrAuctionNotFound, wantPrice: 1501},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			placed, updated, err := repo.PlaceBid(ctx, step.bid, at(step.at))
			if step.wantErr != nil {
				require.ErrorIs(t, err, step.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, step.bid.Amount, updated.CurrentPrice)
				require.Equal(t, step.at, placed.CreatedAt)
			}

			auction, err := repo.GetAuction(ctx, "a1")
			require.NoError(t, err)
			require.Equal(t, step.wantPrice, auction.CurrentPrice)
		})
	}

	t.Run("bid_too_low_reports_minimum", func(t *testing.T) {
		_, _, err := repo.PlaceBid(ctx, newBid("b9", "a1", "u3", 1), at(base))
		var tooLow *biddingerrors.BidTooLowError
		require.True(t, errors.As(err, &tooLow))
		require.Equal(t, int64(1501), tooLow.CurrentPrice)
		require.Equal(t, int64(1502), tooLow.MinimumAmount)
	})

	t.Run("clock_behind_last_bid_is_clamped", func(t *testing.T) {
		placed, _, err := repo.PlaceBid(ctx, newBid("b10", "a1", "u1", 1600), at(base.Add(time.Second)))
		require.NoError(t, err)
		require.Equal(t, base.Add(2*time.Second+time.Nanosecond), placed.CreatedAt)

		bids, err := repo.GetBidsByAuction(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, bids, 3)
		for i := 1; i < len(bids); i++ {
			require.True(t, bids[i].CreatedAt.After(bids[i-1].CreatedAt))
			require.Greater(t, bids[i].Amount, bids[i-1].Amount)
		}
	})

	t.Run("bid_at_end_time_ends_auction", func(t *testing.T) {
		_, _, err := repo.PlaceBid(ctx, newBid("b8", "a1", "u1", 9000), at(base.Add(time.Hour)))
		require.ErrorIs(t, err, biddingerrors.ErrAuctionClosed)

		auction, err := repo.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, model.AuctionEnded, auction.Status)

		bids, err := repo.GetBidsByAuction(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, bids, 3)
	})
}

func TestMemoryRepo_PlaceBid_StampedAtCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("a1", "art1", 1000, base.Add(time.Hour)))

	// A stalled writer commits after a later bid and after the end time
	_, _, err := repo.PlaceBid(ctx, newBid("b1", "a1", "u1", 1001), at(base))
	require.NoError(t, err)

	_, _, err = repo.PlaceBid(ctx, newBid("b2", "a1", "u2", 1002), at(base.Add(time.Hour+time.Second)))
	require.ErrorIs(t, err, biddingerrors.ErrAuctionClosed)

	auction, err := repo.GetAuction(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(1001), auction.CurrentPrice)
	require.Equal(t, model.AuctionEnded, auction.Status)
}

func TestMemoryRepo_PlaceBid_Concurrent(t *testing.T) {
	t.Parallel()

	t.Run("distinct_amounts", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		repo := NewMemoryRepo()
		repo.AddAuction(newAuction("a1", "art1", 1000, base.Add(time.Hour)))

		var wg sync.WaitGroup
		concurrentCount := 50
		accepted := make(chan int64, concurrentCount)

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				amount := int64(1001 + i)
				_, _, err := repo.PlaceBid(ctx, newBid(fmt.Sprintf("bid-%d", i), "a1", fmt.Sprintf("user-%d", i), amount), at(base))
				if err == nil {
					accepted <- amount
					return
				}
				if !errors.Is(err, biddingerrors.ErrBidTooLow) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		close(accepted)

		auction, err := repo.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, int64(1000+concurrentCount), auction.CurrentPrice)

		bids, err := repo.GetBidsByAuction(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, bids, len(accepted))
		for i := 1; i < len(bids); i++ {
			require.Greater(t, bids[i].Amount, bids[i-1].Amount)
			require.True(t, bids[i].CreatedAt.After(bids[i-1].CreatedAt))
		}
	})

	t.Run("race_for_same_price", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		repo := NewMemoryRepo()
		repo.AddAuction(newAuction("a1", "art1", 1000, base.Add(time.Hour)))

		var wg sync.WaitGroup
		for _, amount := range []int64{1001, 1002} {
			wg.Add(1)
			go func(amount int64) {
				defer wg.Done()
				_, _, _ = repo.PlaceBid(ctx, newBid(fmt.Sprintf("bid-%d", amount), "a1", "user", amount), at(base))
			}(amount)
		}
		wg.Wait()

		auction, err := repo.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, int64(1002), auction.CurrentPrice)

		winning, err := repo.GetWinningBid(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, auction.CurrentPrice, winning.Amount)
	})
}

// Test GetBidsByAuction
func TestMemoryRepo_GetBidsByAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("a1", "art1", 100, base.Add(time.Hour)))
	repo.AddAuction(newAuction("a2", "art2", 100, base.Add(time.Hour)))

	bid1, _, err := repo.PlaceBid(ctx, newBid("bid1", "a1", "user1", 200), at(base))
	require.NoError(t, err)
	bid2, _, err := repo.PlaceBid(ctx, newBid("bid2", "a1", "user2", 300), at(base.Add(time.Second)))
	require.NoError(t, err)

	tests := []struct {
		name      string
		auctionID string
		wantBids  []model.Bid
		wantErr   error
	}{
		{name: "auction_with_bids", auctionID: "a1", wantBids: []model.Bid{bid1, bid2}},
		{name: "auction_without_bids", auctionID: "a2", wantBids: []model.Bid{}},
		{name: "non_existing_auction", auctionID: "aX", wantErr: biddingerrors.ErrAuctionNotFound},
		{name: "empty_auctionID", auctionID: "", wantErr: biddingerrors.ErrAuctionNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bids, err := repo.GetBidsByAuction(ctx, tc.auctionID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantBids, bids)
		})
	}

	t.Run("returned_slice_is_a_copy", func(t *testing.T) {
		t.Parallel()

		bids, err := repo.GetBidsByAuction(ctx, "a1")
		require.NoError(t, err)
		bids[0].Amount = 1

		again, err := repo.GetBidsByAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, int64(200), again[0].Amount)
	})
}

// Test GetWinningBid
func TestMemoryRepo_GetWinningBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("a1", "art1", 100, base.Add(time.Hour)))
	repo.AddAuction(newAuction("a2", "art2", 100, base.Add(time.Hour)))

	var last model.Bid
	for i := 0; i < 100; i++ {
		var err error
		last, _, err = repo.PlaceBid(ctx, newBid(fmt.Sprintf("bid-%d", i), "a1", fmt.Sprintf("user-%d", i%7), int64(101+i)),
			at(base.Add(time.Duration(i)*time.Millisecond)))
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		auctionID string
		wantBid   model.Bid
		wantErr   error
	}{
		{name: "auction_with_bids", auctionID: "a1", wantBid: last},
		{name: "auction_without_bids", auctionID: "a2", wantErr: biddingerrors.ErrNoBids},
		{name: "non_existing_auction", auctionID: "aX", wantErr: biddingerrors.ErrAuctionNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bid, err := repo.GetWinningBid(ctx, tc.auctionID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantBid, bid)
		})
	}
}

// Test GetAuctionsByBidder
func TestMemoryRepo_GetAuctionsByBidder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	a1 := newAuction("a1", "art1", 100, base.Add(time.Hour))
	a2 := newAuction("a2", "art2", 100, base.Add(2*time.Hour))
	repo.AddAuction(a1)
	repo.AddAuction(a2)

	for _, b := range []model.Bid{
		newBid("bid1", "a1", "user1", 200),
		newBid("bid2", "a2", "user1", 150),
		newBid("bid3", "a1", "user2", 250),
		newBid("bid4", "a1", "user1", 300),
	} {
		_, _, err := repo.PlaceBid(ctx, b, at(base))
		require.NoError(t, err)
	}

	tests := []struct {
		name         string
		bidderID     string
		wantAuctions []string
		wantErr      error
	}{
		{name: "user_with_multiple_auctions", bidderID: "user1", wantAuctions: []string{"a2", "a1"}},
		{name: "user_with_single_auction", bidderID: "user2", wantAuctions: []string{"a1"}},
		{name: "user_without_bids", bidderID: "userX", wantErr: biddingerrors.ErrUserNoBids},
		{name: "empty_bidderID", bidderID: "", wantErr: biddingerrors.ErrUserNoBids},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			auctions, err := repo.GetAuctionsByBidder(ctx, tc.bidderID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(auctions))
			for _, a := range auctions {
				ids = append(ids, a.AuctionID)
			}
			require.Equal(t, tc.wantAuctions, ids)
		})
	}
}

func TestMemoryRepo_MarkEnded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("a1", "art1", 100, base.Add(time.Hour)))

	changed, err := repo.MarkEnded(ctx, "a1")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.MarkEnded(ctx, "a1")
	require.NoError(t, err)
	require.False(t, changed)

	_, err = repo.MarkEnded(ctx, "missing")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)

	_, _, err = repo.PlaceBid(ctx, newBid("bid1", "a1", "user1", 500), at(base))
	require.ErrorIs(t, err, biddingerrors.ErrAuctionClosed)
}

func TestMemoryRepo_ListAuctionsByStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("late", "art1", 100, base.Add(3*time.Hour)))
	repo.AddAuction(newAuction("soon", "art2", 100, base.Add(time.Hour)))
	repo.AddAuction(newAuction("b-tie", "art3", 100, base.Add(2*time.Hour)))
	repo.AddAuction(newAuction("a-tie", "art4", 100, base.Add(2*time.Hour)))
	repo.AddAuction(newAuction("done", "art5", 100, base.Add(time.Hour)))
	_, err := repo.MarkEnded(ctx, "done")
	require.NoError(t, err)

	active, err := repo.ListAuctionsByStatus(ctx, model.AuctionActive)
	require.NoError(t, err)
	ids := make([]string, 0, len(active))
	for _, a := range active {
		ids = append(ids, a.AuctionID)
	}
	require.Equal(t, []string{"soon", "a-tie", "b-tie", "late"}, ids)

	ended, err := repo.ListAuctionsByStatus(ctx, model.AuctionEnded)
	require.NoError(t, err)
	require.Len(t, ended, 1)
	require.Equal(t, "done", ended[0].AuctionID)
}
