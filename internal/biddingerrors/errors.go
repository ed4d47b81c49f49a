package biddingerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrUserNoBids      = errors.New("user has not placed any bids")
	ErrAuctionExists   = errors.New("artwork already has an open auction")
	ErrStorage         = errors.New("storage failure")
)

// business logic errors
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrAuctionClosed     = errors.New("auction closed")
	ErrAuctionNotStarted = errors.New("auction has not started")
	ErrBidTooLow         = errors.New("bid amount too low")
)

// BidTooLowError is returned when a bid does not exceed the current price.
// It matches ErrBidTooLow with errors.Is.
type BidTooLowError struct {
	CurrentPrice  int64
	MinimumAmount int64
}

// NewBidTooLow builds a BidTooLowError for the given current price.
func NewBidTooLow(currentPrice int64) *BidTooLowError {
	return &BidTooLowError{
		CurrentPrice:  currentPrice,
		MinimumAmount: currentPrice + 1,
	}
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: minimum acceptable amount is %d", ErrBidTooLow, e.MinimumAmount)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
