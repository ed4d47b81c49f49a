package helpers

import (
	"time"

	model "art-auction/internal/models"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places between minor and major currency units
const minorUnitExponent = 2

// Request/Response DTOs
type PlaceBidRequest struct {
	AuctionID string `json:"auction_id" binding:"required"`
	// Amount is in minor currency units and must be a whole number
	Amount *decimal.Decimal `json:"amount"`
}

type CreateAuctionRequest struct {
	ArtworkID     string           `json:"artwork_id" binding:"required"`
	StartingPrice *decimal.Decimal `json:"starting_price"`
	StartTime     *time.Time       `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
}

type BidderResponse struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

type BidResponse struct {
	BidID         string          `json:"bid_id"`
	AuctionID     string          `json:"auction_id"`
	BidderID      string          `json:"bidder_id"`
	Amount        int64           `json:"amount"`
	DisplayAmount string          `json:"display_amount"`
	CreatedAt     string          `json:"created_at"`
	Bidder        *BidderResponse `json:"bidder,omitempty"`
}

type AuctionResponse struct {
	AuctionID     string `json:"auction_id"`
	ArtworkID     string `json:"artwork_id"`
	Status        string `json:"status"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	StartingPrice int64  `json:"starting_price"`
	CurrentPrice  int64  `json:"current_price"`
	DisplayPrice  string `json:"display_price"`
	MinimumBid    int64  `json:"minimum_bid"`
}

type ArtworkResponse struct {
	ArtworkID   string `json:"artwork_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Materials   string `json:"materials"`
	Price       int64  `json:"price"`
}

type PlaceBidResponse struct {
	BidResponse
	Auction AuctionResponse `json:"auction"`
}

type AuctionListingResponse struct {
	Auction    AuctionResponse  `json:"auction"`
	Artwork    *ArtworkResponse `json:"artwork,omitempty"`
	Artist     *BidderResponse  `json:"artist,omitempty"`
	RecentBids []BidResponse    `json:"recent_bids"`
}

type AuctionDetailResponse struct {
	Auction AuctionResponse  `json:"auction"`
	Artwork *ArtworkResponse `json:"artwork,omitempty"`
	Artist  *BidderResponse  `json:"artist,omitempty"`
	Bids    []BidResponse    `json:"bids"`
}

type BidTooLowResponse struct {
	CurrentPrice  int64 `json:"current_price"`
	MinimumAmount int64 `json:"minimum_amount"`
}

// DisplayAmount renders a minor-unit amount in major units, e.g. 5500 -> "55.00"
func DisplayAmount(amount int64) string {
	return decimal.New(amount, -minorUnitExponent).StringFixed(minorUnitExponent)
}

func NewBidResponse(bid model.Bid, bidder *model.User) BidResponse {
	return BidResponse{
		BidID:         bid.BidID,
		AuctionID:     bid.AuctionID,
		BidderID:      bid.BidderID,
		Amount:        bid.Amount,
		DisplayAmount: DisplayAmount(bid.Amount),
		CreatedAt:     bid.CreatedAt.UTC().Format(time.RFC3339Nano),
		Bidder:        newUserResponse(bidder),
	}
}

func NewBidResponses(views []model.BidView) []BidResponse {
	out := make([]BidResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewBidResponse(v.Bid, v.Bidder))
	}
	return out
}

func NewAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:     a.AuctionID,
		ArtworkID:     a.ArtworkID,
		Status:        string(a.Status),
		StartTime:     a.StartTime.UTC().Format(time.RFC3339),
		EndTime:       a.EndTime.UTC().Format(time.RFC3339),
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		DisplayPrice:  DisplayAmount(a.CurrentPrice),
		MinimumBid:    a.CurrentPrice + 1,
	}
}

func NewAuctionListingResponse(l model.AuctionListing) AuctionListingResponse {
	return AuctionListingResponse{
		Auction:    NewAuctionResponse(l.Auction),
		Artwork:    newArtworkResponse(l.Artwork),
		Artist:     newUserResponse(l.Artist),
		RecentBids: NewBidResponses(l.RecentBids),
	}
}

func NewAuctionDetailResponse(d model.AuctionDetail) AuctionDetailResponse {
	return AuctionDetailResponse{
		Auction: NewAuctionResponse(d.Auction),
		Artwork: newArtworkResponse(d.Artwork),
		Artist:  newUserResponse(d.Artist),
		Bids:    NewBidResponses(d.Bids),
	}
}

func newUserResponse(u *model.User) *BidderResponse {
	if u == nil {
		return nil
	}
	return &BidderResponse{UserID: u.UserID, Name: u.Name, ImageURL: u.ImageURL}
}

func newArtworkResponse(a *model.Artwork) *ArtworkResponse {
	if a == nil {
		return nil
	}
	return &ArtworkResponse{
		ArtworkID:   a.ArtworkID,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Category:    a.Category,
		Materials:   a.Materials,
		Price:       a.Price,
	}
}
