package models

import "time"

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionActive AuctionStatus = "active"
	AuctionEnded  AuctionStatus = "ended"
)

// BidOrder selects how a bid history is sorted
type BidOrder string

const (
	// OrderByAmount sorts bids by amount, highest first (leaderboard view)
	OrderByAmount BidOrder = "amount"
	// OrderByTime sorts bids by creation time, newest first (audit view)
	OrderByTime BidOrder = "time"
)

// User represents a marketplace participant: an artist or a bidder
type User struct {
	UserID   string `json:"user_id" gorm:"primaryKey"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Artwork is a catalog entry that can be put up for auction
type Artwork struct {
	ArtworkID   string `json:"artwork_id" gorm:"primaryKey"`
	ArtistID    string `json:"artist_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Materials   string `json:"materials"`
	// Price is the catalog price in minor units, independent of auction pricing
	Price int64 `json:"price"`
}

// Auction is a timed sale of one artwork. Amounts are in minor currency units.
type Auction struct {
	AuctionID     string        `json:"auction_id" gorm:"primaryKey"`
	ArtworkID     string        `json:"artwork_id" gorm:"not null;uniqueIndex:idx_auctions_open_artwork,where:status = 'active'"`
	StartTime     time.Time     `json:"start_time" gorm:"not null"`
	EndTime       time.Time     `json:"end_time" gorm:"not null;index"`
	StartingPrice int64         `json:"starting_price" gorm:"not null"`
	CurrentPrice  int64         `json:"current_price" gorm:"not null"`
	Status        AuctionStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt     time.Time     `json:"created_at"`
}

// IsOpen reports whether the auction accepts bids at the given instant
func (a Auction) IsOpen(now time.Time) bool {
	return a.Status == AuctionActive && now.Before(a.EndTime)
}

// Expired reports whether an active auction has passed its end time
func (a Auction) Expired(now time.Time) bool {
	return a.Status == AuctionActive && !now.Before(a.EndTime)
}

// Bid represents a user's bid on an auction. Bids are never updated or deleted.
type Bid struct {
	BidID     string    `json:"bid_id" gorm:"primaryKey"`
	AuctionID string    `json:"auction_id" gorm:"not null;index"`
	BidderID  string    `json:"bidder_id" gorm:"not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
}

// NewAuction carries the fields a seller supplies when opening an auction
type NewAuction struct {
	SellerID      string
	ArtworkID     string
	StartingPrice int64
	StartTime     time.Time
	EndTime       time.Time
}

// BidView is a bid joined with the bidder's identity
type BidView struct {
	Bid
	Bidder *User `json:"bidder,omitempty"`
}

// PlacedBid is the outcome of a successful bid
type PlacedBid struct {
	Bid     BidView `json:"bid"`
	Auction Auction `json:"auction"`
}

// AuctionListing is the summary shown on listing pages
type AuctionListing struct {
	Auction    Auction   `json:"auction"`
	Artwork    *Artwork  `json:"artwork,omitempty"`
	Artist     *User     `json:"artist,omitempty"`
	RecentBids []BidView `json:"recent_bids"`
}

// AuctionDetail is the full view of one auction
type AuctionDetail struct {
	Auction Auction   `json:"auction"`
	Artwork *Artwork  `json:"artwork,omitempty"`
	Artist  *User     `json:"artist,omitempty"`
	Bids    []BidView `json:"bids"`
}
