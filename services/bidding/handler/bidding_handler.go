package handler

//go:generate mockgen -source=bidding_handler.go -destination=mock_service.go -package=handler

import (
	"context"
	"errors"
	"net/http"

	"art-auction/internal/auth"
	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"
	"art-auction/services/bidding/helpers"
	"art-auction/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (model.PlacedBid, error)
	CreateAuction(ctx context.Context, req model.NewAuction) (model.Auction, error)
	CloseAuction(ctx context.Context, auctionID, requesterID string) (model.Auction, error)
	ListActiveAuctions(ctx context.Context) ([]model.AuctionListing, error)
	GetAuctionDetail(ctx context.Context, auctionID string, order model.BidOrder) (model.AuctionDetail, error)
	GetBidsForAuction(ctx context.Context, auctionID string, order model.BidOrder) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error)
	GetAuctionsByBidder(ctx context.Context, bidderID string) ([]model.Auction, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// RecordBidHandler handles POST /bids
func (h *BiddingHandler) RecordBidHandler(c *gin.Context) {
	bidderID := auth.UserID(c)
	if bidderID == "" {
		helpers.RespondError(c, biddingerrors.ErrUnauthorized)
		utils.Warn("RecordBidHandler: missing bidder identity", map[string]any{"handler": "RecordBidHandler"})
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}
	amount, err := helpers.ParseMinorUnits("amount", req.Amount)
	if err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	placed, err := h.service.PlaceBid(c.Request.Context(), req.AuctionID, bidderID, amount)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Error("RecordBidHandler: failed to record bid", map[string]any{
			"handler":    "RecordBidHandler",
			"auction_id": req.AuctionID,
			"user_id":    bidderID,
			"amount":     amount,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.PlaceBidResponse{
		BidResponse: helpers.NewBidResponse(placed.Bid.Bid, placed.Bid.Bidder),
		Auction:     helpers.NewAuctionResponse(placed.Auction),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     placed.Bid.BidID,
		"auction_id": placed.Bid.AuctionID,
		"user_id":    bidderID,
		"amount":     placed.Bid.Amount,
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	sellerID := auth.UserID(c)
	if sellerID == "" {
		helpers.RespondError(c, biddingerrors.ErrUnauthorized)
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}
	startingPrice, err := helpers.ParseMinorUnits("starting_price", req.StartingPrice)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}
	if req.EndTime.IsZero() {
		helpers.HandleBindError(c, "CreateAuctionHandler", errors.New("end_time is required"))
		return
	}

	newAuction := model.NewAuction{
		SellerID:      sellerID,
		ArtworkID:     req.ArtworkID,
		StartingPrice: startingPrice,
		EndTime:       req.EndTime,
	}
	if req.StartTime != nil {
		newAuction.StartTime = *req.StartTime
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), newAuction)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"artwork_id": req.ArtworkID,
			"user_id":    sellerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"artwork_id": auction.ArtworkID,
		"user_id":    sellerID,
	})
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close
func (h *BiddingHandler) CloseAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.CloseAuction(c.Request.Context(), auctionID, auth.UserID(c))
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("CloseAuctionHandler: failed to close auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction closed successfully")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed successfully", map[string]any{"auction_id": auctionID})
}

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	listings, err := h.service.ListActiveAuctions(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, helpers.NewAuctionListingResponse(l))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{"count": len(resp)})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	order, err := helpers.ParseBidOrder(c.Query("order"), model.OrderByAmount)
	if err != nil {
		helpers.HandleBindError(c, "GetAuctionHandler", err)
		return
	}

	detail, err := h.service.GetAuctionDetail(c.Request.Context(), auctionID, order)
	if err != nil {
		helpers.RespondError(c, err)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionDetailResponse(detail), "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"bids":       len(detail.Bids),
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	order, err := helpers.ParseBidOrder(c.Query("order"), model.OrderByTime)
	if err != nil {
		helpers.HandleBindError(c, "GetBidsByAuctionHandler", err)
		return
	}

	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID, order)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		status, message := helpers.RespondError(c, err)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{
			"auction_id": auctionID,
			"status":     status,
			"message":    message,
			"error":      err.Error(),
		})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b, nil))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), auctionID)
	if err != nil {
		// For auction, winning bid not found -> 404
		if errors.Is(err, biddingerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		helpers.RespondError(c, err)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid, nil), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"user_id":    bid.BidderID,
		"amount":     bid.Amount,
	})
}

// GetAuctionsByUserHandler handles GET /users/:user_id/auctions
func (h *BiddingHandler) GetAuctionsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByBidder(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, biddingerrors.ErrUserNoBids) {
		helpers.RespondError(c, err)
		utils.Warn("GetAuctionsByUserHandler: error retrieving auctions", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.NewAuctionResponse(a))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByUserHandler", "auctions retrieved successfully", map[string]any{
		"user_id":        userID,
		"auctions_count": len(resp),
	})
}

// HealthHandler handles GET /healthz
func HealthHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"ok": true}, "service healthy")
}
