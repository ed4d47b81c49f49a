package helpers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"
	"art-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// ParseMinorUnits converts a decoded JSON amount to whole minor currency units
func ParseMinorUnits(field string, amount *decimal.Decimal) (int64, error) {
	if amount == nil {
		return 0, fmt.Errorf("%s is required", field)
	}
	if !amount.IsInteger() {
		return 0, fmt.Errorf("%s must be a whole number of minor currency units", field)
	}
	if amount.GreaterThan(maxMinorUnits) || amount.LessThan(minMinorUnits) {
		return 0, fmt.Errorf("%s is out of range", field)
	}
	return amount.IntPart(), nil
}

// ParseBidOrder reads the ?order= query value. An empty value yields fallback.
func ParseBidOrder(raw string, fallback model.BidOrder) (model.BidOrder, error) {
	switch model.BidOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return fallback, nil
	case model.OrderByAmount:
		return model.OrderByAmount, nil
	case model.OrderByTime:
		return model.OrderByTime, nil
	default:
		return "", fmt.Errorf("unknown bid order %q, expected %q or %q", raw, model.OrderByAmount, model.OrderByTime)
	}
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "sign in to continue"
	case errors.Is(err, biddingerrors.ErrForbidden):
		return http.StatusForbidden, "not allowed"
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrArtworkNotFound):
		return http.StatusNotFound, "artwork not found"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusGone, "auction closed"
	case errors.Is(err, biddingerrors.ErrAuctionNotStarted):
		return http.StatusConflict, "auction has not started"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrAuctionExists):
		return http.StatusConflict, "artwork already has an open auction"
	case errors.Is(err, biddingerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, biddingerrors.ErrUserNoBids):
		return http.StatusOK, "no auctions found for user"
	default:
		return http.StatusInternalServerError, "internal server error, please retry"
	}
}

// RespondError writes the mapped error response. Low bids carry the minimum acceptable amount.
func RespondError(c *gin.Context, err error) (int, string) {
	status, message := MapErrorToHTTP(err)

	var tooLow *biddingerrors.BidTooLowError
	if errors.As(err, &tooLow) {
		utils.JSONErrorWithData(c, status, fmt.Errorf("%s: %w", message, err), message, BidTooLowResponse{
			CurrentPrice:  tooLow.CurrentPrice,
			MinimumAmount: tooLow.MinimumAmount,
		})
		return status, message
	}

	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	return status, message
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
