package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-auction/config"
	"art-auction/internal/auth"
	bidding "art-auction/internal/biddingService"
	"art-auction/internal/biddingerrors"
	"art-auction/internal/catalog"
	"art-auction/internal/database"
	model "art-auction/internal/models"
	"art-auction/internal/repository"
	"art-auction/internal/server"
	"art-auction/utils"

	"github.com/gin-gonic/gin"
)

// catalogStore is a Directory that can also be written to at startup
type catalogStore interface {
	catalog.Directory
	SaveArtwork(ctx context.Context, artwork model.Artwork) error
	SaveUser(ctx context.Context, user model.User) error
}

func main() {
	cfg := config.Load()

	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("invalid log level, keeping default", map[string]any{"log_level": cfg.LogLevel, "error": err.Error()})
	}
	gin.SetMode(gin.ReleaseMode)

	repo, directory, err := openStorage(cfg)
	if err != nil {
		utils.Fatal("failed to open storage", map[string]any{"backend": cfg.StorageBackend, "error": err.Error()})
	}

	biddingSvc := bidding.NewBiddingService(repo, directory, bidding.WithBidsPerListing(cfg.BidsPerListing))

	if cfg.SeedDemoData {
		if err := prepopulateCatalog(context.Background(), directory, biddingSvc); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	authSvc := auth.NewService(cfg.JWTSecret)
	limiter := server.NewRateLimiter(cfg.BidRateLimitPerMinute)
	router := server.SetupRouter(biddingSvc, authSvc, limiter)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": cfg.Port, "backend": cfg.StorageBackend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	utils.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
	}
	utils.Info("server stopped", nil)
}

// openStorage builds the auction store and catalog for the configured backend
func openStorage(cfg *config.Config) (repository.AuctionDB, catalogStore, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := database.NewDatabase(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormRepo(db), catalog.NewGormDirectory(db), nil
	case config.BackendMemory:
		return repository.NewMemoryRepo(), catalog.NewMemoryDirectory(), nil
	default:
		return nil, nil, errors.New("unknown storage backend " + cfg.StorageBackend)
	}
}

// prepopulateCatalog adds sample artists, bidders, artworks and open auctions
func prepopulateCatalog(ctx context.Context, directory catalogStore, svc *bidding.BiddingService) error {
	users := []model.User{
		{UserID: "artist1", Name: "Mira Hollis"},
		{UserID: "artist2", Name: "Tomas Reyes"},
		{UserID: "bidder1", Name: "Ada Lin"},
		{UserID: "bidder2", Name: "Sam Okafor"},
	}
	for _, u := range users {
		if err := directory.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	artworks := []model.Artwork{
		{ArtworkID: "artwork1", ArtistID: "artist1", Title: "Harbor at Dusk", Category: "painting", Materials: "oil on canvas", Price: 120000},
		{ArtworkID: "artwork2", ArtistID: "artist1", Title: "Salt Study", Category: "drawing", Materials: "graphite", Price: 30000},
		{ArtworkID: "artwork3", ArtistID: "artist2", Title: "Fold IV", Category: "sculpture", Materials: "bronze", Price: 450000},
	}
	for _, a := range artworks {
		if err := directory.SaveArtwork(ctx, a); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for i, a := range artworks {
		auction, err := svc.CreateAuction(ctx, model.NewAuction{
			SellerID:      a.ArtistID,
			ArtworkID:     a.ArtworkID,
			StartingPrice: a.Price / 2,
			StartTime:     now,
			EndTime:       now.Add(time.Duration(i+1) * 24 * time.Hour),
		})
		if errors.Is(err, biddingerrors.ErrAuctionExists) {
			utils.Info("demo auction already open", map[string]any{"artwork_id": a.ArtworkID})
			continue
		}
		if err != nil {
			return err
		}
		utils.Debug("demo auction seeded", map[string]any{"auction_id": auction.AuctionID, "artwork_id": a.ArtworkID})
	}
	return nil
}
