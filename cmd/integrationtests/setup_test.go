package integrationtests

import (
	"art-auction/internal/auth"
	bidding "art-auction/internal/biddingService"
	"art-auction/internal/catalog"
	model "art-auction/internal/models"
	"art-auction/internal/repository"
	"art-auction/internal/server"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

// testApp bundles a router over in-memory storage with a token issuer for it
type testApp struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	auth   *auth.Service
}

// SetupTestApp initializes the router with in-memory storage and a seeded catalog.
func SetupTestApp(t *testing.T, rateLimitPerMinute int) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	directory := catalog.NewMemoryDirectory()
	for _, u := range []model.User{
		{UserID: "artist1", Name: "Mira Hollis"},
		{UserID: "bidderA", Name: "Ada Lin"},
		{UserID: "bidderB", Name: "Sam Okafor"},
	} {
		require.NoError(t, directory.SaveUser(ctx, u))
	}
	for _, a := range []model.Artwork{
		{ArtworkID: "artwork1", ArtistID: "artist1", Title: "Harbor at Dusk", Price: 100000},
		{ArtworkID: "artwork2", ArtistID: "artist1", Title: "Salt Study", Price: 30000},
	} {
		require.NoError(t, directory.SaveArtwork(ctx, a))
	}

	repo := repository.NewMemoryRepo()
	service := bidding.NewBiddingService(repo, directory)
	authSvc := auth.NewService(testSecret)
	router := server.SetupRouter(service, authSvc, server.NewRateLimiter(rateLimitPerMinute))

	return &testApp{router: router, repo: repo, auth: authSvc}
}

// Token issues a bearer token for userID
func (a *testApp) Token(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.auth.IssueToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the response envelope
func (a *testApp) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	a.router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// CreateAuction opens an auction on artworkID as artist1 and returns its id
func (a *testApp) CreateAuction(t *testing.T, artworkID string, startingPrice int64, endTime time.Time) string {
	t.Helper()

	resp, w := a.ExecuteRequestAndParse(t, "POST", "/auctions", a.Token(t, "artist1"), map[string]any{
		"artwork_id":     artworkID,
		"starting_price": startingPrice,
		"end_time":       endTime.UTC().Format(time.RFC3339),
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["auction_id"].(string)
}
