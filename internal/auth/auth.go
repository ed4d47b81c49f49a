package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"art-auction/internal/biddingerrors"
	"art-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserIDKey is the gin context key holding the authenticated user id
const ContextUserIDKey = "userID"

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenGeneration = errors.New("failed to generate token")
)

// Claims represents the JWT claims structure. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Service issues and validates bearer tokens
type Service struct {
	jwtSecret []byte
	now       func() time.Time
}

// NewService creates a new authentication service with the given JWT secret
func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// IssueToken signs a token for userID that expires after ttl
func (s *Service) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrTokenGeneration)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}
	return token, nil
}

// ValidateToken verifies signature and expiry and returns the user id the token was issued to
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RequireUser rejects requests without a valid bearer token and stores the user id on the context
func RequireUser(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.userFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, fmt.Errorf("%w: %w", biddingerrors.ErrUnauthorized, err), "sign in to continue")
			utils.Warn("RequireUser: rejected request", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func (s *Service) userFromHeader(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("invalid authorization header format")
	}
	return s.ValidateToken(strings.TrimSpace(token))
}

// UserID returns the authenticated user id, or "" when the request is anonymous
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
