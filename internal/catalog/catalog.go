// Package catalog provides read-only lookups of artworks and users owned by
// the rest of the marketplace.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"art-auction/internal/biddingerrors"
	model "art-auction/internal/models"

	"gorm.io/gorm"
)

// Directory resolves artworks and user identities by id
type Directory interface {
	GetArtwork(ctx context.Context, artworkID string) (model.Artwork, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// MemoryDirectory is an in-memory Directory used for tests and the memory backend
type MemoryDirectory struct {
	mu       sync.RWMutex
	artworks map[string]model.Artwork
	users    map[string]model.User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		artworks: make(map[string]model.Artwork),
		users:    make(map[string]model.User),
	}
}

// SaveArtwork inserts or replaces an artwork
func (d *MemoryDirectory) SaveArtwork(_ context.Context, artwork model.Artwork) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.artworks[artwork.ArtworkID] = artwork
	return nil
}

// SaveUser inserts or replaces a user
func (d *MemoryDirectory) SaveUser(_ context.Context, user model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.UserID] = user
	return nil
}

func (d *MemoryDirectory) GetArtwork(_ context.Context, artworkID string) (model.Artwork, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	artwork, ok := d.artworks[artworkID]
	if !ok {
		return model.Artwork{}, fmt.Errorf("get artwork %s: %w", artworkID, biddingerrors.ErrArtworkNotFound)
	}
	return artwork, nil
}

func (d *MemoryDirectory) GetUser(_ context.Context, userID string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// GormDirectory reads artworks and users from the marketplace database
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// SaveArtwork inserts or replaces an artwork row. Used for seeding.
func (d *GormDirectory) SaveArtwork(ctx context.Context, artwork model.Artwork) error {
	return d.db.WithContext(ctx).Save(&artwork).Error
}

// SaveUser inserts or replaces a user row. Used for seeding.
func (d *GormDirectory) SaveUser(ctx context.Context, user model.User) error {
	return d.db.WithContext(ctx).Save(&user).Error
}

func (d *GormDirectory) GetArtwork(ctx context.Context, artworkID string) (model.Artwork, error) {
	var artwork model.Artwork
	err := d.db.WithContext(ctx).Where("artwork_id = ?", artworkID).First(&artwork).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Artwork{}, fmt.Errorf("get artwork %s: %w", artworkID, biddingerrors.ErrArtworkNotFound)
	}
	if err != nil {
		return model.Artwork{}, fmt.Errorf("get artwork %s: %w: %w", artworkID, biddingerrors.ErrStorage, err)
	}
	return artwork, nil
}

func (d *GormDirectory) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w: %w", userID, biddingerrors.ErrStorage, err)
	}
	return user, nil
}
