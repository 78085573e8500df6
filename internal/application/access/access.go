// Package access loads tenant-owned rows and enforces that the acting host owns them.
package access

import (
	"context"
	"errors"

	"fleetdesk-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrForbidden       = errors.New("You do not have access to this resource")
	ErrListingNotFound = errors.New("Listing not found")
	ErrAssetNotFound   = errors.New("Asset not found")
)

// CanManage reports whether actor may change data of listing.
func CanManage(actor domain.Actor, listing *domain.Listing) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.UserID != uuid.Nil && listing.OwnerID == actor.UserID
}

// Listing loads a listing the actor manages.
func Listing(ctx context.Context, db *gorm.DB, actor domain.Actor, listingID uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	if err := db.WithContext(ctx).Where("id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !CanManage(actor, &listing) {
		return nil, ErrForbidden
	}
	return &listing, nil
}

// Asset loads an asset together with its listing, checking the actor manages the listing.
func Asset(ctx context.Context, db *gorm.DB, actor domain.Actor, assetID uuid.UUID) (*domain.Asset, *domain.Listing, error) {
	var asset domain.Asset
	if err := db.WithContext(ctx).Where("id = ?", assetID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAssetNotFound
		}
		return nil, nil, err
	}
	listing, err := Listing(ctx, db, actor, asset.ListingID)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, nil, ErrAssetNotFound
		}
		return nil, nil, err
	}
	return &asset, listing, nil
}
