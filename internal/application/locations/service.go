package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLocationNotFound = errors.New("Location not found")
	ErrNameRequired     = errors.New("Location name is required")
	ErrInvalidCoords    = errors.New("Latitude or longitude out of range")
)

type Service struct {
	DB *gorm.DB
}

// LocationInput is the location form.
type LocationInput struct {
	LocationName     string   `json:"location_name"`
	Address          *string  `json:"address"`
	City             *string  `json:"city"`
	State            *string  `json:"state"`
	ZipCode          *string  `json:"zip_code"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	IsPrimary        bool     `json:"is_primary"`
	PickupAvailable  bool     `json:"pickup_available"`
	DropoffAvailable bool     `json:"dropoff_available"`
	Notes            *string  `json:"notes"`
}

func (in LocationInput) validate() error {
	if strings.TrimSpace(in.LocationName) == "" {
		return ErrNameRequired
	}
	if !validation.IsValidLatLng(in.Latitude, in.Longitude) {
		return ErrInvalidCoords
	}
	return nil
}

func (in LocationInput) apply(l *domain.Location) {
	l.LocationName = strings.TrimSpace(in.LocationName)
	l.Address = domain.NullString(in.Address)
	l.City = domain.NullString(in.City)
	l.State = domain.NullString(in.State)
	l.ZipCode = domain.NullString(in.ZipCode)
	l.Latitude = in.Latitude
	l.Longitude = in.Longitude
	l.PickupAvailable = in.PickupAvailable
	l.DropoffAvailable = in.DropoffAvailable
	l.Notes = domain.NullString(in.Notes)
}

// List returns the asset's locations, primary first, then oldest first.
func (s *Service) List(ctx context.Context, actor domain.Actor, assetID uuid.UUID) ([]domain.Location, error) {
	if _, _, err := access.Asset(ctx, s.DB, actor, assetID); err != nil {
		return nil, err
	}
	return s.forAsset(s.DB.WithContext(ctx), assetID)
}

func (s *Service) forAsset(db *gorm.DB, assetID uuid.UUID) ([]domain.Location, error) {
	locations := []domain.Location{}
	if err := db.Where("service_id = ?", assetID).
		Order("is_primary DESC").
		Order("created_at ASC").
		Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// Create adds a location. The first location of an asset is always primary; a new primary
// displaces the old one in the same transaction.
func (s *Service) Create(ctx context.Context, actor domain.Actor, assetID uuid.UUID, in LocationInput) (*domain.Location, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	loc := &domain.Location{ServiceID: asset.ID}
	in.apply(loc)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Location{}).Where("service_id = ?", asset.ID).Count(&count).Error; err != nil {
			return err
		}
		loc.IsPrimary = in.IsPrimary || count == 0
		if loc.IsPrimary && count > 0 {
			if err := clearPrimary(tx, asset.ID, uuid.Nil); err != nil {
				return err
			}
		}
		return tx.Create(loc).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

// Update saves the form over an existing location. Marking it primary unsets the others;
// clearing the flag on the current primary hands it to the next location so one remains.
func (s *Service) Update(ctx context.Context, actor domain.Actor, locationID uuid.UUID, in LocationInput) (*domain.Location, error) {
	loc, err := s.load(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	wasPrimary := loc.IsPrimary
	in.apply(loc)
	loc.IsPrimary = in.IsPrimary

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if loc.IsPrimary && !wasPrimary {
			if err := clearPrimary(tx, loc.ServiceID, loc.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(loc).Select(
			"location_name", "address", "city", "state", "zip_code", "latitude", "longitude",
			"is_primary", "pickup_available", "dropoff_available", "notes", "updated_at",
		).Updates(loc).Error; err != nil {
			return err
		}
		if wasPrimary && !loc.IsPrimary {
			promoted, err := promoteFirst(tx, loc.ServiceID, loc.ID)
			if err != nil {
				return err
			}
			if !promoted {
				// the only location stays primary
				loc.IsPrimary = true
				return tx.Model(loc).Update("is_primary", true).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return loc, nil
}

// Delete removes a location and, when it was primary, promotes the oldest remaining one.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, locationID uuid.UUID) error {
	loc, err := s.load(ctx, actor, locationID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Location{}, "id = ?", loc.ID).Error; err != nil {
			return err
		}
		if !loc.IsPrimary {
			return nil
		}
		_, err := promoteFirst(tx, loc.ServiceID, uuid.Nil)
		return err
	})
}

// SetPrimary makes locationID the only primary location of its asset.
func (s *Service) SetPrimary(ctx context.Context, actor domain.Actor, locationID uuid.UUID) (*domain.Location, error) {
	loc, err := s.load(ctx, actor, locationID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearPrimary(tx, loc.ServiceID, loc.ID); err != nil {
			return err
		}
		return tx.Model(&domain.Location{}).Where("id = ?", loc.ID).Update("is_primary", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("set primary location: %w", err)
	}
	loc.IsPrimary = true
	return loc, nil
}

func (s *Service) load(ctx context.Context, actor domain.Actor, locationID uuid.UUID) (*domain.Location, error) {
	var loc domain.Location
	if err := s.DB.WithContext(ctx).Where("id = ?", locationID).First(&loc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if _, _, err := access.Asset(ctx, s.DB, actor, loc.ServiceID); err != nil {
		if errors.Is(err, access.ErrAssetNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func clearPrimary(tx *gorm.DB, assetID, except uuid.UUID) error {
	q := tx.Model(&domain.Location{}).Where("service_id = ? AND is_primary = ?", assetID, true)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	return q.Update("is_primary", false).Error
}

// promoteFirst marks the oldest location other than except as primary. It reports false
// when there is none.
func promoteFirst(tx *gorm.DB, assetID, except uuid.UUID) (bool, error) {
	q := tx.Where("service_id = ?", assetID)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var next domain.Location
	err := q.Order("created_at ASC").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, tx.Model(&domain.Location{}).Where("id = ?", next.ID).Update("is_primary", true).Error
}
