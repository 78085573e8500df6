package listings

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
	ErrBusinessNameRequired = errors.New("Business name is required")
	ErrCategoryRequired     = errors.New("Category is required")
	ErrInvalidEmail         = errors.New("Invalid email format")
	ErrInvalidZip           = errors.New("Invalid zip code")
)

type Service struct {
	DB *gorm.DB
}

type ListingInput struct {
	BusinessName string  `json:"business_name"`
	Category     string  `json:"category"`
	Description  *string `json:"description"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Website      *string `json:"website"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zip_code"`
	IsPublished  *bool   `json:"is_published"`
}

func (in ListingInput) validate() error {
	if strings.TrimSpace(in.BusinessName) == "" {
		return ErrBusinessNameRequired
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}
	if email := domain.NullString(in.Email); email != nil && !validation.IsValidEmail(*email) {
		return ErrInvalidEmail
	}
	if in.ZipCode != nil && !validation.IsValidZip(*in.ZipCode) {
		return ErrInvalidZip
	}
	return nil
}

func (in ListingInput) apply(l *domain.Listing) {
	l.BusinessName = strings.TrimSpace(in.BusinessName)
	l.Category = strings.TrimSpace(in.Category)
	l.Description = domain.NullString(in.Description)
	l.Phone = domain.NullString(in.Phone)
	l.Email = domain.NullString(in.Email)
	l.Website = domain.NullString(in.Website)
	l.Address = domain.NullString(in.Address)
	l.City = domain.NullString(in.City)
	l.State = domain.NullString(in.State)
	l.ZipCode = domain.NullString(in.ZipCode)
	if in.IsPublished != nil {
		l.IsPublished = *in.IsPublished
	}
}

// Create registers a listing owned by the actor. New listings start unpublished.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in ListingInput) (*domain.Listing, error) {
	if actor.UserID == uuid.Nil {
		return nil, access.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	listing := &domain.Listing{OwnerID: actor.UserID}
	in.apply(listing)
	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, fmt.Errorf("Failed to create listing: %w", err)
	}
	return listing, nil
}

// Mine returns the actor's listings, newest first.
func (s *Service) Mine(ctx context.Context, actor domain.Actor) ([]domain.Listing, error) {
	listings := []domain.Listing{}
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", actor.UserID).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return listings, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, listingID uuid.UUID) (*domain.Listing, error) {
	return access.Listing(ctx, s.DB, actor, listingID)
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, listingID uuid.UUID, in ListingInput) (*domain.Listing, error) {
	listing, err := access.Listing(ctx, s.DB, actor, listingID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.apply(listing)
	err = s.DB.WithContext(ctx).Model(listing).Select(
		"business_name", "category", "description", "phone", "email", "website",
		"address", "city", "state", "zip_code", "is_published", "updated_at",
	).Updates(listing).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to update listing: %w", err)
	}
	return listing, nil
}

// DirectoryEntry is a published listing as shown in the public directory.
type DirectoryEntry struct {
	domain.Listing
	AvailableAssets int      `json:"available_assets"`
	StartingPrice   *float64 `json:"starting_price"`
	PriceUnit       string   `json:"price_unit,omitempty"`
}

// Directory lists published listings, optionally filtered by category. The storefront price
// of a listing is the display price of its first available asset by display order.
func (s *Service) Directory(ctx context.Context, category string) ([]DirectoryEntry, error) {
	var listings []domain.Listing
	q := s.DB.WithContext(ctx).Where("is_published = ?", true)
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}
	if err := q.Order("business_name ASC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch directory: %w", err)
	}
	if len(listings) == 0 {
		return []DirectoryEntry{}, nil
	}

	ids := make([]uuid.UUID, len(listings))
	for i, l := range listings {
		ids[i] = l.ListingID
	}
	var assets []domain.Asset
	if err := s.DB.WithContext(ctx).
		Where("listing_id IN ? AND is_available = ?", ids, true).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch directory assets: %w", err)
	}
	byListing := make(map[uuid.UUID][]domain.Asset, len(listings))
	for _, a := range assets {
		byListing[a.ListingID] = append(byListing[a.ListingID], a)
	}

	out := make([]DirectoryEntry, 0, len(listings))
	for _, l := range listings {
		entry := DirectoryEntry{Listing: l}
		fleet := byListing[l.ListingID]
		entry.AvailableAssets = len(fleet)
		if len(fleet) > 0 {
			entry.StartingPrice = fleet[0].DisplayPrice()
			entry.PriceUnit = fleet[0].PriceUnit
		}
		out = append(out, entry)
	}
	return out, nil
}
