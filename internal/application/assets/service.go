package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/application/photos"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNameRequired       = errors.New("Asset name is required")
	ErrInvalidSubCategory = errors.New("Sub-category does not belong to this asset class")
	ErrNegativeAmount     = errors.New("Rates, fees and ranges cannot be negative")
	ErrFeatureExists      = errors.New("Feature already added")
	ErrNotCommonFeature   = errors.New("Not a quick-add feature for this asset class")
	ErrFeatureIndex       = errors.New("Feature index out of range")
)

type Service struct {
	DB     *gorm.DB
	Photos *photos.Service
	Blobs  storage.BlobStore
}

// AssetInput is the full specification form. Every optional field that arrives empty or zero
// is stored as null.
type AssetInput struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	AssetClass  domain.AssetClass `json:"asset_class"`
	SubCategory *string           `json:"sub_category"`

	Year   *int         `json:"year"`
	Make   *string      `json:"make"`
	Model  *string      `json:"model"`
	Length *float64     `json:"length_ft"`
	Width  *float64     `json:"width_ft"`
	Height *float64     `json:"height_ft"`
	Weight *float64     `json:"empty_weight"`
	Specs  domain.Specs `json:"specs"`

	DailyRate    *float64 `json:"daily_rate"`
	ThreeDayRate *float64 `json:"three_day_rate"`
	WeeklyRate   *float64 `json:"weekly_rate"`
	MonthlyRate  *float64 `json:"monthly_rate"`
	Price        *float64 `json:"price"`

	DeliveryAvailable  bool     `json:"delivery_available"`
	DeliveryRangeMiles *float64 `json:"delivery_range_miles"`
	DeliveryFee        *float64 `json:"delivery_fee"`
	PickupAvailable    bool     `json:"pickup_available"`
	OperatorRequired   bool     `json:"operator_required"`

	Features    domain.Features `json:"features"`
	IsAvailable *bool           `json:"is_available"`
}

// CreateResult is the new asset plus any staged photo that could not be saved.
type CreateResult struct {
	Asset         *domain.Asset          `json:"asset"`
	PhotoFailures []photos.UploadFailure `json:"photo_failures"`
}

// formColumns are the columns a form save writes. Class, listing and position are fixed at creation.
var formColumns = []string{
	"name", "description", "sub_category",
	"year", "make", "model", "length_ft", "width_ft", "height_ft", "empty_weight", "specs",
	"daily_rate", "three_day_rate", "weekly_rate", "monthly_rate", "price", "price_unit",
	"delivery_available", "delivery_range_miles", "delivery_fee", "pickup_available", "operator_required",
	"features", "is_available", "updated_at",
}

func validate(in AssetInput, class domain.AssetClass) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.SubCategory != nil && !domain.SubCategoryAllowed(class, strings.TrimSpace(*in.SubCategory)) {
		return ErrInvalidSubCategory
	}
	for _, v := range []*float64{in.DailyRate, in.ThreeDayRate, in.WeeklyRate, in.MonthlyRate, in.Price, in.DeliveryFee, in.DeliveryRangeMiles} {
		if v != nil && *v < 0 {
			return ErrNegativeAmount
		}
	}
	return in.Specs.Validate(class)
}

// apply copies the form onto a, nulling falsy optionals and re-deriving price.
func apply(a *domain.Asset, in AssetInput) {
	a.Name = strings.TrimSpace(in.Name)
	a.Description = domain.NullString(in.Description)
	a.SubCategory = domain.NullString(in.SubCategory)

	a.Year = domain.NullInt(in.Year)
	a.Make = domain.NullString(in.Make)
	a.Model = domain.NullString(in.Model)
	a.Length = domain.NullFloat(in.Length)
	a.Width = domain.NullFloat(in.Width)
	a.Height = domain.NullFloat(in.Height)
	a.Weight = domain.NullFloat(in.Weight)
	a.Specs = in.Specs.Normalize()

	a.DailyRate = domain.NullFloat(in.DailyRate)
	a.ThreeDayRate = domain.NullFloat(in.ThreeDayRate)
	a.WeeklyRate = domain.NullFloat(in.WeeklyRate)
	a.MonthlyRate = domain.NullFloat(in.MonthlyRate)
	a.Price = domain.ResolvePrice(a.DailyRate, domain.NullFloat(in.Price))
	a.PriceUnit = domain.PriceUnitPerDay

	a.DeliveryAvailable = in.DeliveryAvailable
	a.DeliveryRangeMiles = domain.NullFloat(in.DeliveryRangeMiles)
	a.DeliveryFee = domain.NullFloat(in.DeliveryFee)
	a.PickupAvailable = in.PickupAvailable
	a.OperatorRequired = in.OperatorRequired

	a.Features = domain.Features{}
	for _, f := range in.Features {
		if next, err := a.Features.Append(f); err == nil {
			a.Features = next
		}
	}
	if in.IsAvailable != nil {
		a.IsAvailable = *in.IsAvailable
	}
}

// List returns the listing's assets in display order, each with its photos in display order.
func (s *Service) List(ctx context.Context, actor domain.Actor, listingID uuid.UUID) ([]domain.Asset, error) {
	if _, err := access.Listing(ctx, s.DB, actor, listingID); err != nil {
		return nil, err
	}
	assets := []domain.Asset{}
	err := s.DB.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC").Order("created_at ASC")
		}).
		Where("listing_id = ?", listingID).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	for i := range assets {
		s.hydrate(&assets[i])
	}
	return assets, nil
}

// Get returns one asset with its photos.
func (s *Service) Get(ctx context.Context, actor domain.Actor, assetID uuid.UUID) (*domain.Asset, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	ps, err := s.Photos.ForAsset(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	asset.Photos = ps
	return asset, nil
}

func (s *Service) hydrate(a *domain.Asset) {
	if a.Photos == nil {
		a.Photos = []domain.Photo{}
	}
	if a.Features == nil {
		a.Features = domain.Features{}
	}
	s.Photos.WithURLs(a.Photos)
}

// Create inserts a new asset at the end of the fleet. Staged files, if any, are uploaded
// once the asset has an id; a failed file is reported without undoing the asset.
func (s *Service) Create(ctx context.Context, actor domain.Actor, listingID uuid.UUID, in AssetInput, staged []photos.File) (*CreateResult, error) {
	listing, err := access.Listing(ctx, s.DB, actor, listingID)
	if err != nil {
		return nil, err
	}
	editor := domain.NewAssetEditor()
	if err := editor.PickCategory(in.AssetClass); err != nil {
		return nil, err
	}
	if err := validate(in, editor.Class()); err != nil {
		return nil, err
	}
	if err := editor.BeginSave(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Asset{}).Where("listing_id = ?", listing.ListingID).Count(&count).Error; err != nil {
		editor.FinishSave(uuid.Nil, err)
		return nil, fmt.Errorf("count assets: %w", err)
	}
	asset := &domain.Asset{
		ListingID:    listing.ListingID,
		AssetClass:   editor.Class(),
		DisplayOrder: int(count),
		IsAvailable:  true,
	}
	apply(asset, in)
	err = s.DB.WithContext(ctx).Omit("Photos").Create(asset).Error
	editor.FinishSave(asset.ID, err)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	result := &CreateResult{Asset: asset, PhotoFailures: []photos.UploadFailure{}}
	asset.Photos = []domain.Photo{}
	if len(staged) > 0 {
		uploaded, err := s.Photos.UploadFor(ctx, actor.UserID, asset, staged)
		if err != nil {
			log.Error().Err(err).Str("asset_id", asset.ID.String()).Msg("assets: staged photo upload failed")
			for _, f := range staged {
				result.PhotoFailures = append(result.PhotoFailures, photos.UploadFailure{FileName: f.Name, Message: "Failed to save photo"})
			}
			return result, nil
		}
		asset.Photos = uploaded.Photos
		result.PhotoFailures = uploaded.Failures
	}
	return result, nil
}

// Update rewrites the form columns of an existing asset. The class cannot change.
func (s *Service) Update(ctx context.Context, actor domain.Actor, assetID uuid.UUID, in AssetInput) (*domain.Asset, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	editor := domain.EditAssetEditor(asset)
	if err := editor.RequireClass(in.AssetClass); err != nil {
		return nil, err
	}
	if err := validate(in, editor.Class()); err != nil {
		return nil, err
	}
	if err := editor.BeginSave(); err != nil {
		return nil, err
	}
	apply(asset, in)
	err = s.DB.WithContext(ctx).Model(asset).Select(formColumns).Updates(asset).Error
	editor.FinishSave(asset.ID, err)
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	return s.Get(ctx, actor, asset.ID)
}

// Delete removes the asset's photo blobs and then its rows. If the blobs cannot be removed
// nothing is deleted.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, assetID uuid.UUID) error {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return err
	}
	var paths []string
	if err := s.DB.WithContext(ctx).Model(&domain.Photo{}).Where("service_id = ?", asset.ID).Pluck("storage_path", &paths).Error; err != nil {
		return fmt.Errorf("load photos: %w", err)
	}
	if len(paths) > 0 {
		if err := s.Blobs.Remove(ctx, paths); err != nil {
			return fmt.Errorf("remove photo blobs: %w", err)
		}
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", asset.ID).Delete(&domain.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("service_id = ?", asset.ID).Delete(&domain.Location{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Asset{}, "id = ?", asset.ID).Error
	})
}

// AddFeature appends label to the feature list. A quick-add must name one of the class's
// common features and is refused once present; typed labels may repeat.
func (s *Service) AddFeature(ctx context.Context, actor domain.Actor, assetID uuid.UUID, label string, quickAdd bool) (*domain.Asset, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if quickAdd {
		if !domain.IsCommonFeature(asset.AssetClass, label) {
			return nil, ErrNotCommonFeature
		}
		if asset.Features.Has(label) {
			return nil, ErrFeatureExists
		}
	}
	features, err := asset.Features.Append(label)
	if err != nil {
		return nil, err
	}
	return s.saveFeatures(ctx, actor, asset, features)
}

// RemoveFeature drops the feature at index.
func (s *Service) RemoveFeature(ctx context.Context, actor domain.Actor, assetID uuid.UUID, index int) (*domain.Asset, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(asset.Features) {
		return nil, ErrFeatureIndex
	}
	features := make(domain.Features, 0, len(asset.Features)-1)
	features = append(features, asset.Features[:index]...)
	features = append(features, asset.Features[index+1:]...)
	return s.saveFeatures(ctx, actor, asset, features)
}

func (s *Service) saveFeatures(ctx context.Context, actor domain.Actor, asset *domain.Asset, features domain.Features) (*domain.Asset, error) {
	if err := s.DB.WithContext(ctx).Model(asset).Update("features", features).Error; err != nil {
		return nil, fmt.Errorf("update features: %w", err)
	}
	return s.Get(ctx, actor, asset.ID)
}
