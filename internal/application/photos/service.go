package photos

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/infrastructure/storage"
	"fleetdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultMaxBytes is the upload limit when the service is built without one.
const DefaultMaxBytes = 5 * 1024 * 1024

var (
	ErrPhotoNotFound = errors.New("Photo not found")
	ErrNotImage      = errors.New("File is not an image")
	ErrTooLarge      = errors.New("File exceeds the maximum upload size")
	ErrNoFiles       = errors.New("No files provided")
	ErrBadOrder      = errors.New("Order must list every photo of the asset exactly once")
)

// Service manages the ordered photo set of an asset.
type Service struct {
	DB       *gorm.DB
	Blobs    storage.BlobStore
	MaxBytes int64
	Now      func() time.Time
}

// File is one uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadFailure reports why one file of a batch was not saved.
type UploadFailure struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

// UploadResult carries the saved photos and the per-file failures of one batch.
type UploadResult struct {
	Photos   []domain.Photo  `json:"photos"`
	Failures []UploadFailure `json:"failures"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// List returns the asset's photos in display order with public URLs filled in.
func (s *Service) List(ctx context.Context, actor domain.Actor, assetID uuid.UUID) ([]domain.Photo, error) {
	if _, _, err := access.Asset(ctx, s.DB, actor, assetID); err != nil {
		return nil, err
	}
	return s.ForAsset(ctx, assetID)
}

// ForAsset loads photos without an access check; callers must have checked already.
func (s *Service) ForAsset(ctx context.Context, assetID uuid.UUID) ([]domain.Photo, error) {
	photos := []domain.Photo{}
	if err := s.DB.WithContext(ctx).
		Where("service_id = ?", assetID).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	s.WithURLs(photos)
	return photos, nil
}

// WithURLs fills the public URL of each photo in place.
func (s *Service) WithURLs(photos []domain.Photo) {
	for i := range photos {
		photos[i].URL = s.Blobs.PublicURL(photos[i].StoragePath)
	}
}

// Upload stores files for an asset the actor manages.
func (s *Service) Upload(ctx context.Context, actor domain.Actor, assetID uuid.UUID, files []File) (*UploadResult, error) {
	asset, _, err := access.Asset(ctx, s.DB, actor, assetID)
	if err != nil {
		return nil, err
	}
	return s.UploadFor(ctx, actor.UserID, asset, files)
}

// UploadFor validates, stores and records each file independently. A failure on one file
// is reported in the result and does not stop the rest of the batch. Only the first saved
// photo of an asset that had none becomes primary.
func (s *Service) UploadFor(ctx context.Context, uploaderID uuid.UUID, asset *domain.Asset, files []File) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&domain.Photo{}).Where("service_id = ?", asset.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}

	result := &UploadResult{Photos: []domain.Photo{}, Failures: []UploadFailure{}}
	for _, f := range files {
		contentType, err := s.check(f)
		if err != nil {
			result.Failures = append(result.Failures, UploadFailure{FileName: f.Name, Message: err.Error()})
			continue
		}

		objectPath := ObjectPath(uploaderID, asset.ListingID, asset.ID, f.Name, s.now())
		if err := s.Blobs.Upload(ctx, objectPath, contentType, f.Data); err != nil {
			log.Error().Err(err).Str("asset_id", asset.ID.String()).Str("file", f.Name).Msg("photos: blob upload failed")
			result.Failures = append(result.Failures, UploadFailure{FileName: f.Name, Message: "Failed to upload file"})
			continue
		}

		saved := len(result.Photos)
		photo := domain.Photo{
			ServiceID:    asset.ID,
			StoragePath:  objectPath,
			FileName:     f.Name,
			FileSize:     int64(len(f.Data)),
			IsPrimary:    existing == 0 && saved == 0,
			DisplayOrder: int(existing) + saved,
		}
		if err := s.DB.WithContext(ctx).Create(&photo).Error; err != nil {
			log.Error().Err(err).Str("asset_id", asset.ID.String()).Str("file", f.Name).Msg("photos: metadata insert failed")
			if rmErr := s.Blobs.Remove(ctx, []string{objectPath}); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", objectPath).Msg("photos: could not remove orphaned blob")
			}
			result.Failures = append(result.Failures, UploadFailure{FileName: f.Name, Message: "Failed to save photo"})
			continue
		}
		photo.URL = s.Blobs.PublicURL(objectPath)
		result.Photos = append(result.Photos, photo)
	}
	return result, nil
}

func (s *Service) check(f File) (string, error) {
	contentType := validation.ImageContentType(f.ContentType, f.Data)
	if !validation.IsImage(contentType) {
		return "", ErrNotImage
	}
	if int64(len(f.Data)) > s.maxBytes() {
		return "", ErrTooLarge
	}
	return contentType, nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectPath namespaces a blob by uploader, listing and asset, and makes the file name unique
// with a millisecond timestamp and a random suffix.
func ObjectPath(uploaderID, listingID, assetID uuid.UUID, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	base := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-")
	if base == "" {
		base = "photo"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s-%d-%s%s", base, now.UnixMilli(), suffix, ext)
	return path.Join(uploaderID.String(), listingID.String(), assetID.String(), name)
}

func (s *Service) load(ctx context.Context, actor domain.Actor, photoID uuid.UUID) (*domain.Photo, error) {
	var photo domain.Photo
	if err := s.DB.WithContext(ctx).Where("id = ?", photoID).First(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	if _, _, err := access.Asset(ctx, s.DB, actor, photo.ServiceID); err != nil {
		if errors.Is(err, access.ErrAssetNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &photo, nil
}

// Delete removes the blob and then the row. When the primary photo goes and others remain,
// the first remaining one by display order is promoted in the same transaction.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, photoID uuid.UUID) error {
	photo, err := s.load(ctx, actor, photoID)
	if err != nil {
		return err
	}
	if err := s.Blobs.Remove(ctx, []string{photo.StoragePath}); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Photo{}, "id = ?", photo.ID).Error; err != nil {
			return err
		}
		if !photo.IsPrimary {
			return nil
		}
		var next domain.Photo
		err := tx.Where("service_id = ?", photo.ServiceID).
			Order("display_order ASC").
			Order("created_at ASC").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&domain.Photo{}).Where("id = ?", next.ID).Update("is_primary", true).Error
	})
}

// SetPrimary makes photoID the only primary photo of its asset.
func (s *Service) SetPrimary(ctx context.Context, actor domain.Actor, photoID uuid.UUID) (*domain.Photo, error) {
	photo, err := s.load(ctx, actor, photoID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Photo{}).
			Where("service_id = ? AND id <> ?", photo.ServiceID, photo.ID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Photo{}).Where("id = ?", photo.ID).Update("is_primary", true).Error
	})
	if err != nil {
		return nil, err
	}
	photo.IsPrimary = true
	photo.URL = s.Blobs.PublicURL(photo.StoragePath)
	return photo, nil
}

// Move applies a drag-and-drop: photoID is taken out of the current order and reinserted at toIndex.
func (s *Service) Move(ctx context.Context, actor domain.Actor, assetID, photoID uuid.UUID, toIndex int) ([]domain.Photo, error) {
	if _, _, err := access.Asset(ctx, s.DB, actor, assetID); err != nil {
		return nil, err
	}
	current, err := s.ForAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	from := -1
	for i, p := range current {
		if p.ID == photoID {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, ErrPhotoNotFound
	}
	return s.persistOrder(ctx, MoveItem(current, from, toIndex))
}

// Reorder persists an explicit order. orderedIDs must be a permutation of the asset's photos.
func (s *Service) Reorder(ctx context.Context, actor domain.Actor, assetID uuid.UUID, orderedIDs []uuid.UUID) ([]domain.Photo, error) {
	if _, _, err := access.Asset(ctx, s.DB, actor, assetID); err != nil {
		return nil, err
	}
	current, err := s.ForAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if len(orderedIDs) != len(current) {
		return nil, ErrBadOrder
	}
	byID := make(map[uuid.UUID]domain.Photo, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}
	ordered := make([]domain.Photo, 0, len(current))
	for _, id := range orderedIDs {
		p, ok := byID[id]
		if !ok {
			return nil, ErrBadOrder
		}
		delete(byID, id)
		ordered = append(ordered, p)
	}
	return s.persistOrder(ctx, ordered)
}

// persistOrder writes display_order 0..N-1 in one transaction.
func (s *Service) persistOrder(ctx context.Context, ordered []domain.Photo) ([]domain.Photo, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range ordered {
			if err := tx.Model(&domain.Photo{}).Where("id = ?", ordered[i].ID).Update("display_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range ordered {
		ordered[i].DisplayOrder = i
	}
	return ordered, nil
}

// MoveItem returns a copy of items with the element at from moved to index to.
// to is clamped to the valid range.
func MoveItem[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	if from < 0 || from >= len(items) {
		return append(out, items...)
	}
	moved := items[from]
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(out) {
		to = len(out)
	}
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out
}
