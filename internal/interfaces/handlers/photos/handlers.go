package photos

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"fleetdesk-backend/internal/application/access"
	photosvc "fleetdesk-backend/internal/application/photos"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/middleware"
	"fleetdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FilesField is the multipart field that carries photo files.
const FilesField = "files"

type Handlers struct {
	Service *photosvc.Service
}

type reorderRequest struct {
	PhotoID    *uuid.UUID  `json:"photo_id"`
	ToIndex    *int        `json:"to_index"`
	OrderedIDs []uuid.UUID `json:"ordered_ids"`
}

// FormFiles reads every file of field from a multipart form.
func FormFiles(form *multipart.Form, field string) ([]photosvc.File, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[field]
	files := make([]photosvc.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, photosvc.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// Failures converts per-file upload failures to response items.
func Failures(in []photosvc.UploadFailure) []response.ItemFailure {
	out := make([]response.ItemFailure, len(in))
	for i, f := range in {
		out[i] = response.ItemFailure{Item: f.FileName, Message: f.Message}
	}
	return out
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, access.ErrAssetNotFound), errors.Is(err, photosvc.ErrPhotoNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, photosvc.ErrNoFiles), errors.Is(err, photosvc.ErrBadOrder):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("photos: request failed")
	return response.Internal(c)
}

func param(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid %s format", name)
	}
	return id, nil
}

// GET /api/v1/assets/:asset_id/photos
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	photos, err := h.Service.List(c.Context(), actor, assetID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Photos fetched successfully", photos, nil)
}

// POST /api/v1/assets/:asset_id/photos (multipart "files")
// Each file succeeds or fails on its own; failures are listed in metadata.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return response.Error(c, "Expected multipart form with files", fiber.StatusBadRequest, nil)
	}
	files, err := FormFiles(form, FilesField)
	if err != nil {
		return response.Error(c, "Could not read uploaded files", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Upload(c.Context(), actor, assetID, files)
	if err != nil {
		return writeError(c, err)
	}
	return response.Partial(c, "Photos uploaded", len(result.Photos), result.Photos, Failures(result.Failures))
}

// DELETE /api/v1/photos/:photo_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	photoID, err := param(c, "photo_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), actor, photoID); err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Photo deleted", nil, nil)
}

// PATCH /api/v1/photos/:photo_id/primary
func (h *Handlers) SetPrimary(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	photoID, err := param(c, "photo_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	photo, err := h.Service.SetPrimary(c.Context(), actor, photoID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Primary photo updated", photo, nil)
}

// PUT /api/v1/assets/:asset_id/photos/order
// Body is either {photo_id, to_index} for a drag-and-drop or {ordered_ids} for a full order.
func (h *Handlers) Reorder(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	var ordered []domain.Photo
	switch {
	case req.PhotoID != nil && req.ToIndex != nil:
		ordered, err = h.Service.Move(c.Context(), actor, assetID, *req.PhotoID, *req.ToIndex)
	case len(req.OrderedIDs) > 0:
		ordered, err = h.Service.Reorder(c.Context(), actor, assetID, req.OrderedIDs)
	default:
		return response.Error(c, "photo_id and to_index, or ordered_ids, are required", fiber.StatusBadRequest, nil)
	}
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Photo order saved", ordered, nil)
}
