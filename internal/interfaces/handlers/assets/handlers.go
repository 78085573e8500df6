package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fleetdesk-backend/internal/application/access"
	assetsvc "fleetdesk-backend/internal/application/assets"
	photosvc "fleetdesk-backend/internal/application/photos"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/interfaces/handlers/photos"
	"fleetdesk-backend/internal/middleware"
	"fleetdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AssetField is the multipart field holding the JSON form when photos are staged with a create.
const AssetField = "asset"

type Handlers struct {
	Service *assetsvc.Service
}

type featureRequest struct {
	Label    string `json:"label"`
	QuickAdd bool   `json:"quick_add"`
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, access.ErrListingNotFound), errors.Is(err, access.ErrAssetNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, assetsvc.ErrFeatureExists), errors.Is(err, domain.ErrInvalidTransition):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, assetsvc.ErrNameRequired),
		errors.Is(err, assetsvc.ErrInvalidSubCategory),
		errors.Is(err, assetsvc.ErrNegativeAmount),
		errors.Is(err, assetsvc.ErrNotCommonFeature),
		errors.Is(err, assetsvc.ErrFeatureIndex),
		errors.Is(err, domain.ErrInvalidClass),
		errors.Is(err, domain.ErrClassImmutable),
		errors.Is(err, domain.ErrSpecClassMismatch),
		errors.Is(err, domain.ErrEmptyFeature):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("assets: request failed")
	return response.Internal(c)
}

func param(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid %s format", name)
	}
	return id, nil
}

// GET /api/v1/asset-classes
func (h *Handlers) Classes(c *fiber.Ctx) error {
	return response.Success(c, "Asset classes fetched successfully", domain.ClassCatalog, nil)
}

// GET /api/v1/listings/:listing_id/assets
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, err := param(c, "listing_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	list, err := h.Service.List(c.Context(), actor, listingID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Assets fetched successfully", list, map[string]interface{}{"count": len(list)})
}

// POST /api/v1/listings/:listing_id/assets
// Accepts a JSON body, or a multipart form with the JSON in "asset" and staged photos in "files".
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, err := param(c, "listing_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}

	var in assetsvc.AssetInput
	var staged []photosvc.File
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return response.Error(c, "Invalid multipart form", fiber.StatusBadRequest, nil)
		}
		raw := form.Value[AssetField]
		if len(raw) == 0 {
			return response.Error(c, "Missing asset field", fiber.StatusBadRequest, nil)
		}
		if err := json.Unmarshal([]byte(raw[0]), &in); err != nil {
			return response.Error(c, "Invalid asset field", fiber.StatusBadRequest, nil)
		}
		if staged, err = photos.FormFiles(form, photos.FilesField); err != nil {
			return response.Error(c, "Could not read uploaded files", fiber.StatusBadRequest, nil)
		}
	} else if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	result, err := h.Service.Create(c.Context(), actor, listingID, in, staged)
	if err != nil {
		return writeError(c, err)
	}
	meta := map[string]interface{}{"failures": photos.Failures(result.PhotoFailures)}
	return response.SuccessCreated(c, "Asset created successfully", result.Asset, meta)
}

// GET /api/v1/assets/:asset_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.Get(c.Context(), actor, assetID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Asset fetched successfully", asset, nil)
}

// PUT /api/v1/assets/:asset_id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var in assetsvc.AssetInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.Update(c.Context(), actor, assetID, in)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Asset updated successfully", asset, nil)
}

// DELETE /api/v1/assets/:asset_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), actor, assetID); err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Asset deleted", nil, nil)
}

// POST /api/v1/assets/:asset_id/features
func (h *Handlers) AddFeature(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var req featureRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.AddFeature(c.Context(), actor, assetID, req.Label, req.QuickAdd)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Feature added", asset, nil)
}

// DELETE /api/v1/assets/:asset_id/features/:index
func (h *Handlers) RemoveFeature(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return response.Error(c, "Invalid feature index", fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.RemoveFeature(c.Context(), actor, assetID, index)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Feature removed", asset, nil)
}
