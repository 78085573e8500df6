package locations

import (
	"errors"
	"fmt"

	"fleetdesk-backend/internal/application/access"
	locsvc "fleetdesk-backend/internal/application/locations"
	"fleetdesk-backend/internal/middleware"
	"fleetdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *locsvc.Service
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, access.ErrAssetNotFound), errors.Is(err, locsvc.ErrLocationNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, locsvc.ErrNameRequired), errors.Is(err, locsvc.ErrInvalidCoords):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("locations: request failed")
	return response.Internal(c)
}

func param(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid %s format", name)
	}
	return id, nil
}

// GET /api/v1/assets/:asset_id/locations
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	list, err := h.Service.List(c.Context(), actor, assetID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Locations fetched successfully", list, nil)
}

// POST /api/v1/assets/:asset_id/locations
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := param(c, "asset_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var in locsvc.LocationInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	loc, err := h.Service.Create(c.Context(), actor, assetID, in)
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Location created successfully", loc, nil)
}

// PUT /api/v1/locations/:location_id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	locationID, err := param(c, "location_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var in locsvc.LocationInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	loc, err := h.Service.Update(c.Context(), actor, locationID, in)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Location updated successfully", loc, nil)
}

// DELETE /api/v1/locations/:location_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	locationID, err := param(c, "location_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), actor, locationID); err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Location deleted", nil, nil)
}

// PATCH /api/v1/locations/:location_id/primary
func (h *Handlers) SetPrimary(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	locationID, err := param(c, "location_id")
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	loc, err := h.Service.SetPrimary(c.Context(), actor, locationID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Primary location updated", loc, nil)
}
