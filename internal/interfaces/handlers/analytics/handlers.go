package analytics

import (
	"bytes"
	"errors"
	"fmt"

	"fleetdesk-backend/internal/application/access"
	anasvc "fleetdesk-backend/internal/application/analytics"
	"fleetdesk-backend/internal/middleware"
	"fleetdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *anasvc.Service
}

type recordRequest struct {
	InteractionType string                 `json:"interaction_type"`
	Metadata        map[string]interface{} `json:"metadata"`
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, access.ErrAssetNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, anasvc.ErrInvalidInteraction):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("analytics: request failed")
	return response.Internal(c)
}

func assetParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("asset_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid asset_id format")
	}
	return id, nil
}

// GET /api/v1/assets/:asset_id/analytics
func (h *Handlers) Summary(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := assetParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	summary, err := h.Service.Get(c.Context(), actor, assetID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Analytics fetched successfully", summary, nil)
}

// GET /api/v1/assets/:asset_id/analytics/daily.csv
func (h *Handlers) DailyCSV(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	assetID, err := assetParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	summary, err := h.Service.Get(c.Context(), actor, assetID)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if err := anasvc.WriteDailyCSV(&buf, summary); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="asset-%s-daily.csv"`, assetID))
	return c.Send(buf.Bytes())
}

// POST /api/v1/assets/:asset_id/interactions
// Public: the storefront reports views and inquiries without a session.
func (h *Handlers) Record(c *fiber.Ctx) error {
	assetID, err := assetParam(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	event, err := h.Service.Record(c.Context(), assetID, req.InteractionType, req.Metadata)
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Interaction recorded", event, nil)
}
