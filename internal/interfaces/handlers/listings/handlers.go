package listings

import (
	"errors"

	"fleetdesk-backend/internal/application/access"
	listsvc "fleetdesk-backend/internal/application/listings"
	"fleetdesk-backend/internal/middleware"
	"fleetdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *listsvc.Service
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, access.ErrListingNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, listsvc.ErrBusinessNameRequired),
		errors.Is(err, listsvc.ErrCategoryRequired),
		errors.Is(err, listsvc.ErrInvalidEmail),
		errors.Is(err, listsvc.ErrInvalidZip):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("listings: request failed")
	return response.Internal(c)
}

// POST /api/v1/listings
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Create(c.Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.Mine(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", list, map[string]interface{}{"count": len(list)})
}

// GET /api/v1/listings/:listing_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Get(c.Context(), actor, listingID)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// PUT /api/v1/listings/:listing_id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Update(c.Context(), actor, listingID, in)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// GET /api/v1/directory?category=
// Public storefront directory of published listings.
func (h *Handlers) Directory(c *fiber.Ctx) error {
	entries, err := h.Service.Directory(c.Context(), c.Query("category"))
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Directory fetched successfully", entries, map[string]interface{}{"count": len(entries)})
}
