package locations

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	locsvc "fleetdesk-backend/internal/application/locations"
	"fleetdesk-backend/internal/domain"
	"fleetdesk-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, string, string) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.Asset{}, &domain.Photo{}, &domain.Location{}))

	owner := uuid.New()
	listing := &domain.Listing{OwnerID: owner, BusinessName: "Yard Co", Category: "equipment"}
	require.NoError(t, db.Create(listing).Error)
	asset := &domain.Asset{ListingID: listing.ListingID, Name: "Skid steer", AssetClass: domain.ClassEquipment}
	require.NoError(t, db.Create(asset).Error)

	h := &Handlers{Service: &locsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: id, Role: "host"})
		}
		return c.Next()
	})
	app.Get("/assets/:asset_id/locations", h.List)
	app.Post("/assets/:asset_id/locations", h.Create)
	app.Put("/locations/:location_id", h.Update)
	app.Delete("/locations/:location_id", h.Delete)
	app.Patch("/locations/:location_id/primary", h.SetPrimary)
	return app, owner.String(), asset.ID.String()
}

func call(t *testing.T, app *fiber.App, user, method, path string, body interface{}) (int, map[string]interface{}) {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestLocationLifecycle(t *testing.T) {
	app, owner, assetID := setupApp(t)

	code, out := call(t, app, owner, "POST", "/assets/"+assetID+"/locations", map[string]interface{}{
		"location_name": "Main yard", "latitude": 30.27, "longitude": -97.74, "zip_code": "78701",
	})
	require.Equal(t, fiber.StatusCreated, code)
	first := out["data"].(map[string]interface{})
	assert.Equal(t, true, first["is_primary"])

	code, out = call(t, app, owner, "POST", "/assets/"+assetID+"/locations", map[string]interface{}{"location_name": "Overflow"})
	require.Equal(t, fiber.StatusCreated, code)
	second := out["data"].(map[string]interface{})
	assert.Equal(t, false, second["is_primary"])

	code, _ = call(t, app, owner, "PATCH", "/locations/"+second["id"].(string)+"/primary", nil)
	require.Equal(t, fiber.StatusOK, code)

	code, out = call(t, app, owner, "GET", "/assets/"+assetID+"/locations", nil)
	require.Equal(t, fiber.StatusOK, code)
	list := out["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0].(map[string]interface{})["id"])
	assert.Equal(t, false, list[1].(map[string]interface{})["is_primary"])

	code, _ = call(t, app, owner, "DELETE", "/locations/"+second["id"].(string), nil)
	require.Equal(t, fiber.StatusOK, code)
	code, out = call(t, app, owner, "GET", "/assets/"+assetID+"/locations", nil)
	require.Equal(t, fiber.StatusOK, code)
	list = out["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]interface{})["is_primary"])
}

func TestLocationErrors(t *testing.T) {
	app, owner, assetID := setupApp(t)

	code, _ := call(t, app, "", "GET", "/assets/"+assetID+"/locations", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, out := call(t, app, owner, "POST", "/assets/"+assetID+"/locations", map[string]interface{}{"location_name": "Bad", "latitude": 120, "longitude": 0})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, locsvc.ErrInvalidCoords.Error(), out["error"].(map[string]interface{})["message"])

	code, _ = call(t, app, owner, "PUT", "/locations/"+uuid.New().String(), map[string]interface{}{"location_name": "x"})
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = call(t, app, uuid.New().String(), "POST", "/assets/"+assetID+"/locations", map[string]interface{}{"location_name": "x"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = call(t, app, owner, "DELETE", "/locations/nope", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
