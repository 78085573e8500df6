package analytics

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	anasvc "fleetdesk-backend/internal/application/analytics"
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
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.Asset{}, &domain.Photo{}, &domain.Interaction{}))

	owner := uuid.New()
	listing := &domain.Listing{OwnerID: owner, BusinessName: "RV Town", Category: "rv"}
	require.NoError(t, db.Create(listing).Error)
	asset := &domain.Asset{ListingID: listing.ListingID, Name: "Class C", AssetClass: domain.ClassRV}
	require.NoError(t, db.Create(asset).Error)

	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	h := &Handlers{Service: &anasvc.Service{DB: db, WindowDays: 7, Now: func() time.Time { return fixed }}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: id, Role: "host"})
		}
		return c.Next()
	})
	app.Get("/assets/:asset_id/analytics", h.Summary)
	app.Get("/assets/:asset_id/analytics/daily.csv", h.DailyCSV)
	app.Post("/assets/:asset_id/interactions", h.Record)
	return app, owner.String(), asset.ID.String()
}

func record(t *testing.T, app *fiber.App, assetID, kind string) int {
	raw, _ := json.Marshal(map[string]interface{}{"interaction_type": kind, "metadata": map[string]interface{}{"source": "test"}})
	req := httptest.NewRequest("POST", "/assets/"+assetID+"/interactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRecordAndSummary(t *testing.T) {
	app, owner, assetID := setupApp(t)

	for i := 0; i < 4; i++ {
		require.Equal(t, fiber.StatusCreated, record(t, app, assetID, domain.InteractionUnitView))
	}
	require.Equal(t, fiber.StatusCreated, record(t, app, assetID, domain.InteractionUnitInquiry))
	assert.Equal(t, fiber.StatusBadRequest, record(t, app, assetID, "share"))
	assert.Equal(t, fiber.StatusNotFound, record(t, app, uuid.New().String(), domain.InteractionUnitView))

	req := httptest.NewRequest("GET", "/assets/"+assetID+"/analytics", nil)
	req.Header.Set("X-Test-User", owner)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["total_views"])
	assert.Equal(t, float64(1), data["total_inquiries"])
	assert.Equal(t, 25.0, data["conversion_rate"])
	assert.Len(t, data["daily"], 7)
	assert.Equal(t, float64(12), data["peak_hour"])

	req = httptest.NewRequest("GET", "/assets/"+assetID+"/analytics", nil)
	req.Header.Set("X-Test-User", uuid.New().String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/assets/"+assetID+"/analytics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDailyCSV(t *testing.T) {
	app, owner, assetID := setupApp(t)
	require.Equal(t, fiber.StatusCreated, record(t, app, assetID, domain.InteractionUnitView))

	req := httptest.NewRequest("GET", "/assets/"+assetID+"/analytics/daily.csv", nil)
	req.Header.Set("X-Test-User", owner)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "date,views,inquiries", lines[0])
	assert.Equal(t, "2026-03-10,1,0", lines[7])
}
