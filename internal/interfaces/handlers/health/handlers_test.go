package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"fleetdesk-backend/internal/infrastructure/storage"
	"fleetdesk-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okDB struct{}

func (okDB) Ping() error { return nil }

type unconfiguredStorage struct{}

func (unconfiguredStorage) Ping(ctx context.Context) error { return storage.ErrNotConfigured }

func setupHealth(t *testing.T) (*fiber.App, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	h := &Handlers{Rdb: rdb, DB: okDB{}, Storage: unconfiguredStorage{}, HealthAdminKey: "secret"}
	app := fiber.New()
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/reset", h.Reset)
	return app, rdb
}

func TestJSON(t *testing.T) {
	app, _ := setupHealth(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "fleetdesk-api", out["service"])
	assert.Equal(t, "ok", out["status"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Equal(t, "unconfigured", deps["storage"].(map[string]interface{})["status"])
}

func TestErrorsAndReset(t *testing.T) {
	app, rdb := setupHealth(t)
	ctx := context.Background()
	require.NoError(t, rdb.LPush(ctx, middleware.KeyErrorLog, `{"path":"/api/v1/assets","status":500}`, "not json").Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, 7, 0).Err())

	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var entries []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/v1/assets", entries[0]["path"])

	resp, err = app.Test(httptest.NewRequest("GET", "/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/reset?key=secret", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	n, err := rdb.Exists(ctx, middleware.KeyReqTotal, middleware.KeyErrorLog).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, rdb.Exists(ctx, middleware.KeyStartTime).Val() == 1)
}
