package router

import (
	anasvc "fleetdesk-backend/internal/application/analytics"
	assetsvc "fleetdesk-backend/internal/application/assets"
	authsvc "fleetdesk-backend/internal/application/auth"
	listsvc "fleetdesk-backend/internal/application/listings"
	locsvc "fleetdesk-backend/internal/application/locations"
	photosvc "fleetdesk-backend/internal/application/photos"
	"fleetdesk-backend/internal/config"
	"fleetdesk-backend/internal/constants"
	"fleetdesk-backend/internal/infrastructure/database"
	"fleetdesk-backend/internal/infrastructure/storage"
	anahandler "fleetdesk-backend/internal/interfaces/handlers/analytics"
	assethandler "fleetdesk-backend/internal/interfaces/handlers/assets"
	authhandler "fleetdesk-backend/internal/interfaces/handlers/auth"
	healthhandler "fleetdesk-backend/internal/interfaces/handlers/health"
	listhandler "fleetdesk-backend/internal/interfaces/handlers/listings"
	lochandler "fleetdesk-backend/internal/interfaces/handlers/locations"
	photohandler "fleetdesk-backend/internal/interfaces/handlers/photos"
	"fleetdesk-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// formOverhead covers multipart boundaries, part headers and the asset JSON field.
const formOverhead = 1024 * 1024

// bodyLimit admits MaxPhotosPerRequest files of MaxPhotoBytes each in one multipart request.
// Files inside that budget are accepted or rejected one by one; a request larger than the
// whole budget is refused with 413 before any file is looked at.
func bodyLimit(cfg *config.Config) int {
	perFile := cfg.MaxPhotoBytes
	if perFile <= 0 {
		perFile = 5 * 1024 * 1024
	}
	files := cfg.MaxPhotosPerRequest
	if files <= 0 {
		files = 20
	}
	return files*int(perFile) + formOverhead
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit(cfg),
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))

	blobs := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseSecretKey, cfg.PhotoBucket)

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		Storage:        blobs,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		DB:         db,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil {
		authGroup.Post("/register", ah.Register)
		registerDomainRoutes(app, cfg, db, blobs)
	}

	return app, db, rdb, nil
}

func registerDomainRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, blobs storage.BlobStore) {
	photos := &photosvc.Service{DB: db, Blobs: blobs, MaxBytes: cfg.MaxPhotoBytes}
	assets := &assetsvc.Service{DB: db, Photos: photos, Blobs: blobs}
	locations := &locsvc.Service{DB: db}
	analytics := &anasvc.Service{DB: db, WindowDays: cfg.AnalyticsWindowDays}
	listings := &listsvc.Service{DB: db}

	lh := &listhandler.Handlers{Service: listings}
	ash := &assethandler.Handlers{Service: assets}
	ph := &photohandler.Handlers{Service: photos}
	loh := &lochandler.Handlers{Service: locations}
	anh := &anahandler.Handlers{Service: analytics}

	// Storefront
	api := app.Group("/api/v1")
	api.Get("/directory", lh.Directory)
	api.Get("/asset-classes", ash.Classes)
	api.Post("/assets/:asset_id/interactions", anh.Record)

	// Host console
	host := app.Group("/api/v1", middleware.RequireAuth())

	manageListings := middleware.AuthorizePermission(constants.ManageListings)
	host.Post("/listings", manageListings, lh.Create)
	host.Get("/listings/mine", manageListings, lh.Mine)
	host.Get("/listings/:listing_id", manageListings, lh.Get)
	host.Put("/listings/:listing_id", manageListings, lh.Update)

	manageFleet := middleware.AuthorizePermission(constants.ManageFleet)
	host.Get("/listings/:listing_id/assets", manageFleet, ash.List)
	host.Post("/listings/:listing_id/assets", manageFleet, ash.Create)
	host.Get("/assets/:asset_id", manageFleet, ash.Get)
	host.Put("/assets/:asset_id", manageFleet, ash.Update)
	host.Delete("/assets/:asset_id", manageFleet, ash.Delete)
	host.Post("/assets/:asset_id/features", manageFleet, ash.AddFeature)
	host.Delete("/assets/:asset_id/features/:index", manageFleet, ash.RemoveFeature)

	host.Get("/assets/:asset_id/photos", manageFleet, ph.List)
	host.Post("/assets/:asset_id/photos", manageFleet, ph.Upload)
	host.Put("/assets/:asset_id/photos/order", manageFleet, ph.Reorder)
	host.Delete("/photos/:photo_id", manageFleet, ph.Delete)
	host.Patch("/photos/:photo_id/primary", manageFleet, ph.SetPrimary)

	host.Get("/assets/:asset_id/locations", manageFleet, loh.List)
	host.Post("/assets/:asset_id/locations", manageFleet, loh.Create)
	host.Put("/locations/:location_id", manageFleet, loh.Update)
	host.Delete("/locations/:location_id", manageFleet, loh.Delete)
	host.Patch("/locations/:location_id/primary", manageFleet, loh.SetPrimary)

	viewAnalytics := middleware.AuthorizePermission(constants.ViewAnalytics)
	host.Get("/assets/:asset_id/analytics", viewAnalytics, anh.Summary)
	host.Get("/assets/:asset_id/analytics/daily.csv", viewAnalytics, anh.DailyCSV)
}
