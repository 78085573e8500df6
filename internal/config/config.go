package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultPhotoBucket   = "service-photos"
	defaultMaxPhotoBytes = 5 * 1024 * 1024
	defaultMaxPhotos     = 20
	defaultWindowDays    = 30
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // e.g. https://<project>.supabase.co, used for storage API and public URLs
	SupabaseSecretKey   string // must be service_role key, not anon key
	PhotoBucket         string
	MaxPhotoBytes       int64
	MaxPhotosPerRequest int // sizes the request body limit together with MaxPhotoBytes
	AnalyticsWindowDays int
	LogLevel            string
	LogFile             string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("PHOTO_BUCKET", defaultPhotoBucket)
	v.SetDefault("MAX_PHOTO_BYTES", defaultMaxPhotoBytes)
	v.SetDefault("MAX_PHOTOS_PER_REQUEST", defaultMaxPhotos)
	v.SetDefault("ANALYTICS_WINDOW_DAYS", defaultWindowDays)
	v.SetDefault("LOG_LEVEL", "info")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	maxBytes := v.GetInt64("MAX_PHOTO_BYTES")
	if maxBytes <= 0 {
		maxBytes = defaultMaxPhotoBytes
	}
	maxPhotos := v.GetInt("MAX_PHOTOS_PER_REQUEST")
	if maxPhotos <= 0 {
		maxPhotos = defaultMaxPhotos
	}
	window := v.GetInt("ANALYTICS_WINDOW_DAYS")
	if window <= 0 {
		window = defaultWindowDays
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		SupabaseURL:         v.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		PhotoBucket:         v.GetString("PHOTO_BUCKET"),
		MaxPhotoBytes:       maxBytes,
		MaxPhotosPerRequest: maxPhotos,
		AnalyticsWindowDays: window,
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFile:             v.GetString("LOG_FILE"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}
