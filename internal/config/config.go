// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crechespots/internal/env"
	"crechespots/pkg/location"
)

const (
	CatalogREST     = "rest"
	CatalogPostgres = "postgres"

	StorageSQLite = "sqlite"
	StorageS3     = "s3"
)

type Config struct {
	Port               string
	Env                string
	CORSAllowedOrigins []string

	NominatimURL       string
	NominatimUserAgent string
	NominatimLanguage  string
	HTTPTimeout        time.Duration

	CatalogDriver  string
	SupabaseURL    string
	SupabaseKey    string
	DatabaseURL    string
	GalleryWorkers int

	StorageDriver  string
	SQLitePath     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	DeviceID       string

	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:               env.GetEnv("PORT", "8080"),
		Env:                env.GetEnv("ENV", "development"),
		CORSAllowedOrigins: splitList(env.GetEnv("CORS_ALLOWED_ORIGINS", "")),

		NominatimURL:       env.GetEnv("NOMINATIM_URL", location.DefaultBaseURL),
		NominatimUserAgent: env.GetEnv("NOMINATIM_USER_AGENT", location.DefaultUserAgent),
		NominatimLanguage:  env.GetEnv("NOMINATIM_LANGUAGE", "en"),
		HTTPTimeout:        time.Duration(env.GetInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,

		CatalogDriver:  env.GetEnv("CATALOG_DRIVER", CatalogREST),
		SupabaseURL:    env.GetEnv("SUPABASE_URL", ""),
		SupabaseKey:    env.GetEnv("SUPABASE_KEY", ""),
		DatabaseURL:    env.GetEnv("DATABASE_URL", ""),
		GalleryWorkers: env.GetInt("GALLERY_WORKERS", 8),

		StorageDriver:  env.GetEnv("STORAGE_DRIVER", StorageSQLite),
		SQLitePath:     env.GetEnv("SQLITE_PATH", "./data/crechespots.db"),
		MinioEndpoint:  env.GetEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: env.GetEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: env.GetEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    env.GetBool("MINIO_USE_SSL", false),
		MinioBucket:    env.GetEnv("MINIO_BUCKET", "crechespots"),
		DeviceID:       env.GetEnv("DEVICE_ID", ""),

		KafkaBroker:  env.GetEnv("KAFKA_BROKER", ""),
		KafkaTopic:   env.GetEnv("KAFKA_TOPIC", "catalog-changes"),
		KafkaGroupID: env.GetEnv("KAFKA_GROUP_ID", "crechespots"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ChangeFeedEnabled reports whether catalog change events should be consumed.
func (c *Config) ChangeFeedEnabled() bool {
	return c.KafkaBroker != ""
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	var errs []error

	switch c.CatalogDriver {
	case CatalogREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_KEY are required for the rest catalog"))
		}
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_DRIVER %q", c.CatalogDriver))
	}

	switch c.StorageDriver {
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	case StorageS3:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for s3 storage"))
		}
		if c.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_BUCKET is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.GalleryWorkers < 1 {
		errs = append(errs, fmt.Errorf("GALLERY_WORKERS must be positive, got %d", c.GalleryWorkers))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %s", c.HTTPTimeout))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
