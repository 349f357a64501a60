package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CATALOG_DRIVER", "STORAGE_DRIVER", "GALLERY_WORKERS", "HTTP_TIMEOUT_SECONDS", "KAFKA_BROKER", "NOMINATIM_LANGUAGE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CatalogDriver != CatalogREST || cfg.StorageDriver != StorageSQLite {
		t.Errorf("drivers = %s/%s", cfg.CatalogDriver, cfg.StorageDriver)
	}
	if cfg.GalleryWorkers != 8 {
		t.Errorf("GalleryWorkers = %d", cfg.GalleryWorkers)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if cfg.ChangeFeedEnabled() {
		t.Error("change feed enabled without a broker")
	}
	if cfg.NominatimLanguage != "en" {
		t.Errorf("NominatimLanguage = %q", cfg.NominatimLanguage)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/creches")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("KAFKA_BROKER", "localhost:9092")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("NOMINATIM_LANGUAGE", "af")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://crechespots.org.za, http://localhost:19006,")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.MinioUseSSL || !cfg.ChangeFeedEnabled() || cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.NominatimLanguage != "af" {
		t.Errorf("NominatimLanguage = %q", cfg.NominatimLanguage)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:19006" {
		t.Errorf("CORSAllowedOrigins = %q", cfg.CORSAllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			CatalogDriver:  CatalogREST,
			SupabaseURL:    "https://example.supabase.co",
			SupabaseKey:    "anon",
			StorageDriver:  StorageSQLite,
			SQLitePath:     "data.db",
			GalleryWorkers: 4,
			HTTPTimeout:    time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing supabase key", func(c *Config) { c.SupabaseKey = "" }, "SUPABASE_KEY"},
		{"postgres without url", func(c *Config) { c.CatalogDriver = CatalogPostgres }, "DATABASE_URL"},
		{"unknown catalog", func(c *Config) { c.CatalogDriver = "firebase" }, "CATALOG_DRIVER"},
		{"s3 without endpoint", func(c *Config) { c.StorageDriver = StorageS3; c.MinioBucket = "b" }, "MINIO_ENDPOINT"},
		{"unknown storage", func(c *Config) { c.StorageDriver = "redis" }, "STORAGE_DRIVER"},
		{"no workers", func(c *Config) { c.GalleryWorkers = 0 }, "GALLERY_WORKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate err = %v; want mention of %s", err, tt.wantErr)
			}
		})
	}
}
