// Package main provides the crechespots proximity search HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crechespots/internal/api"
	"crechespots/internal/app"
	"crechespots/internal/config"
	"crechespots/internal/env"
	"crechespots/pkg/graceful"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("crechespots-server version %s\n", version)
		return
	}

	env.LoadEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	log.Printf("Starting crechespots server...")
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Catalog driver: %s", cfg.CatalogDriver)
	log.Printf("Storage driver: %s", cfg.StorageDriver)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if !a.WatchCatalog(ctx) {
		log.Printf("Catalog change feed disabled (KAFKA_BROKER not set)")
	}

	handler := api.NewHandler(a.Registry, a.Resolver, nil)
	router := api.SetupRouter(handler, cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		log.Printf("Health check: http://localhost:%s/health", cfg.Port)
		log.Printf("API endpoints:")
		log.Printf("  - POST   /v1/sessions")
		log.Printf("  - GET    /v1/sessions/:id")
		log.Printf("  - GET    /v1/suggestions?q=")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	err = graceful.Shutdown(10*time.Second,
		graceful.Step{Name: "http server", Fn: srv.Shutdown},
		graceful.Step{Name: "application", Fn: func(context.Context) error {
			a.Close()
			return nil
		}},
	)
	if err != nil {
		log.Printf("Shutdown finished with errors: %v", err)
	}
	log.Println("Server stopped.")
}

func printUsage() {
	fmt.Printf("crechespots server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  ENV                     development or production (default: development)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  CATALOG_DRIVER          rest or postgres (default: rest)")
	fmt.Println("  SUPABASE_URL            Data API base URL (rest catalog)")
	fmt.Println("  SUPABASE_KEY            Data API key (rest catalog)")
	fmt.Println("  DATABASE_URL            Postgres connection string (postgres catalog)")
	fmt.Println("  GALLERY_WORKERS         Concurrent gallery fetches (default: 8)")
	fmt.Println("  STORAGE_DRIVER          sqlite or s3 (default: sqlite)")
	fmt.Println("  SQLITE_PATH             SQLite file for saved locations (default: ./data/crechespots.db)")
	fmt.Println("  MINIO_ENDPOINT          S3 endpoint (s3 storage)")
	fmt.Println("  MINIO_ACCESS_KEY        S3 access key (s3 storage)")
	fmt.Println("  MINIO_SECRET_KEY        S3 secret key (s3 storage)")
	fmt.Println("  MINIO_USE_SSL           Use TLS for S3 (default: false)")
	fmt.Println("  MINIO_BUCKET            S3 bucket (default: crechespots)")
	fmt.Println("  DEVICE_ID               Saved-location list to use (default: default)")
	fmt.Println("  NOMINATIM_URL           Geocoding service (default: public Nominatim)")
	fmt.Println("  NOMINATIM_USER_AGENT    User-Agent sent to the geocoder")
	fmt.Println("  NOMINATIM_LANGUAGE      Language of place names (default: en)")
	fmt.Println("  HTTP_TIMEOUT_SECONDS    Outbound HTTP timeout (default: 10)")
	fmt.Println("  KAFKA_BROKER            Enables catalog change events when set")
	fmt.Println("  KAFKA_TOPIC             Change event topic (default: catalog-changes)")
	fmt.Println("  KAFKA_GROUP_ID          Consumer group (default: crechespots)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET    /health                                  Health check")
	fmt.Println("  POST   /v1/sessions                             Start a search (?wait=true blocks until ready)")
	fmt.Println("  GET    /v1/sessions/:id                         Current list")
	fmt.Println("  DELETE /v1/sessions/:id                         End a search")
	fmt.Println("  PUT    /v1/sessions/:id/query                   Filter by name")
	fmt.Println("  POST   /v1/sessions/:id/location                Search from a typed place")
	fmt.Println("  POST   /v1/sessions/:id/relocate                Search from the device position")
	fmt.Println("  GET    /v1/sessions/:id/locations               Saved locations")
	fmt.Println("  POST   /v1/sessions/:id/locations/:name/select  Search from a saved location")
	fmt.Println("  DELETE /v1/sessions/:id/locations/:name         Forget a saved location")
	fmt.Println("  POST   /v1/sessions/:id/refresh                 Reload the catalog")
	fmt.Println("  POST   /v1/sessions/:id/notice/dismiss          Dismiss the location notice")
	fmt.Println("  GET    /v1/sessions/:id/centres/:centreId       Open a centre")
	fmt.Println("  GET    /v1/suggestions?q=                       Place suggestions")
	fmt.Println()
}
