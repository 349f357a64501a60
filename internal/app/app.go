// Package app wires configuration into the running components shared by the
// server and the command line tool.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"crechespots/internal/catalog"
	"crechespots/internal/config"
	"crechespots/internal/keys"
	"crechespots/internal/locationcache"
	"crechespots/internal/proximity"
	"crechespots/internal/resolver"
	"crechespots/internal/service"
	"crechespots/internal/storage"
	"crechespots/pkg/kafkaclient"
	"crechespots/pkg/location"
)

// App holds the assembled pipeline.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Cache    *locationcache.Cache
	Resolver *resolver.Resolver
	Fetcher  *catalog.Fetcher
	Registry *proximity.Registry

	closers []func()
}

// New builds every component selected by cfg. The returned App must be closed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	})

	source, err := openSource(ctx, cfg, httpClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	if pg, ok := source.(*catalog.PostgresSource); ok {
		a.closers = append(a.closers, pg.Close)
	}

	geocoder := location.NewClient(
		location.WithHTTPClient(httpClient),
		location.WithBaseURL(cfg.NominatimURL),
		location.WithUserAgent(cfg.NominatimUserAgent),
		location.WithLanguage(cfg.NominatimLanguage),
	)

	a.Cache = locationcache.New(store, keys.SavedLocations(cfg.DeviceID))
	a.Resolver = resolver.New(geocoder, a.Cache)
	a.Fetcher = catalog.NewFetcher(source, cfg.GalleryWorkers)
	a.Registry = proximity.NewRegistry(a.Resolver, a.Fetcher, a.Cache)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		log.Printf("Using S3 storage at %s, bucket %s", cfg.MinioEndpoint, cfg.MinioBucket)
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
	case config.StorageSQLite:
		log.Printf("Using SQLite storage at %s", cfg.SQLitePath)
		return storage.NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openSource(ctx context.Context, cfg *config.Config, httpClient *http.Client) (catalog.Source, error) {
	switch cfg.CatalogDriver {
	case config.CatalogPostgres:
		log.Println("Reading catalog from Postgres")
		return catalog.NewPostgresSource(ctx, cfg.DatabaseURL)
	case config.CatalogREST:
		log.Printf("Reading catalog from %s", cfg.SupabaseURL)
		return catalog.NewRESTSource(httpClient, cfg.SupabaseURL, cfg.SupabaseKey), nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
}

// WatchCatalog consumes catalog change events and refreshes live sessions
// until ctx is done. It returns false when no broker is configured. The
// consumer is stopped by Close.
func (a *App) WatchCatalog(ctx context.Context) bool {
	if !a.Config.ChangeFeedEnabled() {
		return false
	}
	consumer := kafkaclient.NewConsumer(kafkaclient.Config{
		Broker:  a.Config.KafkaBroker,
		Topic:   a.Config.KafkaTopic,
		GroupID: a.Config.KafkaGroupID,
	})
	consumer.Start(ctx)
	a.closers = append(a.closers, consumer.Stop)

	events := service.NewIterator(consumer, service.DecodeCatalogChange).Events(ctx)
	go a.Registry.WatchCatalog(ctx, events)
	log.Printf("Watching catalog changes on %s/%s", a.Config.KafkaBroker, a.Config.KafkaTopic)
	return true
}

// Close ends every session and releases resources in reverse order of
// acquisition.
func (a *App) Close() {
	if a.Registry != nil {
		a.Registry.CloseAll()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
