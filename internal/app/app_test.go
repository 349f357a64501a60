package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"crechespots/internal/config"
	"crechespots/internal/resolver"
)

func TestNew_RESTAndSQLite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/creches", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Sunny Days", "latitude": -33.93, "longitude": 18.43}]`))
	})
	mux.HandleFunc("/rest/v1/creche_gallery", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"image_url": "a.jpg"}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &config.Config{
		NominatimURL:   server.URL,
		HTTPTimeout:    time.Second,
		CatalogDriver:  config.CatalogREST,
		SupabaseURL:    server.URL,
		SupabaseKey:    "anon",
		GalleryWorkers: 2,
		StorageDriver:  config.StorageSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "app.db"),
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.WatchCatalog(context.Background()) {
		t.Error("change feed started without a broker")
	}

	centres, err := a.Fetcher.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(centres) != 1 || len(centres[0].Gallery) != 1 {
		t.Errorf("centres = %+v", centres)
	}

	_, s := a.Registry.Create(resolver.StaticLocator{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if snap := s.Snapshot(); len(snap.Centres) != 1 || !snap.Fallback {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{
		HTTPTimeout:   time.Second,
		CatalogDriver: "firebase",
		StorageDriver: config.StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "app.db"),
	}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown catalog driver")
	}
}
