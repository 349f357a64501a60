package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestRESTSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/creches", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer anon-key" {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.URL.Query().Get("select"); got != centreColumns {
			t.Errorf("select = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Sunny Days", "address": "1 Long St", "phone_number": "021", "capacity": 40,
			 "logo": null, "latitude": -33.93, "longitude": 18.43, "registered": true,
			 "monthly_price": 1800, "weekly_price": 450},
			{"id": 2, "name": "Nowhere", "latitude": null, "longitude": null}
		]`))
	})
	mux.HandleFunc("/rest/v1/creche_gallery", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("order"); got != galleryOrder {
			t.Errorf("gallery order = %q; want %q", got, galleryOrder)
		}
		switch r.URL.Query().Get("creche_id") {
		case "eq.1":
			_, _ = w.Write([]byte(`[{"image_url": "a.jpg"}, {"image_url": "b.jpg"}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message": "boom"}`))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := NewRESTSource(server.Client(), server.URL+"/", "anon-key")
	ctx := context.Background()

	centres, err := src.Centres(ctx)
	if err != nil {
		t.Fatalf("Centres: %v", err)
	}
	if len(centres) != 2 {
		t.Fatalf("len(centres) = %d; want 2", len(centres))
	}
	if c, ok := centres[0].Coordinate(); !ok || c.Latitude != -33.93 {
		t.Errorf("centre 1 coordinate = %v, %v", c, ok)
	}
	if centres[0].WeeklyPrice != 450 || !centres[0].Registered || centres[0].Logo != "" {
		t.Errorf("centre 1 decoded as %+v", centres[0])
	}
	if _, ok := centres[1].Coordinate(); ok {
		t.Errorf("centre 2 should have no coordinate")
	}

	gallery, err := src.Gallery(ctx, 1)
	if err != nil {
		t.Fatalf("Gallery(1): %v", err)
	}
	if !reflect.DeepEqual(gallery, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("Gallery(1) = %v", gallery)
	}

	if _, err := src.Gallery(ctx, 2); err == nil {
		t.Error("Gallery(2): expected error on 500")
	}
}

func TestRESTSource_WithFetcherIsolatesGalleryFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/creches", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 7, "name": "X", "latitude": -33.9, "longitude": 18.4}]`))
	})
	mux.HandleFunc("/rest/v1/creche_gallery", func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	got, err := NewFetcher(NewRESTSource(server.Client(), server.URL, "k"), 1).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 1 || got[0].Name != "X" || got[0].Gallery == nil || len(got[0].Gallery) != 0 {
		t.Fatalf("FetchAll = %+v; want centre X with empty gallery", got)
	}
}
