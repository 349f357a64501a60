package proximity

import (
	"context"
	"errors"
	"testing"
	"time"

	"crechespots/internal/resolver"
	"crechespots/internal/service"
)

func TestRegistry(t *testing.T) {
	fetcher := &fakeFetcher{centres: scenarioCatalog()}
	reg := NewRegistry(
		&fakeResolver{device: resolver.Resolution{Location: cityCentre}},
		fetcher,
		newSaved(t),
	)
	defer reg.CloseAll()

	id, s := reg.Create(resolver.StaticLocator{Coord: &cityCentre.Coords})
	if id == "" {
		t.Fatal("empty session id")
	}
	waitReady(t, s)

	got, err := reg.Get(id)
	if err != nil || got != s {
		t.Fatalf("Get(%s) = %v, %v", id, got, err)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) err = %v", err)
	}

	otherID, _ := reg.Create(resolver.StaticLocator{})
	if otherID == id {
		t.Error("session ids collide")
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d; want 2", reg.Len())
	}

	if err := reg.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := reg.Remove(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Remove err = %v", err)
	}
	if err := s.SetQuery("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("removed session still live: %v", err)
	}
}

func TestRegistry_WatchCatalogRefreshesSessions(t *testing.T) {
	fetcher := &fakeFetcher{centres: scenarioCatalog()}
	reg := NewRegistry(
		&fakeResolver{device: resolver.Resolution{Location: cityCentre}},
		fetcher,
		newSaved(t),
	)
	defer reg.CloseAll()

	_, s := reg.Create(resolver.StaticLocator{})
	_, other := reg.Create(resolver.StaticLocator{})
	waitReady(t, s)
	waitReady(t, other)
	if n := len(s.Snapshot().Centres); n != 2 {
		t.Fatalf("centres = %d; want 2", n)
	}

	changes := make(chan service.CatalogChange)
	watchDone := make(chan struct{})
	go func() {
		reg.WatchCatalog(context.Background(), changes)
		close(watchDone)
	}()

	fetcher.set(scenarioCatalog()[:1], nil)
	changes <- service.CatalogChange{Table: service.TableCentres, Type: "DELETE"}

	eventually(t, func() bool {
		return len(s.Snapshot().Centres) == 1 && len(other.Snapshot().Centres) == 1
	})
	// one fetch per session at start, then one shared by both
	if calls := fetcher.callCount(); calls != 3 {
		t.Errorf("FetchAll called %d times; want 3", calls)
	}

	close(changes)
	select {
	case <-watchDone:
	case <-time.After(time.Second):
		t.Fatal("WatchCatalog did not return after the feed closed")
	}
}
