package proximity

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"crechespots/internal/models"
	"crechespots/internal/resolver"
	"crechespots/internal/service"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry tracks the live sessions of a server by id.
type Registry struct {
	resolver LocationResolver
	fetcher  CatalogFetcher
	saved    SavedLocations

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(res LocationResolver, fetcher CatalogFetcher, saved SavedLocations) *Registry {
	return &Registry{
		resolver: res,
		fetcher:  fetcher,
		saved:    saved,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session that reads the device position from locator.
func (r *Registry) Create(locator resolver.Locator) (string, *Session) {
	id := uuid.NewString()
	s := NewSession(r.resolver, r.fetcher, r.saved, locator)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	s.Start()
	return id, s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes the session and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// RefreshAll fetches the catalog once and hands the result to every live
// session. Sessions apply it like their own Refresh.
func (r *Registry) RefreshAll(ctx context.Context) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	type pending struct {
		session *Session
		gen     uint64
	}
	waiting := make([]pending, 0, len(sessions))
	for _, s := range sessions {
		gen, err := s.beginFetch()
		if err != nil {
			continue
		}
		waiting = append(waiting, pending{session: s, gen: gen})
	}
	if len(waiting) == 0 {
		return
	}

	centres, fetchErr := r.fetcher.FetchAll(ctx)
	for _, p := range waiting {
		var own []models.Centre
		if fetchErr == nil {
			own = append([]models.Centre(nil), centres...)
		}
		if err := p.session.finishFetch(ctx, p.gen, own, fetchErr); err != nil && !errors.Is(err, ErrClosed) {
			log.Printf("Refresh after catalog change failed: %v", err)
		}
	}
}

// WatchCatalog refreshes every session each time a catalog change arrives,
// until changes is closed or ctx is done.
func (r *Registry) WatchCatalog(ctx context.Context, changes <-chan service.CatalogChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			log.Printf("Catalog change: %s on %s, refreshing %d sessions", change.Type, change.Table, r.Len())
			r.RefreshAll(ctx)
		}
	}
}
