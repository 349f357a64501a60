// Package proximity drives one proximity search from start to finish: it
// resolves the origin and loads the catalog concurrently, then keeps the
// distance-sorted, filtered list current as the user changes the query or
// the origin.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"crechespots/internal/models"
	"crechespots/internal/resolver"
	"crechespots/internal/search"
)

var (
	ErrClosed   = errors.New("session closed")
	ErrNotSaved = errors.New("saved location not found")
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
)

// CatalogFetcher loads the full centre catalog.
type CatalogFetcher interface {
	FetchAll(ctx context.Context) ([]models.Centre, error)
}

// LocationResolver resolves the search origin.
type LocationResolver interface {
	ResolveDevice(ctx context.Context, locator resolver.Locator) resolver.Resolution
	ResolveManual(ctx context.Context, text string) (models.NamedLocation, error)
}

// SavedLocations is the user's list of previously resolved places.
type SavedLocations interface {
	LoadAll(ctx context.Context) []models.NamedLocation
	Find(ctx context.Context, name string) (models.NamedLocation, bool)
	Delete(ctx context.Context, name string) ([]models.NamedLocation, error)
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Phase             Phase
	ResolvingLocation bool
	FetchingCatalog   bool
	Origin            *models.NamedLocation
	Fallback          bool
	Query             string
	Centres           []models.AnnotatedCentre
	Notice            string
	CatalogErr        error
}

// Session is one live proximity search. All methods are safe for concurrent
// use. After Close, results of work still in flight are dropped and every
// mutating call returns ErrClosed.
type Session struct {
	resolver LocationResolver
	fetcher  CatalogFetcher
	saved    SavedLocations
	locator  resolver.Locator

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool

	// Origin changes and catalog fetches take a generation when they start.
	// A result is applied only if no newer generation has been applied.
	// Abandoned calls apply nothing and leave older results eligible.
	locGen     uint64
	locApplied uint64
	catGen     uint64
	catApplied uint64
	resolves   int
	fetches    int

	origin     *models.NamedLocation
	userChosen bool
	fallback   bool
	query      string
	catalog    []models.Centre
	catalogErr error
	centres    []models.AnnotatedCentre
	notice     string
}

func NewSession(res LocationResolver, fetcher CatalogFetcher, saved SavedLocations, locator resolver.Locator) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		resolver: res,
		fetcher:  fetcher,
		saved:    saved,
		locator:  locator,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		centres:  []models.AnnotatedCentre{},
	}
}

// Start resolves the device location and fetches the catalog concurrently.
// Each result is applied as soon as it arrives. Calling Start again is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(s.ready)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.resolveDevice(s.ctx, s.locator, false); err != nil && !errors.Is(err, ErrClosed) {
				log.Printf("Initial location resolution dropped: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = s.fetchCatalog(s.ctx)
		}()
		wg.Wait()
	}()
}

// WaitReady blocks until the initial resolution and fetch have both finished.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		if s.ctx.Err() != nil {
			return ErrClosed
		}
		return nil
	case <-s.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:             PhaseIdle,
		ResolvingLocation: s.resolves > 0,
		FetchingCatalog:   s.fetches > 0,
		Fallback:          s.fallback,
		Query:             s.query,
		Centres:           append([]models.AnnotatedCentre{}, s.centres...),
		Notice:            s.notice,
		CatalogErr:        s.catalogErr,
	}
	if s.started {
		snap.Phase = PhaseReady
		if s.resolves > 0 || s.fetches > 0 {
			snap.Phase = PhaseLoading
		}
	}
	if s.origin != nil {
		origin := *s.origin
		snap.Origin = &origin
	}
	return snap
}

func (s *Session) SetQuery(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.query = query
	s.recompute()
	return nil
}

// SubmitLocation resolves typed text and makes it the origin. On failure the
// current state is left untouched. When origin changes overlap, the one
// requested last wins.
func (s *Session) SubmitLocation(ctx context.Context, text string) (models.NamedLocation, error) {
	ctx, cancel := s.bind(ctx)
	defer cancel()

	gen, err := s.nextLocGen()
	if err != nil {
		return models.NamedLocation{}, err
	}
	loc, err := s.resolver.ResolveManual(ctx, text)
	if err != nil {
		if s.ctx.Err() != nil {
			return models.NamedLocation{}, ErrClosed
		}
		return models.NamedLocation{}, err
	}
	return loc, s.choose(ctx, gen, loc)
}

// SelectSaved makes a saved location the origin.
func (s *Session) SelectSaved(ctx context.Context, name string) (models.NamedLocation, error) {
	ctx, cancel := s.bind(ctx)
	defer cancel()

	gen, err := s.nextLocGen()
	if err != nil {
		return models.NamedLocation{}, err
	}
	loc, ok := s.saved.Find(ctx, name)
	if !ok {
		return models.NamedLocation{}, fmt.Errorf("%w: %q", ErrNotSaved, name)
	}
	return loc, s.choose(ctx, gen, loc)
}

// DeleteSaved removes every saved location called name and returns what is left.
func (s *Session) DeleteSaved(ctx context.Context, name string) ([]models.NamedLocation, error) {
	ctx, cancel := s.bind(ctx)
	defer cancel()

	if s.isClosed() {
		return nil, ErrClosed
	}
	remaining, err := s.saved.Delete(ctx, name)
	if err != nil {
		log.Printf("Error deleting location %q: %v", name, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.recompute()
	return remaining, nil
}

func (s *Session) SavedLocations(ctx context.Context) []models.NamedLocation {
	return s.saved.LoadAll(ctx)
}

// Relocate resolves the device position again and makes it the origin, even
// over a location the user picked.
func (s *Session) Relocate(ctx context.Context, locator resolver.Locator) (resolver.Resolution, error) {
	ctx, cancel := s.bind(ctx)
	defer cancel()

	if locator == nil {
		locator = s.locator
	}
	return s.resolveDevice(ctx, locator, true)
}

// Refresh fetches the catalog again. A failure replaces the list with the error.
// A refresh abandoned through ctx leaves the current list in place.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, cancel := s.bind(ctx)
	defer cancel()
	return s.fetchCatalog(ctx)
}

func (s *Session) DismissNotice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.notice = ""
	return nil
}

// Close stops the session and waits for background work to wind down.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) resolveDevice(ctx context.Context, locator resolver.Locator, override bool) (resolver.Resolution, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return resolver.Resolution{}, ErrClosed
	}
	s.locGen++
	gen := s.locGen
	s.resolves++
	s.mu.Unlock()

	res := s.resolver.ResolveDevice(ctx, locator)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolves--
	if s.closed {
		return res, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if gen < s.locApplied {
		// a newer origin has already been applied
		return res, nil
	}
	s.locApplied = gen

	if override || !s.userChosen {
		loc := res.Location
		s.origin = &loc
		s.fallback = res.Fallback
		s.userChosen = false
	}
	if res.Err != nil {
		log.Printf("Error fetching location: %v", res.Err)
		s.notice = fmt.Sprintf("Error fetching location: %v", res.Err)
	}
	s.recompute()
	return res, nil
}

func (s *Session) fetchCatalog(ctx context.Context) error {
	gen, err := s.beginFetch()
	if err != nil {
		return err
	}
	centres, err := s.fetcher.FetchAll(ctx)
	return s.finishFetch(ctx, gen, centres, err)
}

// beginFetch registers a catalog fetch and returns its generation. Every
// beginFetch must be paired with a finishFetch.
func (s *Session) beginFetch() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.catGen++
	s.fetches++
	return s.catGen, nil
}

// finishFetch applies the outcome of fetch gen unless the session closed,
// ctx was abandoned or a newer fetch has already been applied.
func (s *Session) finishFetch(ctx context.Context, gen uint64, centres []models.Centre, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches--
	if s.closed {
		return ErrClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if gen < s.catApplied {
		return err
	}
	s.catApplied = gen

	if err != nil {
		log.Printf("Error fetching creches: %v", err)
		s.catalog = nil
		s.catalogErr = err
	} else {
		s.catalog = centres
		s.catalogErr = nil
	}
	s.recompute()
	return err
}

func (s *Session) nextLocGen() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.locGen++
	return s.locGen, nil
}

// choose makes loc the origin on behalf of the user. Device resolutions
// still in flight are superseded by it.
func (s *Session) choose(ctx context.Context, gen uint64, loc models.NamedLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if gen < s.locApplied {
		return nil
	}
	s.locApplied = gen
	s.origin = &loc
	s.userChosen = true
	s.fallback = false
	s.recompute()
	return nil
}

// recompute rebuilds the derived list. Callers hold mu.
func (s *Session) recompute() {
	if s.catalogErr != nil {
		s.centres = []models.AnnotatedCentre{}
		return
	}
	if s.origin == nil {
		s.centres = search.Run(nil, s.catalog, s.query)
		return
	}
	s.centres = search.Run(&s.origin.Coords, s.catalog, s.query)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// bind derives a context that is also canceled when the session closes.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
