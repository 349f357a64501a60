// Package locationcache persists the user's saved locations: a small list of
// previously resolved places, unique by name, stored as one JSON value.
package locationcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"crechespots/internal/models"
	"crechespots/internal/storage"
)

// Cache serializes every read-modify-write of the list through one mutex, so
// two resolutions finishing together cannot drop or duplicate an entry.
type Cache struct {
	store storage.Store
	key   string
	mu    sync.Mutex
}

func New(store storage.Store, key string) *Cache {
	return &Cache{store: store, key: key}
}

// Save appends loc unless a location with the same name (exact match) is
// already stored, then persists the list. The returned list is the one now
// stored, unchanged when loc was a duplicate.
func (c *Cache) Save(ctx context.Context, loc models.NamedLocation) ([]models.NamedLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	locations := c.load(ctx)
	for _, existing := range locations {
		if existing.Name == loc.Name {
			return locations, nil
		}
	}

	locations = append(locations, loc)
	if err := c.persist(ctx, locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// LoadAll returns the stored list. A missing, unreadable or corrupt value is
// treated as an empty list.
func (c *Cache) LoadAll(ctx context.Context) []models.NamedLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Find returns the saved location with exactly this name.
func (c *Cache) Find(ctx context.Context, name string) (models.NamedLocation, bool) {
	for _, loc := range c.LoadAll(ctx) {
		if loc.Name == name {
			return loc, true
		}
	}
	return models.NamedLocation{}, false
}

// Delete removes every entry named name and persists the remainder.
func (c *Cache) Delete(ctx context.Context, name string) ([]models.NamedLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	locations := c.load(ctx)
	kept := make([]models.NamedLocation, 0, len(locations))
	for _, loc := range locations {
		if loc.Name != name {
			kept = append(kept, loc)
		}
	}
	if err := c.persist(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (c *Cache) load(ctx context.Context) []models.NamedLocation {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			log.Printf("Error loading saved locations: %v", err)
		}
		return []models.NamedLocation{}
	}

	var locations []models.NamedLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		log.Printf("Discarding unreadable saved locations under %q: %v", c.key, err)
		return []models.NamedLocation{}
	}
	if locations == nil {
		locations = []models.NamedLocation{}
	}
	return locations
}

func (c *Cache) persist(ctx context.Context, locations []models.NamedLocation) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("failed to marshal saved locations: %w", err)
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to persist saved locations: %w", err)
	}
	return nil
}
