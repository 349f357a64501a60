// Package catalog loads the centre catalog from the backend and attaches
// each centre's gallery.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"crechespots/internal/enrich"
	"crechespots/internal/models"
)

// ErrCatalogFetchFailed is returned when the centre list itself cannot be
// loaded. Gallery failures never produce it.
var ErrCatalogFetchFailed = errors.New("catalog fetch failed")

// Source is the backend holding centres and their gallery images.
type Source interface {
	// Centres returns every centre, galleries not populated.
	Centres(ctx context.Context) ([]models.Centre, error)
	// Gallery returns the image references of one centre in backend order.
	Gallery(ctx context.Context, centreID int64) ([]string, error)
}

type Fetcher struct {
	source  Source
	workers int
}

func NewFetcher(source Source, galleryWorkers int) *Fetcher {
	if galleryWorkers < 1 {
		galleryWorkers = enrich.DefaultWorkers
	}
	return &Fetcher{source: source, workers: galleryWorkers}
}

// FetchAll returns the full catalog in backend order with galleries attached.
// A centre whose gallery cannot be loaded keeps an empty gallery.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.Centre, error) {
	centres, err := f.source.Centres(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetchFailed, err)
	}

	items := make([]*models.Centre, len(centres))
	for i := range centres {
		centres[i].Gallery = []string{}
		items[i] = &centres[i]
	}

	pipeline := enrich.NewPipeline(enrich.NewStage(f.attachGallery)).WithWorkers(f.workers)
	pipeline.Apply(ctx, items)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return centres, nil
}

func (f *Fetcher) attachGallery(ctx context.Context, c *models.Centre) error {
	images, err := f.source.Gallery(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("gallery for centre %d (%s) left empty: %w", c.ID, c.Name, err)
	}
	if images != nil {
		c.Gallery = images
	}
	return nil
}
