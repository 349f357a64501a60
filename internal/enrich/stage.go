// Package enrich provides a small, generic pipeline abstraction that runs
// independent enrichment steps on many items at once, in parallel within a
// stage and sequentially between stages.
package enrich

import (
	"context"
)

// Step is a single enrichment operation that mutates the given item.
// Steps in the same stage may run concurrently on the same item and must
// coordinate on any field they share. A returned error is logged by the
// pipeline; it does not abort the item.
//
// Example:
//
//	func attachLogo(ctx context.Context, c *models.Centre) error { c.Logo = "..."; return nil }
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that are safe to execute in parallel for a single item.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
