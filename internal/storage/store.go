// Package storage provides small key/value blob stores used to persist
// client-side state such as the saved-location list.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when no value is stored under the key.
var ErrNotExist = errors.New("storage: key does not exist")

// Store reads and writes whole values by key. Values are opaque bytes; there
// are no partial updates.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
