// Package storage provides the key-value stores that hold Aura's persisted
// state: the company list, the selected company and the report history.
//
// Each value is one JSON document under a fixed key. Backends are chosen by
// configuration; all of them satisfy [Store], and the file and memory
// backends also satisfy [Watcher].
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/aura/internal/config"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a minimal key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Watcher is implemented by stores that can report changes made by other
// processes or other handles.
type Watcher interface {
	// Watch sends on the returned channel after each change to key. The
	// channel is closed when ctx is done.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	backend := strings.ToLower(cfg.Backend)
	logger.Debug("opening store", "backend", backend)

	switch backend {
	case "memory":
		return NewMemory(), nil
	case "file", "":
		return OpenFile(cfg.Dir, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", cfg.Backend, strings.Join(config.Backends, ", "))
	}
}

func validKey(key string) error {
	if key == "" {
		return errors.New("storage: empty key")
	}
	return nil
}
