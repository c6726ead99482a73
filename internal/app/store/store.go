// Package store persists accepted contact submissions.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/contactd/internal/domain/models"
	"go.uber.org/zap"
)

// ErrStorageFull is returned by Append when the log already exceeds its
// byte ceiling. The log is left untouched.
var ErrStorageFull = errors.New("store: storage full")

// Store is an append-only contact log.
type Store interface {
	// Append adds sub to the end of the log.
	Append(ctx context.Context, sub models.Submission) error
	// List returns every submission in insertion order.
	List(ctx context.Context) ([]models.Submission, error)
	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error
	// Backend names the implementation ("file", "sqlite").
	Backend() string
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string // "file" (default) or "sqlite"
	Path     string
	MaxBytes int64 // <= 0 disables the ceiling
}

// Open returns the backend named by cfg.Backend. The sqlite backend also
// creates its table.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path, cfg.MaxBytes, logger), nil
	case "sqlite":
		st, err := OpenSQLite(ctx, cfg.Path, cfg.MaxBytes)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
