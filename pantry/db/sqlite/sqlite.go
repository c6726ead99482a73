// pantry/db/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Options configures the embedded database.
type Options struct {
	// WALMode enables write-ahead logging.
	WALMode bool
	// BusyTimeout is how long a writer waits for the lock, in milliseconds.
	BusyTimeout int
	// Synchronous is "OFF", "NORMAL", "FULL" or "EXTRA".
	Synchronous string
}

// DefaultOptions suits a small single-writer service: WAL, 5s busy timeout,
// NORMAL synchronous.
func DefaultOptions() Options {
	return Options{
		WALMode:     true,
		BusyTimeout: 5000,
		Synchronous: "NORMAL",
	}
}

// Connect opens the database at path, verifies it answers within ctx and
// applies the journal and synchronous pragmas. The pool holds a single
// connection so writes never contend inside the process.
func Connect(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	if err := applyPragmas(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func buildDSN(path string, opts Options) string {
	q := url.Values{}
	if opts.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.Itoa(opts.BusyTimeout))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func applyPragmas(ctx context.Context, db *sql.DB, opts Options) error {
	if opts.WALMode {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("sqlite: set journal_mode: %w", err)
		}
	}
	switch opts.Synchronous {
	case "":
	case "OFF", "NORMAL", "FULL", "EXTRA":
		if _, err := db.ExecContext(ctx, "PRAGMA synchronous="+opts.Synchronous); err != nil {
			return fmt.Errorf("sqlite: set synchronous: %w", err)
		}
	default:
		return fmt.Errorf("sqlite: invalid synchronous mode %q", opts.Synchronous)
	}
	return nil
}
