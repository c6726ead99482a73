package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dalemusser/contactd/internal/domain/models"
	"github.com/dalemusser/contactd/pantry/db/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL,
	submitted_at TEXT NOT NULL,
	ip           TEXT NOT NULL,
	user_agent   TEXT NOT NULL
)`

// SQLiteStore keeps one row per submission in an embedded database. The
// ceiling applies to the database file plus its write-ahead log.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	maxBytes int64
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the submissions table exists.
func OpenSQLite(ctx context.Context, path string, maxBytes int64) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", filepath.Dir(path), err)
	}
	db, err := sqlite.Connect(ctx, path, sqlite.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, maxBytes: maxBytes}, nil
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, sub models.Submission) error {
	if s.maxBytes > 0 {
		size, err := s.size()
		if err != nil {
			return err
		}
		if size > s.maxBytes {
			return ErrStorageFull
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (name, email, phone, message, submitted_at, ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.Name, sub.Email, sub.Phone, sub.Message,
		sub.Timestamp(), sub.SourceIP, sub.UserAgent)
	if err != nil {
		return fmt.Errorf("store: insert submission: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, email, phone, message, submitted_at, ip, user_agent
		 FROM submissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		var ts string
		if err := rows.Scan(&sub.Name, &sub.Email, &sub.Phone, &sub.Message, &ts, &sub.SourceIP, &sub.UserAgent); err != nil {
			return nil, fmt.Errorf("store: scan submission: %w", err)
		}
		sub.SubmittedAt, _ = time.ParseInLocation(models.TimestampLayout, ts, time.Local)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate submissions: %w", err)
	}
	return subs, nil
}

func (s *SQLiteStore) size() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal"} {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("store: stat %s: %w", p, err)
		}
		total += info.Size()
	}
	return total, nil
}
