package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dalemusser/contactd/internal/domain/models"
	"go.uber.org/zap"
)

// FileStore keeps the log as one pretty-printed JSON array. Every Append
// rewrites the whole file through a temp file and a rename, so readers see
// either the old array or the new one.
type FileStore struct {
	path     string
	maxBytes int64
	logger   *zap.Logger

	mu sync.Mutex // held across read-modify-write
}

// NewFileStore returns a store writing to path. The file and its directory
// are created on first Append.
func NewFileStore(path string, maxBytes int64, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, maxBytes: maxBytes, logger: logger}
}

func (s *FileStore) Backend() string { return "file" }

func (s *FileStore) Close() error { return nil }

// Path returns the log file location.
func (s *FileStore) Path() string { return s.path }

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, sub models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytes > 0 {
		info, err := os.Stat(s.path)
		switch {
		case err == nil && info.Size() > s.maxBytes:
			return ErrStorageFull
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("store: stat %s: %w", s.path, err)
		}
	}

	subs, err := s.read()
	if err != nil {
		return err
	}
	subs = append(subs, sub)

	data, err := encode(subs)
	if err != nil {
		return fmt.Errorf("store: encode log: %w", err)
	}
	return writeAtomic(s.path, data)
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Ping checks that the log directory exists or can be created.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: log directory: %w", err)
	}
	return nil
}

// read loads the log. A missing file is an empty log; so is a file that does
// not hold a JSON array of submissions, which is logged and later replaced.
func (s *FileStore) read() ([]models.Submission, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var subs []models.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		s.logger.Warn("contact log is not a JSON array; starting a new one",
			zap.String("path", s.path), zap.Int("bytes", len(data)), zap.Error(err))
		return nil, nil
	}
	return subs, nil
}

func encode(subs []models.Submission) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("store: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	committed = true
	return nil
}
