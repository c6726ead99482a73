package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/contactd/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sub(i int) models.Submission {
	at := time.Date(2024, 5, 1, 10, 0, i%60, 0, time.Local)
	return models.New(
		fmt.Sprintf("Client %d", i),
		fmt.Sprintf("client%d@example.com", i),
		"",
		"Bonjour, je souhaite prendre rendez-vous <b>vite</b> &amp; bien.",
		"198.51.100.7", "", at)
}

func names(subs []models.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.Name
	}
	return out
}

func TestFileStore_RoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "contacts.json")
	s := NewFileStore(path, 10<<20, nil)

	var want []string
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, sub(i)))
		want = append(want, fmt.Sprintf("Client %d", i))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, names(got))
	assert.Equal(t, models.Unknown, got[0].UserAgent)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "log should be an indented array")
	assert.Contains(t, string(raw), "<b>vite</b>", "log is written without HTML escaping")
	assert.Contains(t, string(raw), `"timestamp": "2024-05-01 10:00:00"`)
}

func TestFileStore_StoresEscapedTextVerbatim(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.json")
	s := NewFileStore(path, 0, nil)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	require.NoError(t, s.Append(ctx, models.New("Jean &amp; Co", "jean@example.com", "",
		"Bonjour &lt;b&gt; vite", "198.51.100.7", "curl/8", at)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "Jean &amp; Co"`)
	assert.Contains(t, string(raw), `"message": "Bonjour &lt;b&gt; vite"`)
	assert.NotContains(t, string(raw), `\u0026`)

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jean &amp; Co", got[0].Name)
}

func TestFileStore_CeilingLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.json")
	s := NewFileStore(path, 64, nil)

	// The first append always fits: there is no file yet.
	require.NoError(t, s.Append(ctx, sub(1)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, int64(len(before)), int64(64))

	err = s.Append(ctx, sub(2))
	assert.ErrorIs(t, err, ErrStorageFull)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"`), 0o644))

	s := NewFileStore(path, 0, nil)
	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(ctx, sub(7)))
	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Client 7"}, names(got))
}

func TestFileStore_ConcurrentAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.json")
	s := NewFileStore(path, 0, nil)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, sub(i)))
		}(i)
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, n)

	seen := make(map[string]bool, n)
	for _, g := range got {
		seen[g.Name] = true
	}
	assert.Len(t, seen, n)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFileStore(filepath.Join(t.TempDir(), "contacts.json"), 0, nil)
	assert.ErrorIs(t, s.Append(ctx, sub(1)), context.Canceled)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Path: filepath.Join(dir, "contacts.json")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file", s.Backend())
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: "mongo", Path: "x"}, nil)
	assert.Error(t, err)
}
