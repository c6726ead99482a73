package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "contacts.db")}, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "sqlite", s.Backend())
	require.NoError(t, s.Ping(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, sub(i)))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, g := range got {
		assert.Equal(t, fmt.Sprintf("Client %d", i), g.Name)
		assert.Equal(t, sub(i).Timestamp(), g.Timestamp())
	}
}

func TestSQLiteStore_Ceiling(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "contacts.db"), 1)
	require.NoError(t, err)
	defer s.Close()

	// The freshly created database is already larger than one byte.
	assert.ErrorIs(t, s.Append(ctx, sub(1)), ErrStorageFull)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
