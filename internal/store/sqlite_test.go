package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemorySQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Store(t *testing.T) {
	exerciseStore(t, newMemorySQLite(t))
}

func TestSQLite_FileReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "qrforge.db")

	s, err := Open(ctx, Config{URL: "sqlite://" + path})
	require.NoError(t, err)
	id, err := s.SaveHistory(ctx, NewHistoryItem{Content: "persisted", QRType: "text", StyleJSON: "{}"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{URL: path})
	require.NoError(t, err)
	defer s.Close()

	items, err := s.ListHistory(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "persisted", items[0].Content)
}

func TestSQLite_Timestamps(t *testing.T) {
	ctx := context.Background()
	s := newMemorySQLite(t)
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.FixedZone("X", 3600))
	s.now = func() time.Time { return fixed }

	_, err := s.SaveHistory(ctx, NewHistoryItem{Content: "c", QRType: "text", StyleJSON: "{}"})
	require.NoError(t, err)

	items, err := s.ListHistory(ctx, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].CreatedAt.Equal(fixed))
	assert.Equal(t, time.UTC, items[0].CreatedAt.Location())
}

func TestOpen_EmptyURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "  "})
	assert.Error(t, err)
}
