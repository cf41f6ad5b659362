package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxivdigest/internal/domain"
)

func TestDailyFileStoreRoundTrip(t *testing.T) {
	store := NewDailyFileStore(t.TempDir())

	papers := []domain.Paper{
		{ID: "arXiv:2601.00001", Title: "First", Authors: "A", Abstract: "abs", SummaryJA: "要約"},
		{ID: "arXiv:2601.00002", Title: "Second", Authors: "B"},
	}

	require.NoError(t, store.Save("2026-01-13", papers))
	assert.True(t, store.Exists("2026-01-13"))
	assert.False(t, store.Exists("2026-01-14"))

	loaded, err := store.Load("2026-01-13")
	require.NoError(t, err)
	assert.Equal(t, papers, loaded)
}

func TestDailyFileStoreLoadAbsent(t *testing.T) {
	store := NewDailyFileStore(t.TempDir())

	papers, err := store.Load("2026-01-13")
	require.NoError(t, err)
	assert.Nil(t, papers)
}

func TestDailyFileStoreDocumentFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewDailyFileStore(dir)

	require.NoError(t, store.Save("2026-01-13", []domain.Paper{
		{ID: "arXiv:2601.00001", Title: "First", Authors: "A"},
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "2026-01-13.json"))
	require.NoError(t, err)

	// The stored document is an indented array with stable field names; the
	// web front reads it as-is.
	assert.Contains(t, string(raw), "\n  {")
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "arXiv:2601.00001", generic[0]["id"])
	assert.Equal(t, "First", generic[0]["title"])
	assert.Equal(t, "A", generic[0]["authors"])
}

func TestDailyFileStoreDates(t *testing.T) {
	dir := t.TempDir()
	store := NewDailyFileStore(dir)

	require.NoError(t, store.Save("2026-01-12", nil))
	require.NoError(t, store.Save("2026-01-14", nil))
	require.NoError(t, store.Save("2026-01-13", nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "favorites.json"), []byte("[]"), 0o644))

	dates, err := store.Dates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-14", "2026-01-13", "2026-01-12"}, dates)
}

func TestDailyFileStoreDatesEmptyDir(t *testing.T) {
	store := NewDailyFileStore(filepath.Join(t.TempDir(), "missing"))

	dates, err := store.Dates()
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestDailyFileStoreRename(t *testing.T) {
	store := NewDailyFileStore(t.TempDir())

	require.NoError(t, store.Save("2026-01-13", []domain.Paper{{ID: "x", Title: "T", Authors: "A"}}))
	require.NoError(t, store.Rename("2026-01-13", "2026-01-14"))

	assert.False(t, store.Exists("2026-01-13"))
	assert.True(t, store.Exists("2026-01-14"))
}

func TestDailyFileStoreRejectsBadKeys(t *testing.T) {
	store := NewDailyFileStore(t.TempDir())

	assert.Error(t, store.Save("not-a-date", nil))
	assert.Error(t, store.Rename("2026-01-13", "../escape"))
}

func TestDailyFileStoreNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := NewDailyFileStore(dir)

	require.NoError(t, store.Save("2026-01-13", []domain.Paper{{ID: "x", Title: "T", Authors: "A"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-01-13.json", entries[0].Name())
}
