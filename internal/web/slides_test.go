package web

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxivdigest/internal/domain"
)

func TestSlideRendererWritesDeckAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	renderer := NewSlideRenderer(dir)

	papers := []domain.Paper{
		{ID: "arXiv:2601.00001", URL: "https://arxiv.org/abs/2601.00001", Title: "First", Authors: "A", SummaryJA: "要約"},
		{ID: "arXiv:2601.00002", Title: "Second", Authors: "B", ContributionJA: "-"},
	}

	path, err := renderer.Render("2026-01-13", papers)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-01-13.html"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(raw)
	assert.Contains(t, page, "First")
	assert.Contains(t, page, "要約")
	// The "-" contribution sentinel is never rendered.
	assert.NotContains(t, page, "<strong>-</strong>")

	// Re-rendering replaces the deck and leaves no temp files behind.
	_, err = renderer.Render("2026-01-13", papers[:1])
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-01-13.html", entries[0].Name())
}
