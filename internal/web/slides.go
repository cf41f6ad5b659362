package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/russross/blackfriday"

	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

// SlideRenderer writes one standalone HTML deck per date. Decks are written
// to a temp file and renamed into place, so a deck being regenerated is never
// served half-written.
type SlideRenderer struct {
	dir string
}

// NewSlideRenderer roots deck output at dir.
func NewSlideRenderer(dir string) *SlideRenderer {
	return &SlideRenderer{dir: dir}
}

// Render builds the deck for a date and returns the file path.
func (r *SlideRenderer) Render(date string, papers []domain.Paper) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create slides dir: %w", err)
	}

	body := blackfriday.MarkdownCommon([]byte(buildDeckMarkdown(date, papers)))
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s</body>
</html>
`, date, body)

	tmp := filepath.Join(r.dir, fmt.Sprintf(".%s-%s.tmp", date, uuid.NewString()))
	if err := os.WriteFile(tmp, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write deck: %w", err)
	}

	target := filepath.Join(r.dir, date+".html")
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace deck: %w", err)
	}

	return target, nil
}

func buildDeckMarkdown(date string, papers []domain.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# arXiv cs.CV %s\n\n", date)

	for i, paper := range papers {
		fmt.Fprintf(&b, "---\n\n## %d. %s\n\n", i+1, paper.Title)
		if paper.Authors != "" {
			fmt.Fprintf(&b, "*%s*\n\n", paper.Authors)
		}
		if paper.SummaryJA != "" {
			fmt.Fprintf(&b, "%s\n\n", paper.SummaryJA)
		}
		if paper.ContributionJA != "" && paper.ContributionJA != "-" {
			fmt.Fprintf(&b, "**%s**\n\n", paper.ContributionJA)
		}
		if paper.URL != "" {
			fmt.Fprintf(&b, "[%s](%s)\n\n", paper.ID, paper.URL)
		}
	}

	return b.String()
}

// SlideHandler regenerates and serves the deck for a stored date.
type SlideHandler struct {
	Store    ports.DailyStore
	Renderer *SlideRenderer
	Logger   *slog.Logger
}

func (h *SlideHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/slides/:date", h.Get)
}

func (h *SlideHandler) Get(c *gin.Context) {
	date := c.Param("date")

	papers, err := h.Store.Load(date)
	if err != nil {
		h.Logger.Error("load daily document", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if papers == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no papers for %s", date)})
		return
	}

	path, err := h.Renderer.Render(date, papers)
	if err != nil {
		h.Logger.Error("render slide deck", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.File(path)
}
