package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"arxivdigest/internal/config"
	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

const (
	dateHeaderPrefix = "Showing new listings for"
	dateHeaderLayout = "Monday, 2 January 2006"
)

var showingExpr = regexp.MustCompile(`showing (\d+) of \d+ entries`)

// ListingScanner scrapes the new-listings page and, per harvested paper, its
// abstract page. Only "New submissions" and "Cross submissions" sections are
// harvested; replacements are never visited.
type ListingScanner struct {
	client        *http.Client
	listingURL    string
	baseURL       string
	fallbackLimit int
	userAgent     string
	logger        *slog.Logger
}

var _ ports.ListingSource = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; pass nil to use a default one with
// the configured timeout.
func NewListingScanner(client *http.Client, cfg config.ScraperConfig, logger *slog.Logger) *ListingScanner {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := cfg.FallbackLimit
	if limit <= 0 {
		limit = 1000
	}

	return &ListingScanner{
		client:        client,
		listingURL:    cfg.ListingURL,
		baseURL:       baseOf(cfg.ListingURL),
		fallbackLimit: limit,
		userAgent:     cfg.UserAgent,
		logger:        logger,
	}
}

// FetchListing harvests the listing page. A listing-page fetch failure aborts
// the whole call; per-paper abstract failures are logged and absorbed.
func (s *ListingScanner) FetchListing(ctx context.Context) (string, []domain.Paper, error) {
	doc, err := s.fetchDocument(ctx, s.listingURL)
	if err != nil {
		return "", nil, err
	}

	date := parseListingDate(doc)
	counts := parseSectionCounts(doc)

	limit := counts.Total()
	if limit == 0 {
		// Weekend layout or upstream drift; trade precision for availability.
		s.logger.Warn("count headers not found, using fallback bound", "limit", s.fallbackLimit)
		limit = s.fallbackLimit
	} else {
		s.logger.Debug("count headers parsed", "new", counts.New, "cross", counts.Cross)
	}

	papers := s.harvest(ctx, doc, limit)
	s.logger.Info("listing harvested", "date", date, "expected", limit, "papers", len(papers))

	return date, papers, nil
}

// FetchListingDate probes only the date header. Returns "" without error when
// the header is absent or malformed.
func (s *ListingScanner) FetchListingDate(ctx context.Context) (string, error) {
	doc, err := s.fetchDocument(ctx, s.listingURL)
	if err != nil {
		return "", err
	}
	return parseListingDate(doc), nil
}

func (s *ListingScanner) harvest(ctx context.Context, doc *goquery.Document, limit int) []domain.Paper {
	var papers []domain.Paper

	doc.Find("dl").EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		// Replacements appear after cross-lists; never harvest past them,
		// even when the count bound was never reached.
		if isReplacementSection(dl) {
			return false
		}

		dl.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			if len(papers) >= limit {
				return false
			}

			paper := parsePair(dt, dt.Next(), s.baseURL)
			if paper.URL != "" {
				abstract, err := s.fetchAbstract(ctx, paper.URL)
				if err != nil {
					s.logger.Warn("fetch abstract", "id", paper.ID, "error", err)
				} else {
					paper.Abstract = abstract
				}
			}

			papers = append(papers, paper)
			return true
		})

		return len(papers) < limit
	})

	return papers
}

// parsePair extracts one paper from a dt/dd pair. Pairs without the Abstract
// anchor still yield a record, just without id/url.
func parsePair(dt, dd *goquery.Selection, baseURL string) domain.Paper {
	var paper domain.Paper

	anchor := dt.Find(`a[title="Abstract"]`).First()
	if anchor.Length() > 0 {
		paper.ID = strings.TrimSpace(anchor.Text())
		if href, ok := anchor.Attr("href"); ok {
			paper.URL = absoluteURL(baseURL, href)
		}
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	paper.Title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	authors := strings.TrimSpace(dd.Find(".list-authors").First().Text())
	authors = strings.TrimPrefix(authors, "Authors:")
	paper.Authors = strings.Join(strings.Fields(authors), " ")

	return paper
}

func (s *ListingScanner) fetchAbstract(ctx context.Context, pageURL string) (string, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	block := doc.Find("blockquote.abstract").First()
	if block.Length() == 0 {
		return "", fmt.Errorf("abstract block not found")
	}

	text := strings.TrimPrefix(strings.TrimSpace(block.Text()), "Abstract:")
	return strings.TrimSpace(text), nil
}

func (s *ListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// parseListingDate resolves "Showing new listings for Tuesday, 13 January
// 2026" to "2026-01-13". Returns "" for absent or malformed headers.
func parseListingDate(doc *goquery.Document) string {
	var date string
	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSpace(h.Text())
		if !strings.HasPrefix(text, dateHeaderPrefix) {
			return true
		}

		raw := strings.TrimSpace(strings.TrimPrefix(text, dateHeaderPrefix))
		parsed, err := time.Parse(dateHeaderLayout, raw)
		if err != nil {
			return false
		}
		date = parsed.Format("2006-01-02")
		return false
	})
	return date
}

func parseSectionCounts(doc *goquery.Document) domain.SectionCounts {
	var counts domain.SectionCounts
	doc.Find("h3").Each(func(_ int, h *goquery.Selection) {
		text := strings.ToLower(h.Text())
		match := showingExpr.FindStringSubmatch(text)
		if match == nil {
			return
		}
		count, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}

		switch {
		case strings.Contains(text, "new submissions"):
			counts.New = count
		case strings.Contains(text, "cross submissions"), strings.Contains(text, "cross-lists"):
			counts.Cross = count
		}
	})
	return counts
}

func isReplacementSection(dl *goquery.Selection) bool {
	header := dl.PrevAllFiltered("h3").First()
	return strings.Contains(strings.ToLower(header.Text()), "replacement")
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(base, "/") + href
}

func baseOf(listingURL string) string {
	parsed, err := url.Parse(listingURL)
	if err != nil || parsed.Scheme == "" {
		return "https://arxiv.org"
	}
	return parsed.Scheme + "://" + parsed.Host
}
