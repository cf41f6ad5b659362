package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

const dateLayout = "2006-01-02"

// Runner executes one scrape-enrich-store cycle. Satisfied by *Pipeline;
// triggers depend on this instead of the concrete type.
type Runner interface {
	Run(ctx context.Context, hintDate string) (string, int, error)
}

// PipelineDeps wires the adapters into the daily ingestion workflow.
type PipelineDeps struct {
	Source   ports.ListingSource
	Enricher ports.Enricher
	Store    ports.DailyStore
	Logger   *slog.Logger
}

// Pipeline implements the fetch, enrich, store workflow for one listing day.
type Pipeline struct {
	source   ports.ListingSource
	enricher ports.Enricher
	store    ports.DailyStore
	logger   *slog.Logger
	now      func() time.Time
}

var _ Runner = (*Pipeline)(nil)

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   deps.Source,
		enricher: deps.Enricher,
		store:    deps.Store,
		logger:   logger,
		now:      time.Now,
	}
}

// Run scrapes the listing, enriches the papers, and stores the document. The
// document key is the listing's own date; hintDate (when non-empty) and then
// the wall clock serve as fallbacks when the date header could not be parsed.
func (p *Pipeline) Run(ctx context.Context, hintDate string) (string, int, error) {
	date, papers, err := p.source.FetchListing(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("fetch listing: %w", err)
	}

	if date == "" {
		date = hintDate
	}
	if date == "" {
		date = p.now().Format(dateLayout)
		p.logger.Warn("listing date unknown, keying by wall clock", "date", date)
	}

	if len(papers) == 0 {
		p.logger.Info("no papers harvested, nothing to store", "date", date)
		return date, 0, nil
	}

	kept := make([]domain.Paper, 0, len(papers))
	dropped := 0
	for _, paper := range papers {
		if !paper.Valid() {
			dropped++
			continue
		}
		kept = append(kept, paper)
	}
	if dropped > 0 {
		p.logger.Warn("dropped entries without identifier", "count", dropped)
	}

	if p.enricher != nil {
		kept = p.enricher.Enrich(ctx, kept)
	}

	if err := p.store.Save(date, kept); err != nil {
		return date, 0, fmt.Errorf("store document %s: %w", date, err)
	}

	p.logger.Info("stored daily document", "date", date, "papers", len(kept))
	return date, len(kept), nil
}
