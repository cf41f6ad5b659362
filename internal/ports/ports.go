package ports

import (
	"context"

	"arxivdigest/internal/domain"
)

// ListingSource scrapes the upstream new-listings page.
type ListingSource interface {
	// FetchListing returns the listing date (or "" when the date header is
	// missing or malformed) together with the harvested papers.
	FetchListing(ctx context.Context) (string, []domain.Paper, error)

	// FetchListingDate is a lightweight probe that only reads the date
	// header, without harvesting or abstract fetches.
	FetchListingDate(ctx context.Context) (string, error)
}

// Enricher attaches translated summaries to papers. Failures are absorbed
// per batch and reported via sentinel values, never via an error.
type Enricher interface {
	Enrich(ctx context.Context, papers []domain.Paper) []domain.Paper
}

// DailyStore persists one document per listing date, keyed YYYY-MM-DD.
type DailyStore interface {
	Save(date string, papers []domain.Paper) error
	Load(date string) ([]domain.Paper, error)
	Exists(date string) bool
	Dates() ([]string, error)
	Rename(from, to string) error
}

// FavoriteStore keeps per-user favorite collections.
type FavoriteStore interface {
	// Save stamps saved_at and stores the paper; returns false when the
	// (user, id) pair already exists.
	Save(user string, paper domain.Paper) (bool, error)
	List(user string) ([]domain.Favorite, error)
	Delete(user, id string) (bool, error)
	// DeleteByDate removes favorites whose saved_at starts with the given
	// date and returns how many were removed.
	DeleteByDate(user, date string) (int, error)
}

// Trigger drives pipeline executions until the context is cancelled.
type Trigger interface {
	Run(ctx context.Context) error
}
