package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arxivdigest/internal/config"
	"arxivdigest/internal/domain"
)

func geminiResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newTestClient(t *testing.T, server *httptest.Server) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(config.GeminiConfig{
		Endpoint:  server.URL,
		Model:     "gemini-test",
		APIKey:    "test-key",
		BatchSize: 5,
	}, nil)
	if err != nil {
		t.Fatalf("NewGeminiClient error: %v", err)
	}
	return client
}

func TestEnrichAlignedBatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiResponse("```json\n" +
			`[{"summary_ja":"要約1","contribution_ja":"貢献1"},{"summary_ja":"要約2","contribution_ja":"貢献2"}]` +
			"\n```")))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	papers := client.Enrich(context.Background(), []domain.Paper{
		{ID: "a", Abstract: "first"},
		{ID: "b", Abstract: "second"},
	})

	if papers[0].SummaryJA != "要約1" || papers[0].ContributionJA != "貢献1" {
		t.Fatalf("paper 0 not enriched: %+v", papers[0])
	}
	if papers[1].SummaryJA != "要約2" || papers[1].ContributionJA != "貢献2" {
		t.Fatalf("paper 1 not enriched: %+v", papers[1])
	}
}

func TestEnrichMisalignedBatchFallsBack(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiResponse(`[{"summary_ja":"only one"}]`)))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	papers := client.Enrich(context.Background(), []domain.Paper{
		{ID: "a", Abstract: "first"},
		{ID: "b", Abstract: "second"},
	})

	for i, paper := range papers {
		if paper.SummaryJA != SummaryFailed {
			t.Fatalf("paper %d: expected failure sentinel, got %q", i, paper.SummaryJA)
		}
		if paper.ContributionJA != ContributionFailed {
			t.Fatalf("paper %d: expected contribution sentinel, got %q", i, paper.ContributionJA)
		}
	}
}

func TestEnrichServerErrorFallsBack(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server)

	papers := client.Enrich(context.Background(), []domain.Paper{{ID: "a", Abstract: "text"}})

	if papers[0].SummaryJA != SummaryFailed {
		t.Fatalf("expected failure sentinel, got %q", papers[0].SummaryJA)
	}
}

func TestEnrichSkipsPapersWithoutAbstract(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(geminiResponse(`[{"summary_ja":"要約","contribution_ja":"貢献"}]`)))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	papers := client.Enrich(context.Background(), []domain.Paper{
		{ID: "a"},
		{ID: "b", Abstract: "text"},
	})

	if papers[0].SummaryJA != SummaryNoAbstract {
		t.Fatalf("expected no-abstract sentinel, got %q", papers[0].SummaryJA)
	}
	if papers[1].SummaryJA != "要約" {
		t.Fatalf("expected enrichment, got %q", papers[1].SummaryJA)
	}
	if calls != 1 {
		t.Fatalf("expected a single batch call, got %d", calls)
	}
}

func TestEnrichAllWithoutAbstractNoCall(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected")
	}))
	defer server.Close()

	client := newTestClient(t, server)

	papers := client.Enrich(context.Background(), []domain.Paper{{ID: "a"}, {ID: "b"}})

	for i, paper := range papers {
		if paper.SummaryJA != SummaryNoAbstract {
			t.Fatalf("paper %d: expected no-abstract sentinel, got %q", i, paper.SummaryJA)
		}
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGeminiClient(config.GeminiConfig{Model: "gemini-test"}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
