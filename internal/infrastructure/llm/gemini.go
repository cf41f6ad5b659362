package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arxivdigest/internal/config"
	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

// Sentinel values stored when enrichment cannot run. These are part of the
// stored document contract and must stay stable.
const (
	SummaryNoAbstract  = "要約不可 (アブストラクトなし)"
	SummaryFailed      = "要約生成エラー"
	ContributionFailed = "-"
)

// GeminiClient batches papers to the Gemini generateContent API and attaches
// Japanese summary and contribution fields.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	batchSize  int
	batchDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Enricher = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration. A missing API key is an
// unrecoverable configuration error and is reported at startup.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	return &GeminiClient{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

type enrichment struct {
	SummaryJA      string `json:"summary_ja"`
	ContributionJA string `json:"contribution_ja"`
}

// Enrich processes papers in batches. A failed or misaligned batch marks every
// paper in it with the failure sentinels; Enrich never returns an error.
func (c *GeminiClient) Enrich(ctx context.Context, papers []domain.Paper) []domain.Paper {
	for start := 0; start < len(papers); start += c.batchSize {
		end := start + c.batchSize
		if end > len(papers) {
			end = len(papers)
		}
		batch := papers[start:end]

		// Papers without an abstract would waste tokens; mark them directly.
		var withAbstract []int
		for i := range batch {
			if batch[i].Abstract == "" {
				batch[i].SummaryJA = SummaryNoAbstract
				continue
			}
			withAbstract = append(withAbstract, i)
		}

		if len(withAbstract) > 0 {
			c.logger.Info("enriching batch", "from", start+1, "to", end, "papers", len(withAbstract))

			results, err := c.processBatch(ctx, batch, withAbstract)
			if err != nil {
				c.logger.Warn("enrichment batch failed", "from", start+1, "to", end, "error", err)
				for _, i := range withAbstract {
					batch[i].SummaryJA = SummaryFailed
					batch[i].ContributionJA = ContributionFailed
				}
			} else {
				for k, i := range withAbstract {
					batch[i].SummaryJA = results[k].SummaryJA
					batch[i].ContributionJA = results[k].ContributionJA
				}
			}
		}

		if end < len(papers) && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return papers
			case <-time.After(c.batchDelay):
			}
		}
	}

	return papers
}

func (c *GeminiClient) processBatch(ctx context.Context, batch []domain.Paper, indices []int) ([]enrichment, error) {
	prompt := buildPrompt(batch, indices)

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	text := cleanJSONResponse(parsed.Candidates[0].Content.Parts[0].Text)

	var results []enrichment
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("parse batch result: %w", err)
	}
	if len(results) != len(indices) {
		return nil, fmt.Errorf("expected %d results, got %d", len(indices), len(results))
	}

	return results, nil
}

func buildPrompt(batch []domain.Paper, indices []int) string {
	var papersText strings.Builder
	for n, i := range indices {
		fmt.Fprintf(&papersText, "--- PAPER %d ---\n", n+1)
		fmt.Fprintf(&papersText, "Title: %s\n", batch[i].Title)
		fmt.Fprintf(&papersText, "Abstract: %s\n\n", batch[i].Abstract)
	}

	return fmt.Sprintf(`You are an expert researcher. Read the following %d papers (titles and abstracts) and provide a Japanese summary for each.

For each paper, extract:
1. "summary_ja": a concise summary of the abstract in Japanese.
2. "contribution_ja": a one-sentence statement of the main contribution in Japanese.

Input Data:
%s
Output Format:
Return a strictly valid JSON array of objects, one per input paper, in the same order. Do not include markdown formatting (like %s). Just the raw JSON string.
Example structure:
[
    {"summary_ja": "...", "contribution_ja": "..."},
    {"summary_ja": "...", "contribution_ja": "..."}
]`, len(indices), papersText.String(), "```json")
}

// cleanJSONResponse strips markdown code fences the model sometimes adds
// despite instructions.
func cleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
