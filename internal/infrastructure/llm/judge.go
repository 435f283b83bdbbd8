package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"feedsense/internal/config"
	"feedsense/internal/domain"
	"feedsense/internal/ports"
)

const systemPrompt = `You are an assistant that screens RSS subscription content.
The reader cares about high-quality technical writing, AI developments, major
technology news and in-depth tutorials. Ignore marketing fluff, generic press
releases and low-value content.

Analyze the provided article metadata (title, snippet) and return valid JSON:
{
    "score": <0-10>,
    "reason": "<one or two sentences>",
    "category": "<general topic, e.g. AI, Programming, News, Gadgets>"
}

Scoring guide:
- 0-3: marketing content, recycled news, irrelevant.
- 4-6: ordinary news, interesting but not important.
- 7-8: quality tutorials, major releases, insightful opinions.
- 9-10: breakthrough news, deep technical analysis, must-read.`

const previewLimit = 1000

// Judge scores articles through an OpenAI-compatible chat-completions API.
type Judge struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Judge = (*Judge)(nil)

// NewJudge builds a client from configuration.
func NewJudge(cfg config.LLMConfig) *Judge {
	return &Judge{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

// Review asks the judge for a verdict on a single article. Network failures,
// non-JSON content and verdicts missing required fields all come back as
// errors; the engine treats them uniformly.
func (j *Judge) Review(ctx context.Context, article domain.Article) (domain.Verdict, error) {
	if j.apiKey == "" || j.baseURL == "" || j.model == "" {
		return domain.Verdict{}, fmt.Errorf("judge client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": j.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(article)},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("marshal judge payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+j.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("call judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Verdict{}, fmt.Errorf("judge error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Verdict{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Verdict{}, fmt.Errorf("judge returned no choices")
	}

	return parseVerdict(completion.Choices[0].Message.Content)
}

func buildUserPrompt(article domain.Article) string {
	preview := truncate(article.Summary, previewLimit)
	if preview == "" {
		preview = "No summary provided."
	}

	return fmt.Sprintf("Article Title: %s\nLink: %s\nContent Snippet: %s\n\nAnalyze this article.",
		article.Title, article.Link, preview)
}

// parseVerdict decodes the judge's JSON verdict. All three fields are
// required; absence of any one is a parse failure, not a zero value.
func parseVerdict(content string) (domain.Verdict, error) {
	var raw struct {
		Score    *int    `json:"score"`
		Reason   *string `json:"reason"`
		Category *string `json:"category"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return domain.Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	if raw.Score == nil || raw.Reason == nil || raw.Category == nil {
		return domain.Verdict{}, fmt.Errorf("verdict missing required fields")
	}

	return domain.Verdict{Score: *raw.Score, Reason: *raw.Reason, Category: *raw.Category}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
