// Package analysis implements the optional AI analysis client: it posts
// a drive's StatsEngine output and a set of focus areas to an
// Ollama-compatible chat endpoint and returns ranked recommendations.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// Client posts drive summaries to an AI analysis host. Disabled for the
// rest of the current session after an Authentication failure, per spec
// §4.9 — ResetForNewDrive clears the flag at the next drive boundary so
// a transient credential problem doesn't suppress analysis forever.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     *slog.Logger

	disabled atomic.Bool
}

// New creates a Client. timeout is the per-request deadline (default
// 120s).
func New(baseURL, model, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Recommendation is one ranked suggestion returned by the AI host.
type Recommendation struct {
	Parameter string `json:"parameter"`
	Severity  string `json:"severity"`
	Advice    string `json:"advice"`
}

type chatRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// ResetForNewDrive re-enables the client after a prior Authentication
// failure, called at the next drive boundary per spec §4.9 ("retried at
// next scheduled cycle / next drive boundary").
func (c *Client) ResetForNewDrive() {
	c.disabled.Store(false)
}

// Analyze posts results and focusAreas and parses the model's JSON-array
// response into Recommendations. If the client is session-disabled
// (prior Authentication failure) it returns immediately without a
// network call, retried again once ResetForNewDrive runs at the next
// drive boundary.
func (c *Client) Analyze(ctx context.Context, driveID string, results []store.AnalysisResult, focusAreas []string) ([]Recommendation, error) {
	if c.disabled.Load() {
		return nil, classify.New(classify.Authentication, fmt.Errorf("analysis: disabled for this session after a prior auth failure"))
	}

	prompt := buildPrompt(driveID, results, focusAreas)

	body, err := json.Marshal(chatRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("analysis: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analysis: building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify.New(classify.Retryable, fmt.Errorf("analysis: requesting %s: %w", c.baseURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.disabled.Store(true)

		return nil, classify.New(classify.Authentication, fmt.Errorf("analysis: %s rejected credentials (status %d)", c.baseURL, resp.StatusCode))
	}

	if resp.StatusCode >= 500 {
		return nil, classify.New(classify.Retryable, fmt.Errorf("analysis: %s returned %d", c.baseURL, resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classify.New(classify.System, fmt.Errorf("analysis: %s returned %d", c.baseURL, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify.New(classify.Retryable, fmt.Errorf("analysis: reading response body: %w", err))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, classify.New(classify.System, fmt.Errorf("analysis: decoding response envelope: %w", err))
	}

	var recs []Recommendation
	if err := json.Unmarshal([]byte(parsed.Response), &recs); err != nil {
		return nil, classify.New(classify.Data, fmt.Errorf("analysis: model response was not a recommendation array: %w", err))
	}

	return recs, nil
}

func buildPrompt(driveID string, results []store.AnalysisResult, focusAreas []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze drive %s. Focus areas: %s.\n", driveID, strings.Join(focusAreas, ", "))
	fmt.Fprintf(&b, "Respond with a JSON array of objects {parameter, severity, advice}.\n")

	for _, r := range results {
		fmt.Fprintf(&b, "%s: min=%.2f max=%.2f avg=%.2f outlier_band=[%.2f,%.2f]\n",
			r.Parameter, r.Min, r.Max, r.Avg, r.OutlierLo, r.OutlierHi)
	}

	return b.String()
}
