// Package search calls the external similarity-search service.
//
// Search is best-effort enrichment: it is fallible and latency-bearing,
// and its failures never affect persistence correctness. The event
// handler logs errors from here and continues with an empty result set.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmkelly/issuebot/internal/model"
)

const defaultTimeout = 10 * time.Second

// SimilarIssue is one match returned by the similarity service.
type SimilarIssue struct {
	ID         int64   `json:"id"`
	Number     int     `json:"number"`
	Repository string  `json:"repository"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	URL        string  `json:"url,omitempty"`
}

// Client is an HTTP client for the similarity-search service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a search client for the service at baseURL.
// A zero timeout falls back to 10 seconds; the per-request context can
// tighten it further.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Repository    string   `json:"repository"`
	Number        int      `json:"number"`
	Title         string   `json:"title"`
	Labels        []string `json:"labels,omitempty"`
	LimitPerField int      `json:"limit_per_field"`
}

type searchResponse struct {
	Results []SimilarIssue `json:"results"`
}

// Search returns issues similar to the given one, at most limitPerField
// matches per indexed field. The context bounds the call; a timeout or
// non-2xx response is returned as an error for the caller to log and
// swallow.
func (c *Client) Search(ctx context.Context, issue model.Issue, limitPerField int) ([]SimilarIssue, error) {
	names := make([]string, len(issue.Labels))
	for i, l := range issue.Labels {
		names[i] = l.Name
	}

	payload, err := json.Marshal(searchRequest{
		Repository:    issue.Repository,
		Number:        issue.Number,
		Title:         issue.Title,
		Labels:        names,
		LimitPerField: limitPerField,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	if decoded.Results == nil {
		decoded.Results = []SimilarIssue{}
	}
	return decoded.Results, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
