// Package notify posts the automated reply comment back to the issue
// tracker. Like search, it runs after persistence has succeeded and
// its failures are logged, not propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmkelly/issuebot/internal/model"
	"github.com/tmkelly/issuebot/internal/search"
)

const defaultAPIURL = "https://api.github.com"

// GitHubNotifier posts issue comments through the GitHub REST API.
type GitHubNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGitHubNotifier creates a notifier. An empty baseURL falls back to
// the public GitHub API.
func NewGitHubNotifier(baseURL, token string, timeout time.Duration) *GitHubNotifier {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GitHubNotifier{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// ShouldSendComment decides whether a reply comment goes out for an
// event that already passed the label-transition gate. Closed issues
// are never commented on - the label transition may arrive in the same
// delivery burst as the close.
func (n *GitHubNotifier) ShouldSendComment(action string, issue model.Issue, similar []search.SimilarIssue) bool {
	return issue.State != model.StateClosed
}

type commentRequest struct {
	Body string `json:"body"`
}

// SendComment posts the rendered reply to the issue.
func (n *GitHubNotifier) SendComment(ctx context.Context, issue model.Issue, similar []search.SimilarIssue) error {
	body, err := json.Marshal(commentRequest{Body: RenderComment(issue, similar)})
	if err != nil {
		return fmt.Errorf("marshaling comment: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", n.baseURL, issue.Repository, issue.Number)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("comment API returned %d: %s", resp.StatusCode, msg)
	}

	return nil
}
