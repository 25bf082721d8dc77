package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmkelly/issuebot/internal/engine"
	"github.com/tmkelly/issuebot/internal/model"
)

// EventPayload is the inbound "issues" webhook payload shape.
// Labels and Assignees stay raw here: some delivery paths nest them as
// arrays, others double-encode them as JSON strings, and the mapper
// handles both.
type EventPayload struct {
	Action     string             `json:"action"`
	Issue      *IssuePayload      `json:"issue"`
	Repository *RepositoryPayload `json:"repository"`
	Sender     *UserPayload       `json:"sender"`
}

// IssuePayload is the nested issue object of an event payload.
type IssuePayload struct {
	ID        int64           `json:"id"`
	Number    int             `json:"number"`
	Title     string          `json:"title"`
	State     string          `json:"state"`
	User      *UserPayload    `json:"user"`
	Labels    json.RawMessage `json:"labels"`
	Assignees json.RawMessage `json:"assignees"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RepositoryPayload carries the repository the event belongs to.
type RepositoryPayload struct {
	FullName string `json:"full_name"`
}

// UserPayload is a user reference in a payload.
type UserPayload struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// ParsePayload decodes an event body into its payload form.
func ParsePayload(body []byte) (EventPayload, error) {
	var p EventPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return EventPayload{}, engine.NewMalformedPayloadError("body", fmt.Sprintf("is not valid JSON: %v", err))
	}
	return p, nil
}

// MapIssue converts an event payload into the canonical Issue record.
//
// Returns a MALFORMED_PAYLOAD EventError when a required field (issue
// id, repository name, state) is absent or the wrong shape. Label and
// assignee decoding never fails the mapping: a bad list degrades to an
// empty one and the event is still processed.
func MapIssue(p EventPayload) (model.Issue, error) {
	if p.Issue == nil {
		return model.Issue{}, engine.NewMalformedPayloadError("issue", "is missing")
	}
	if p.Issue.ID == 0 {
		return model.Issue{}, engine.NewMalformedPayloadError("issue.id", "is missing or zero")
	}
	if p.Repository == nil || p.Repository.FullName == "" {
		return model.Issue{}, engine.NewMalformedPayloadError("repository.full_name", "is missing")
	}
	if p.Issue.State == "" {
		return model.Issue{}, engine.NewMalformedPayloadError("issue.state", "is missing")
	}

	var author string
	if p.Issue.User != nil {
		author = p.Issue.User.Login
	}

	return model.Issue{
		ID:         p.Issue.ID,
		Number:     p.Issue.Number,
		Repository: p.Repository.FullName,
		Title:      p.Issue.Title,
		Author:     author,
		State:      p.Issue.State,
		Labels:     model.DecodeLabels(p.Issue.Labels),
		Assignees:  model.DecodeAssignees(p.Issue.Assignees),
		CreatedAt:  p.Issue.CreatedAt,
		UpdatedAt:  p.Issue.UpdatedAt,
	}, nil
}
