package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tmkelly/issuebot/internal/search"
)

// Scenario defines one conformance scenario: a sequence of webhook
// deliveries with per-step expectations.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// ReplyLabel overrides the reply-trigger label. Defaults to
	// "needs-reply" when empty.
	ReplyLabel string `yaml:"reply_label,omitempty"`

	// Similar is the canned similarity-search result returned for
	// every search in this scenario.
	Similar []search.SimilarIssue `yaml:"similar,omitempty"`

	// Steps are the deliveries, handled in order.
	Steps []Step `yaml:"steps"`
}

// Step is one webhook delivery within a scenario.
type Step struct {
	// DeliveryID is the transport-assigned delivery id. Required:
	// scenarios never rely on generated ids, which would make golden
	// comparison nondeterministic.
	DeliveryID string `yaml:"delivery_id"`

	// Action is the webhook action ("opened", "labeled", "edited", ...).
	Action string `yaml:"action"`

	// Issue is the issue document carried by the payload.
	Issue IssueDoc `yaml:"issue"`

	// Expect validates the step outcome. Optional.
	Expect *Expect `yaml:"expect,omitempty"`
}

// IssueDoc is the scenario-level issue shape, flattened from the wire
// payload. Times are RFC3339 strings so scenarios stay plain text.
type IssueDoc struct {
	ID         int64    `yaml:"id"`
	Number     int      `yaml:"number"`
	Repository string   `yaml:"repository"`
	Title      string   `yaml:"title"`
	Author     string   `yaml:"author"`
	State      string   `yaml:"state"`
	Labels     []string `yaml:"labels,omitempty"`
	Assignees  []string `yaml:"assignees,omitempty"`
	CreatedAt  string   `yaml:"created_at"`
	UpdatedAt  string   `yaml:"updated_at"`
}

// Expect asserts on a step's outcome.
type Expect struct {
	// Status is the expected outcome status ("success", "skipped",
	// "error").
	Status string `yaml:"status"`

	// Comment, when set, asserts whether a reply comment was posted
	// during this step.
	Comment *bool `yaml:"comment,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural requirements before a run.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}

	seen := make(map[string]struct{}, len(s.Steps))
	for i, step := range s.Steps {
		if step.DeliveryID == "" {
			return fmt.Errorf("step %d: delivery_id is required", i+1)
		}
		if _, dup := seen[step.DeliveryID]; dup {
			return fmt.Errorf("step %d: duplicate delivery_id %q", i+1, step.DeliveryID)
		}
		seen[step.DeliveryID] = struct{}{}
		if step.Action == "" {
			return fmt.Errorf("step %d: action is required", i+1)
		}
	}
	return nil
}
