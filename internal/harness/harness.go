package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/tmkelly/issuebot/internal/engine"
	"github.com/tmkelly/issuebot/internal/model"
	"github.com/tmkelly/issuebot/internal/search"
	"github.com/tmkelly/issuebot/internal/store"
	"github.com/tmkelly/issuebot/internal/webhook"
)

const defaultReplyLabel = "needs-reply"

// Result captures everything a scenario run produced: per-step
// outcomes, the final issue rows and the delivery log.
type Result struct {
	Scenario   string
	Steps      []StepResult
	Issues     []model.Issue
	Deliveries []store.Delivery
}

// StepResult records the outcome of one delivery.
type StepResult struct {
	Seq           int    `json:"seq"`
	DeliveryID    string `json:"delivery_id"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	CommentPosted bool   `json:"comment_posted"`
}

// Run executes a scenario against a fresh store at dbPath. Each step
// is checked against its Expect clause as it completes; the first
// mismatch aborts the run.
func Run(ctx context.Context, scenario *Scenario, dbPath string) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	replyLabel := scenario.ReplyLabel
	if replyLabel == "" {
		replyLabel = defaultReplyLabel
	}

	// Scenario runs are quiet; failures surface through expectations
	// and golden diffs, not logs.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	searcher := &cannedSearcher{results: scenario.Similar}
	notifier := &recordingNotifier{}
	recon := engine.NewReconciler(st, replyLabel, quiet)
	h := webhook.NewHandler(recon,
		webhook.WithSearch(searcher, 5),
		webhook.WithNotifier(notifier),
		webhook.WithDeliveryLog(st, engine.NewClockAt(0), engine.UUIDv7Generator{}),
		webhook.WithLogger(quiet),
	)

	result := &Result{Scenario: scenario.Name}
	for i, step := range scenario.Steps {
		body, err := buildBody(step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.DeliveryID, err)
		}

		before := notifier.sent
		outcome := h.Handle(ctx, body, step.DeliveryID)
		posted := notifier.sent > before

		if step.Expect != nil {
			if string(outcome.Status) != step.Expect.Status {
				return nil, fmt.Errorf("step %d (%s): outcome %q, expected %q: %s",
					i+1, step.DeliveryID, outcome.Status, step.Expect.Status, outcome.Message)
			}
			if step.Expect.Comment != nil && *step.Expect.Comment != posted {
				return nil, fmt.Errorf("step %d (%s): comment posted = %v, expected %v",
					i+1, step.DeliveryID, posted, *step.Expect.Comment)
			}
		}

		result.Steps = append(result.Steps, StepResult{
			Seq:           i + 1,
			DeliveryID:    step.DeliveryID,
			Action:        step.Action,
			Status:        string(outcome.Status),
			CommentPosted: posted,
		})
	}

	if result.Issues, err = finalIssues(ctx, st, scenario); err != nil {
		return nil, err
	}
	if result.Deliveries, err = st.ReadDeliveries(ctx, 0); err != nil {
		return nil, fmt.Errorf("reading delivery log: %w", err)
	}
	return result, nil
}

// finalIssues fetches the stored row for every issue id the scenario
// touched, in ascending id order. Ids that never persisted (malformed
// steps) are absent.
func finalIssues(ctx context.Context, st *store.Store, scenario *Scenario) ([]model.Issue, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, step := range scenario.Steps {
		if _, ok := seen[step.Issue.ID]; ok {
			continue
		}
		seen[step.Issue.ID] = struct{}{}
		ids = append(ids, step.Issue.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	issues := make([]model.Issue, 0, len(ids))
	for _, id := range ids {
		issue, found, err := st.GetIssue(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching issue %d: %w", id, err)
		}
		if found {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// buildBody assembles the wire payload for a step.
func buildBody(step Step) ([]byte, error) {
	doc := step.Issue

	createdAt, err := parseDocTime(doc.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseDocTime(doc.UpdatedAt, "updated_at")
	if err != nil {
		return nil, err
	}

	labels := make([]map[string]string, 0, len(doc.Labels))
	for _, name := range doc.Labels {
		labels = append(labels, map[string]string{"name": name})
	}
	assignees := make([]map[string]string, 0, len(doc.Assignees))
	for _, login := range doc.Assignees {
		assignees = append(assignees, map[string]string{"login": login})
	}

	payload := map[string]any{
		"action": step.Action,
		"issue": map[string]any{
			"id":         doc.ID,
			"number":     doc.Number,
			"title":      doc.Title,
			"state":      doc.State,
			"user":       map[string]any{"login": doc.Author},
			"labels":     labels,
			"assignees":  assignees,
			"created_at": createdAt.Format(time.RFC3339),
			"updated_at": updatedAt.Format(time.RFC3339),
		},
		"repository": map[string]any{"full_name": doc.Repository},
		"sender":     map[string]any{"login": doc.Author},
	}
	return json.Marshal(payload)
}

func parseDocTime(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("issue %s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("issue %s: %w", field, err)
	}
	return t, nil
}

// cannedSearcher returns the scenario's fixed similarity results.
type cannedSearcher struct {
	results []search.SimilarIssue
}

func (s *cannedSearcher) Search(ctx context.Context, issue model.Issue, limitPerField int) ([]search.SimilarIssue, error) {
	return s.results, nil
}

// recordingNotifier counts sent comments instead of posting them. The
// send gate matches production: no comments on closed issues.
type recordingNotifier struct {
	sent int
}

func (n *recordingNotifier) ShouldSendComment(action string, issue model.Issue, similar []search.SimilarIssue) bool {
	return issue.State != model.StateClosed
}

func (n *recordingNotifier) SendComment(ctx context.Context, issue model.Issue, similar []search.SimilarIssue) error {
	n.sent++
	return nil
}
