package harness

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden-file view of a scenario run. Wall-clock
// fields (delivery received_at, raw payloads) are excluded so the
// snapshot is byte-stable across runs.
type Snapshot struct {
	Scenario   string        `json:"scenario"`
	Steps      []StepResult  `json:"steps"`
	Issues     []IssueRow    `json:"issues"`
	Deliveries []DeliveryRow `json:"deliveries"`
}

// IssueRow is the snapshot form of a stored issue.
type IssueRow struct {
	ID         int64    `json:"id"`
	Number     int      `json:"number"`
	Repository string   `json:"repository"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	State      string   `json:"state"`
	Labels     []string `json:"labels"`
	Assignees  []string `json:"assignees"`
	UpdatedAt  string   `json:"updated_at"`
}

// DeliveryRow is the snapshot form of a delivery log entry.
type DeliveryRow struct {
	Seq        int64  `json:"seq"`
	DeliveryID string `json:"delivery_id"`
	Action     string `json:"action"`
	IssueID    int64  `json:"issue_id"`
}

// BuildSnapshot reduces a run result to its golden representation.
func BuildSnapshot(result *Result) Snapshot {
	snap := Snapshot{
		Scenario:   result.Scenario,
		Steps:      result.Steps,
		Issues:     make([]IssueRow, 0, len(result.Issues)),
		Deliveries: make([]DeliveryRow, 0, len(result.Deliveries)),
	}

	for _, issue := range result.Issues {
		labels := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.Name)
		}
		assignees := make([]string, 0, len(issue.Assignees))
		for _, a := range issue.Assignees {
			assignees = append(assignees, a.Login)
		}
		snap.Issues = append(snap.Issues, IssueRow{
			ID:         issue.ID,
			Number:     issue.Number,
			Repository: issue.Repository,
			Title:      issue.Title,
			Author:     issue.Author,
			State:      issue.State,
			Labels:     labels,
			Assignees:  assignees,
			UpdatedAt:  issue.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	for _, d := range result.Deliveries {
		snap.Deliveries = append(snap.Deliveries, DeliveryRow{
			Seq:        d.Seq,
			DeliveryID: d.DeliveryID,
			Action:     d.Action,
			IssueID:    d.IssueID,
		})
	}
	return snap
}

// RunWithGolden loads the scenario at path, runs it against a fresh
// database under t.TempDir, and compares the snapshot against
// testdata/{scenario-name}.golden. Regenerate goldens with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, path string) {
	t.Helper()

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("loading scenario: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), scenario.Name+".db")
	result, err := Run(context.Background(), scenario, dbPath)
	if err != nil {
		t.Fatalf("running scenario %s: %v", scenario.Name, err)
	}

	data, err := json.MarshalIndent(BuildSnapshot(result), "", "  ")
	if err != nil {
		t.Fatalf("marshaling snapshot: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, scenario.Name, append(data, '\n'))
}
