package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	scenarios := []string{
		"reply-label-transition",
		"opened-with-trigger",
	}

	for _, name := range scenarios {
		t.Run(name, func(t *testing.T) {
			RunWithGolden(t, filepath.Join("testdata", "scenarios", name+".yaml"))
		})
	}
}

func TestRun_Result(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/reply-label-transition.yaml")
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "run.db")
	result, err := Run(context.Background(), scenario, dbPath)
	require.NoError(t, err)

	require.Len(t, result.Steps, 3)
	assert.Equal(t, "skipped", result.Steps[0].Status)
	assert.Equal(t, "success", result.Steps[1].Status)
	assert.True(t, result.Steps[1].CommentPosted)
	assert.False(t, result.Steps[2].CommentPosted)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Widget crashes on window resize", result.Issues[0].Title)

	require.Len(t, result.Deliveries, 3)
	assert.Equal(t, int64(1), result.Deliveries[0].Seq)
	assert.Equal(t, "d-edited-3", result.Deliveries[2].DeliveryID)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/opened-with-trigger.yaml")
	require.NoError(t, err)

	// Flip the first expectation so the run must fail on step 1.
	scenario.Steps[0].Expect.Status = "skipped"

	dbPath := filepath.Join(t.TempDir(), "mismatch.db")
	_, err = Run(context.Background(), scenario, dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), `expected "skipped"`)
}

func TestRun_ReplyLabelOverride(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/opened-with-trigger.yaml")
	require.NoError(t, err)

	// With a different trigger label nothing fires, so the success
	// expectations must be relaxed first.
	scenario.ReplyLabel = "triage"
	for i := range scenario.Steps {
		scenario.Steps[i].Expect = nil
	}

	dbPath := filepath.Join(t.TempDir(), "override.db")
	result, err := Run(context.Background(), scenario, dbPath)
	require.NoError(t, err)

	for _, step := range result.Steps {
		assert.Equal(t, "skipped", step.Status)
		assert.False(t, step.CommentPosted)
	}
}
