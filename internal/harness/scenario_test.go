package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/reply-label-transition.yaml")
	require.NoError(t, err)

	assert.Equal(t, "reply-label-transition", s.Name)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, "d-opened-1", s.Steps[0].DeliveryID)
	assert.Equal(t, "labeled", s.Steps[1].Action)
	require.NotNil(t, s.Steps[1].Expect)
	assert.Equal(t, "success", s.Steps[1].Expect.Status)
	require.Len(t, s.Similar, 2)
	assert.Equal(t, 0.91, s.Similar[0].Score)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	require.Error(t, err)
}

func TestLoadScenario_BadYAML(t *testing.T) {
	path := writeScenarioFile(t, "name: [unclosed")
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "steps:\n  - delivery_id: d-1\n    action: opened\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			content: "name: empty\n",
			wantErr: "no steps",
		},
		{
			name:    "missing delivery id",
			content: "name: s\nsteps:\n  - action: opened\n",
			wantErr: "delivery_id is required",
		},
		{
			name:    "duplicate delivery id",
			content: "name: s\nsteps:\n  - delivery_id: d-1\n    action: opened\n  - delivery_id: d-1\n    action: edited\n",
			wantErr: "duplicate delivery_id",
		},
		{
			name:    "missing action",
			content: "name: s\nsteps:\n  - delivery_id: d-1\n",
			wantErr: "action is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
