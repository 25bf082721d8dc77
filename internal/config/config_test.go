package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "issuebot.db", cfg.DatabasePath)
	assert.Equal(t, DefaultReplyLabel, cfg.ReplyLabel)
	assert.Equal(t, 10, cfg.Search.LimitPerField)
	assert.False(t, cfg.SearchEnabled())
	assert.False(t, cfg.CommentingEnabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
database_path: /var/lib/issuebot/state.db
reply_label: triage-me
search:
  url: http://search.internal:7700
  limit_per_field: 5
github:
  token: ghp_example
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/issuebot/state.db", cfg.DatabasePath)
	assert.Equal(t, "triage-me", cfg.ReplyLabel)
	assert.Equal(t, "http://search.internal:7700", cfg.Search.URL)
	assert.Equal(t, 5, cfg.Search.LimitPerField)
	assert.Equal(t, 10, cfg.Search.TimeoutSeconds, "unset file fields keep defaults")
	assert.True(t, cfg.SearchEnabled())
	assert.True(t, cfg.CommentingEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reply_label: from-file\n"), 0o644))

	t.Setenv("ISSUEBOT_REPLY_LABEL", "from-env")
	t.Setenv("ISSUEBOT_SEARCH_LIMIT_PER_FIELD", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ReplyLabel)
	assert.Equal(t, 3, cfg.Search.LimitPerField)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ReplyLabel = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.DatabasePath = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.LimitPerField = -1
	assert.Error(t, cfg.Validate())
}
