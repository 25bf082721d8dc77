// Package config loads issuebot configuration from a YAML file with
// environment variable overrides. Environment wins over file, file
// wins over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultReplyLabel is the label whose absent-to-present transition
// triggers the automated reply.
const DefaultReplyLabel = "needs-reply"

// Config holds the full process configuration.
type Config struct {
	// ListenAddr is the HTTP bind address for the webhook server.
	ListenAddr string `yaml:"listen_addr"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `yaml:"database_path"`

	// WebhookSecret is the shared HMAC secret for signature
	// verification. Empty disables verification (local development).
	WebhookSecret string `yaml:"webhook_secret"`

	// ReplyLabel is the reply-trigger label name.
	ReplyLabel string `yaml:"reply_label"`

	Search SearchConfig `yaml:"search"`
	GitHub GitHubConfig `yaml:"github"`
}

// SearchConfig configures the similarity-search collaborator.
type SearchConfig struct {
	// URL is the search service base URL. Empty disables search.
	URL string `yaml:"url"`

	// TimeoutSeconds bounds each search call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// LimitPerField caps matches per indexed field.
	LimitPerField int `yaml:"limit_per_field"`
}

// GitHubConfig configures the comment-posting collaborator.
type GitHubConfig struct {
	// APIURL overrides the GitHub API base (for GHE installs or tests).
	APIURL string `yaml:"api_url"`

	// Token authenticates comment posting. Empty disables commenting.
	Token string `yaml:"token"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:   ":8080",
		DatabasePath: "issuebot.db",
		ReplyLabel:   DefaultReplyLabel,
		Search: SearchConfig{
			TimeoutSeconds: 10,
			LimitPerField:  10,
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from ISSUEBOT_* variables.
func applyEnv(cfg *Config) {
	setString := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	setInt := func(key string, target *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	setString("ISSUEBOT_LISTEN_ADDR", &cfg.ListenAddr)
	setString("ISSUEBOT_DB_PATH", &cfg.DatabasePath)
	setString("ISSUEBOT_WEBHOOK_SECRET", &cfg.WebhookSecret)
	setString("ISSUEBOT_REPLY_LABEL", &cfg.ReplyLabel)
	setString("ISSUEBOT_SEARCH_URL", &cfg.Search.URL)
	setInt("ISSUEBOT_SEARCH_TIMEOUT_SECONDS", &cfg.Search.TimeoutSeconds)
	setInt("ISSUEBOT_SEARCH_LIMIT_PER_FIELD", &cfg.Search.LimitPerField)
	setString("ISSUEBOT_GITHUB_API_URL", &cfg.GitHub.APIURL)
	setString("ISSUEBOT_GITHUB_TOKEN", &cfg.GitHub.Token)
}

// Validate checks invariants that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.ReplyLabel == "" {
		return errors.New("reply_label must not be empty")
	}
	if c.Search.LimitPerField < 0 {
		return fmt.Errorf("search.limit_per_field must be >= 0, got %d", c.Search.LimitPerField)
	}
	if c.Search.TimeoutSeconds < 0 {
		return fmt.Errorf("search.timeout_seconds must be >= 0, got %d", c.Search.TimeoutSeconds)
	}
	return nil
}

// SearchEnabled reports whether a search service is configured.
func (c *Config) SearchEnabled() bool {
	return c.Search.URL != ""
}

// CommentingEnabled reports whether comment posting is configured.
func (c *Config) CommentingEnabled() bool {
	return c.GitHub.Token != ""
}
