// Package config loads the nimbus configuration file and applies
// environment overrides. The file is optional; every field has a default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"nimbus/internal/nws"
	"nimbus/internal/store"
)

// DefaultModel is the model used for chat when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Config is the resolved nimbus configuration.
type Config struct {
	UserAgent  string `yaml:"user_agent" json:"user_agent"`
	NWSBaseURL string `yaml:"nws_base_url" json:"nws_base_url"`
	Model      string `yaml:"model" json:"model"`
	MaxTokens  int    `yaml:"max_tokens" json:"max_tokens"`
	DBPath     string `yaml:"db_path" json:"db_path"`
	TimeoutSec int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogFormat  string `yaml:"log_format" json:"log_format"`

	// APIKey is never read from the file; only ANTHROPIC_API_KEY.
	APIKey string `yaml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		UserAgent:  nws.DefaultUserAgent,
		NWSBaseURL: nws.DefaultBaseURL,
		Model:      DefaultModel,
		MaxTokens:  1000,
		DBPath:     defaultDBPath(),
		TimeoutSec: 30,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return store.DefaultDBPath
	}
	return filepath.Join(home, store.DefaultDBPath)
}

// Load reads a config file (YAML or JSON, detected by extension or content)
// over the defaults, then applies environment overrides. An empty path skips
// the file and uses defaults + env only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := parse(data, filepath.Ext(path), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.TimeoutSec <= 0 {
		return nil, fmt.Errorf("timeout_seconds must be positive, got %d", cfg.TimeoutSec)
	}
	return cfg, nil
}

// parse decodes data into cfg. ext is the file extension for a format hint;
// empty = detect from content (JSON starts with '{', else YAML).
func parse(data []byte, ext string, cfg *Config) error {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config yaml: %w", err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config json: %w", err)
		}
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// applyEnv overlays NIMBUS_* variables and the Anthropic API key.
func (c *Config) applyEnv() {
	if v := os.Getenv("NIMBUS_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("NIMBUS_NWS_BASE_URL"); v != "" {
		c.NWSBaseURL = v
	}
	if v := os.Getenv("NIMBUS_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("NIMBUS_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("NIMBUS_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("NIMBUS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
