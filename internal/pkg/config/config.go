// Package config loads gitpick settings from defaults, the YAML file, the
// environment and command-line overrides.
package config

import (
	"fmt"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// Config is the full set of settings.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Commit   CommitConfig   `mapstructure:"commit"`
	Git      GitConfig      `mapstructure:"git"`
	UI       UIConfig       `mapstructure:"ui"`
	History  HistoryConfig  `mapstructure:"history"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
}

// ProviderConfig selects and parameterizes the completion backend.
type ProviderConfig struct {
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Endpoint    string  `mapstructure:"endpoint"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// SuggestConfig controls how many candidates are requested and with which prompt.
type SuggestConfig struct {
	Count  int    `mapstructure:"count"`
	Prompt string `mapstructure:"prompt"`
}

// CommitConfig controls what happens after a candidate is chosen.
type CommitConfig struct {
	// Amend opens the editor on the new commit so the picked message can be refined.
	Amend bool `mapstructure:"amend"`
}

// GitConfig shapes the diff sent to the provider.
type GitConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	MaxDiffBytes    int      `mapstructure:"max_diff_bytes"`
}

type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MaxEntries int    `mapstructure:"max_entries"`
	FilePath   string `mapstructure:"file_path"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MaxEntries int    `mapstructure:"max_entries"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	FilePath   string `mapstructure:"file_path"`
}

type SecurityConfig struct {
	WarningAcknowledged bool `mapstructure:"warning_acknowledged"`
}

// MaxSuggestCount bounds suggest.count.
const MaxSuggestCount = 10

// Validate rejects values that would make the pick flow misbehave.
func (c *Config) Validate() error {
	switch {
	case c.Suggest.Count < 1 || c.Suggest.Count > MaxSuggestCount:
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("suggest.count must be between 1 and %d, got %d", MaxSuggestCount, c.Suggest.Count))
	case c.Provider.Temperature < 0 || c.Provider.Temperature > 2:
		return apperrors.NewInvalidConfigError(
			fmt.Sprintf("provider.temperature must be between 0 and 2, got %v", c.Provider.Temperature))
	case c.Git.MaxDiffBytes < 0:
		return apperrors.NewInvalidConfigError("git.max_diff_bytes must not be negative")
	case c.Provider.MaxTokens < 0:
		return apperrors.NewInvalidConfigError("provider.max_tokens must not be negative")
	}
	return nil
}

// Manager is the configuration surface used by the commands.
type Manager interface {
	Load() (*Config, error)
	Init() error
	Set(key, value string) error
	Get(key string) (string, error)
	List() (map[string]interface{}, error)
	Path() string
}
