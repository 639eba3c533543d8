package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "GITPICK"

// DefaultPrompt asks for a message suitable for `git commit -m`.
const DefaultPrompt = "Given the following git diff, suggest a commit message that can be passed to `git commit`."

// ViperManager layers flags > env > file > defaults.
type ViperManager struct {
	v    *viper.Viper
	path string
	home string
}

// NewManager reads from path, or ~/.gitpick/config.yaml when path is empty.
// A leading ~ in path is expanded.
func NewManager(path string) (*ViperManager, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "" {
		path = filepath.Join(home, ".gitpick", "config.yaml")
	}
	if path, err = homedir.Expand(path); err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, home)
	bindEnvVars(v)

	return &ViperManager{v: v, path: path, home: home}, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindEnvVars binds every key explicitly; AutomaticEnv alone misses nested keys on Unmarshal.
func bindEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if key == "provider.api_key" {
			_ = v.BindEnv(key, envName(key), "OPENAI_API_KEY")
			continue
		}
		_ = v.BindEnv(key, envName(key))
	}
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.endpoint", "")
	v.SetDefault("provider.temperature", 0.7)
	v.SetDefault("provider.max_tokens", 60)

	v.SetDefault("suggest.count", 5)
	v.SetDefault("suggest.prompt", DefaultPrompt)

	v.SetDefault("commit.amend", true)

	v.SetDefault("git.exclude_patterns", []string{
		"*.lock",
		"go.sum",
		"package-lock.json",
		"pnpm-lock.yaml",
	})
	v.SetDefault("git.max_diff_bytes", 64*1024)

	v.SetDefault("ui.color_enabled", true)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 500)
	v.SetDefault("history.file_path", filepath.Join(home, ".gitpick", "history.json"))

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_entries", 50)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.file_path", filepath.Join(home, ".gitpick", "cache.json"))

	v.SetDefault("security.warning_acknowledged", false)
}

// Path returns the config file location.
func (m *ViperManager) Path() string {
	return m.path
}

// Exists reports whether the config file is present.
func (m *ViperManager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

func (m *ViperManager) read() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load merges all layers and validates the result.
func (m *ViperManager) Load() (*Config, error) {
	if err := m.read(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for _, p := range []*string{&cfg.History.FilePath, &cfg.Cache.FilePath} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetOverride applies a value for this process only, above every other layer.
func (m *ViperManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

// fileOnly loads just the config file, without env or overrides, so writes
// never persist values that came from the environment.
func (m *ViperManager) fileOnly() (*viper.Viper, error) {
	fv := viper.New()
	fv.SetConfigType("yaml")
	fv.SetConfigFile(m.path)
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fv, nil
}

func (m *ViperManager) write(fv *viper.Viper) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fv.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(m.path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	return nil
}

// Init writes a config file holding the defaults. The file is readable only
// by its owner because it may later hold an API key.
func (m *ViperManager) Init() error {
	if m.Exists() {
		return fmt.Errorf("config file already exists at %s", m.path)
	}
	fv := viper.New()
	fv.SetConfigType("yaml")
	setDefaults(fv, m.home)
	return m.write(fv)
}

// Set persists key=value, converting value to the type of the key's default.
func (m *ViperManager) Set(key, value string) error {
	if !m.isKnown(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}
	converted, err := convertValue(value, m.v.Get(key))
	if err != nil {
		return fmt.Errorf("failed to convert value for key %s: %w", key, err)
	}

	fv, err := m.fileOnly()
	if err != nil {
		return err
	}
	fv.Set(key, converted)
	if err := m.write(fv); err != nil {
		return err
	}
	m.v.Set(key, converted)
	return nil
}

func (m *ViperManager) isKnown(key string) bool {
	for _, k := range m.v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func convertValue(value string, existing interface{}) (interface{}, error) {
	switch existing.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int, int64:
		return strconv.Atoi(value)
	case float32, float64:
		return strconv.ParseFloat(value, 64)
	case []interface{}, []string:
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return value, nil
	}
}

// Get returns the effective value of key.
func (m *ViperManager) Get(key string) (string, error) {
	if err := m.read(); err != nil {
		return "", err
	}
	if !m.isKnown(key) {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return fmt.Sprintf("%v", m.v.Get(key)), nil
}

// List returns every effective setting.
func (m *ViperManager) List() (map[string]interface{}, error) {
	if err := m.read(); err != nil {
		return nil, err
	}
	return m.v.AllSettings(), nil
}

// AcknowledgeSecurityWarning records that the data-sharing notice was accepted.
func (m *ViperManager) AcknowledgeSecurityWarning() error {
	return m.Set("security.warning_acknowledged", "true")
}

var _ Manager = (*ViperManager)(nil)
