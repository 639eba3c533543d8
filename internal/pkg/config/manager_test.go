package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "GITPICK_PROVIDER_API_KEY", "GITPICK_PROVIDER_NAME",
		"GITPICK_PROVIDER_MODEL", "GITPICK_SUGGEST_COUNT", "GITPICK_COMMIT_AMEND",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func newTestManager(t *testing.T) *ViperManager {
	t.Helper()
	clearEnv(t)
	mgr, err := NewManager(filepath.Join(t.TempDir(), "gitpick", "config.yaml"))
	require.NoError(t, err)
	return mgr
}

func TestLoad_Defaults(t *testing.T) {
	mgr := newTestManager(t)

	cfg, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Empty(t, cfg.Provider.APIKey)
	assert.Equal(t, 5, cfg.Suggest.Count)
	assert.Equal(t, DefaultPrompt, cfg.Suggest.Prompt)
	assert.True(t, cfg.Commit.Amend)
	assert.Contains(t, cfg.Git.ExcludePatterns, "go.sum")
	assert.Equal(t, 64*1024, cfg.Git.MaxDiffBytes)
	assert.True(t, filepath.IsAbs(cfg.History.FilePath))
	assert.False(t, mgr.Exists())
}

func TestInit_WritesPrivateFile(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.Init())

	info, err := os.Stat(mgr.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Error(t, mgr.Init(), "second init must not overwrite")
}

func TestSet_ConvertsToDefaultType(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.Set("suggest.count", "3"))
	require.NoError(t, mgr.Set("commit.amend", "false"))
	require.NoError(t, mgr.Set("git.exclude_patterns", "a.lock, vendor.json"))

	reloaded, err := NewManager(mgr.Path())
	require.NoError(t, err)
	cfg, err := reloaded.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Suggest.Count)
	assert.False(t, cfg.Commit.Amend)
	assert.Equal(t, []string{"a.lock", "vendor.json"}, cfg.Git.ExcludePatterns)
}

func TestSet_RejectsBadValues(t *testing.T) {
	mgr := newTestManager(t)

	assert.Error(t, mgr.Set("suggest.count", "many"))
	assert.Error(t, mgr.Set("no.such.key", "x"))
}

func TestSet_DoesNotPersistEnvironment(t *testing.T) {
	mgr := newTestManager(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-environment-000000000000")

	require.NoError(t, mgr.Set("provider.model", "gpt-4o"))

	data, err := os.ReadFile(mgr.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-from-environment")
}

func TestLoad_OpenAIKeyFallback(t *testing.T) {
	mgr := newTestManager(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Provider.APIKey)
}

func TestLoad_PrefixedKeyWinsOverOpenAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GITPICK_PROVIDER_API_KEY", "sk-gitpick")
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-gitpick", cfg.Provider.APIKey)
}

func TestLoad_OverrideWinsOverEnv(t *testing.T) {
	mgr := newTestManager(t)
	t.Setenv("GITPICK_PROVIDER_MODEL", "from-env")

	mgr.SetOverride("provider.model", "from-flag")

	cfg, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Provider.Model)
}

func TestLoad_InvalidCount(t *testing.T) {
	mgr := newTestManager(t)
	mgr.SetOverride("suggest.count", 0)

	_, err := mgr.Load()
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfig), "got %v", err)
}

func TestLoad_CorruptFile(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(mgr.Path()), 0700))
	require.NoError(t, os.WriteFile(mgr.Path(), []byte("provider: [unterminated"), 0600))

	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestGetAndList(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Set("provider.name", "ollama"))

	got, err := mgr.Get("provider.name")
	require.NoError(t, err)
	assert.Equal(t, "ollama", got)

	_, err = mgr.Get("provider.nope")
	assert.Error(t, err)

	all, err := mgr.List()
	require.NoError(t, err)
	assert.Contains(t, all, "suggest")
}

func TestNewManager_ExpandsHome(t *testing.T) {
	mgr, err := NewManager("~/gitpick-test/config.yaml")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(mgr.Path()), mgr.Path())
}

// genLowerString generates lowercase words without the discard rate of SuchThat.
func genLowerString(minLen, maxLen int) gopter.Gen {
	return gen.IntRange(minLen, maxLen).FlatMap(func(length interface{}) gopter.Gen {
		return gen.SliceOfN(length.(int), gen.RuneRange('a', 'z')).Map(func(runes []rune) string {
			return string(runes)
		})
	}, reflect.TypeOf(""))
}

func TestConfigPrecedence_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("env overrides file for provider.model", prop.ForAll(
		func(fileValue, envValue string) bool {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			mgr, err := NewManager(path)
			if err != nil || mgr.Set("provider.model", fileValue) != nil {
				return false
			}

			os.Setenv("GITPICK_PROVIDER_MODEL", envValue)
			defer os.Unsetenv("GITPICK_PROVIDER_MODEL")

			fresh, err := NewManager(path)
			if err != nil {
				return false
			}
			cfg, err := fresh.Load()
			return err == nil && cfg.Provider.Model == envValue
		},
		genLowerString(3, 12),
		genLowerString(3, 12),
	))

	properties.Property("file overrides defaults for suggest.prompt", prop.ForAll(
		func(prompt string) bool {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			mgr, err := NewManager(path)
			if err != nil || mgr.Set("suggest.prompt", prompt) != nil {
				return false
			}
			fresh, err := NewManager(path)
			if err != nil {
				return false
			}
			cfg, err := fresh.Load()
			return err == nil && cfg.Suggest.Prompt == prompt
		},
		genLowerString(1, 30),
	))

	properties.TestingRun(t)
}
