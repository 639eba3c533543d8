package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

func init() {
	keyring.MockInit()
}

func TestValidateAPIKeyFormat(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		wantErr  bool
	}{
		{"openai classic", "openai", "sk-abcdefghijklmnopqrstuvwx", false},
		{"openai project key", "openai", "sk-proj-abc_DEF-ghijklmnopqrstu", false},
		{"deepseek", "deepseek", "sk-0123456789abcdef0123", false},
		{"missing", "openai", "", true},
		{"too short", "openai", "sk-short", true},
		{"wrong prefix", "openai", "gpt-4o-mini-gpt-4o-mini", true},
		{"ollama needs none", "ollama", "", false},
		{"unknown provider only checks length", "custom", "abcdefghijklmnopqrstuvwxyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKeyFormat(tt.provider, tt.key)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestKeyringStore_RoundTrip(t *testing.T) {
	s := NewKeyringStore()

	_, err := s.Get("openai")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set("openai", "sk-stored"))
	got, err := s.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", got)

	require.NoError(t, s.Delete("openai"))
	require.NoError(t, s.Delete("openai"), "deleting twice is fine")
	_, err = s.Get("openai")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

type brokenStore struct{}

var errDBus = errors.New("dbus unavailable")

func (brokenStore) Get(string) (string, error) {
	return "", errDBus
}

func (brokenStore) Set(string, string) error {
	return errDBus
}

func (brokenStore) Delete(string) error {
	return errDBus
}

func TestResolveAPIKey(t *testing.T) {
	s := NewKeyringStore()
	require.NoError(t, s.Set("deepseek", "sk-from-keychain"))
	t.Cleanup(func() { _ = s.Delete("deepseek") })

	key, err := ResolveAPIKey("openai", "sk-configured", s)
	require.NoError(t, err)
	assert.Equal(t, "sk-configured", key)

	key, err = ResolveAPIKey("deepseek", "", s)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keychain", key)

	key, err = ResolveAPIKey("ollama", "", s)
	require.NoError(t, err)
	assert.Empty(t, key)

	_, err = ResolveAPIKey("openai", "", s)
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingAPIKey), "got %v", err)

	_, err = ResolveAPIKey("openai", "", brokenStore{})
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingAPIKey), "unreachable keychain reads as missing, got %v", err)

	_, err = ResolveAPIKey("openai", "", nil)
	assert.Equal(t, 1, apperrors.GetExitCode(err))
}
