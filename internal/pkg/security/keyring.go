package security

import (
	"errors"

	"github.com/zalando/go-keyring"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// KeyringService is the service name entries are stored under.
const KeyringService = "gitpick"

// ErrKeyNotFound is returned when no key is stored for a provider.
var ErrKeyNotFound = errors.New("no API key stored")

// KeyStore persists API keys per provider.
type KeyStore interface {
	Get(provider string) (string, error)
	Set(provider, key string) error
	Delete(provider string) error
}

// KeyringStore keeps keys in the OS keychain (Keychain, Secret Service, Credential Manager).
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store under KeyringService.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: KeyringService}
}

func (s *KeyringStore) Get(provider string) (string, error) {
	key, err := keyring.Get(s.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrKeyring, "failed to read the OS keychain")
	}
	return key, nil
}

func (s *KeyringStore) Set(provider, key string) error {
	if err := keyring.Set(s.service, provider, key); err != nil {
		return apperrors.Wrap(err, apperrors.ErrKeyring, "failed to write the OS keychain").
			WithSuggestion("Store the key in the config file instead: gitpick config set provider.api_key <key>")
	}
	return nil
}

// Delete removes the provider's key. Deleting a missing key is not an error.
func (s *KeyringStore) Delete(provider string) error {
	err := keyring.Delete(s.service, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return apperrors.Wrap(err, apperrors.ErrKeyring, "failed to delete from the OS keychain")
	}
	return nil
}

// ResolveAPIKey returns configured when set, otherwise the stored key.
// Providers that need no key resolve to "". A keychain that cannot be
// reached is treated like an empty one so env and config still work on
// headless machines.
func ResolveAPIKey(provider, configured string, store KeyStore) (string, error) {
	if configured != "" || !RequiresAPIKey(provider) {
		return configured, nil
	}
	if store != nil {
		key, err := store.Get(provider)
		switch {
		case err == nil && key != "":
			return key, nil
		case err != nil && !errors.Is(err, ErrKeyNotFound):
			apperrors.Debug("keychain lookup failed: %v", err)
		}
	}
	return "", apperrors.NewMissingAPIKeyError(provider)
}
