// Package security handles API keys: format checks, OS keychain storage and
// the notice shown before diffs are first sent to a remote service.
package security

import (
	"fmt"
	"regexp"
)

var keyFormats = map[string]*regexp.Regexp{
	"openai":   regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
	"deepseek": regexp.MustCompile(`^sk-[A-Za-z0-9]{20,}$`),
}

// RequiresAPIKey reports whether provider authenticates with a key.
func RequiresAPIKey(provider string) bool {
	return provider != "ollama"
}

// ValidateAPIKeyFormat catches keys that are obviously wrong, such as a
// pasted model name. It does not contact the provider.
func ValidateAPIKeyFormat(provider, key string) error {
	if !RequiresAPIKey(provider) {
		return nil
	}
	if key == "" {
		return fmt.Errorf("API key is required for %s provider", provider)
	}
	if len(key) < 20 {
		return fmt.Errorf("API key appears to be invalid (too short)")
	}
	if pattern, ok := keyFormats[provider]; ok && !pattern.MatchString(key) {
		return fmt.Errorf("API key format appears invalid for %s provider (expected sk-...)", provider)
	}
	return nil
}

// DataSharingNotice is printed once, before the first request to a remote provider.
const DataSharingNotice = `
IMPORTANT: gitpick sends your staged diff to the configured language-model
service (OpenAI, DeepSeek, or a custom endpoint) to suggest commit messages.

  - Do not stage secrets such as API keys or passwords.
  - Review 'git diff --staged' before running gitpick.
  - Use the ollama provider to keep diffs on your machine.
`
