package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/gitsage/gitpick/internal/pkg/ai"
	"github.com/gitsage/gitpick/internal/pkg/config"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/security"
)

// SetupAnswers is what the setup wizard collects.
type SetupAnswers struct {
	Provider string
	APIKey   string
	Model    string
	Endpoint string
}

// setupDefaults prefills the model and endpoint fields for provider.
func setupDefaults(provider string) (model, endpoint string) {
	switch provider {
	case ai.ProviderNameDeepSeek:
		return ai.DefaultDeepSeekModel, ai.DefaultDeepSeekEndpoint
	case ai.ProviderNameOllama:
		return ai.DefaultOllamaModel, ai.DefaultOllamaEndpoint
	default:
		return ai.DefaultOpenAIModel, ""
	}
}

func validateModel(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	return nil
}

// RunInteractiveSetup asks for provider settings and saves them.
func RunInteractiveSetup(cfg config.Manager, store security.KeyStore, out io.Writer) error {
	fmt.Fprintln(out, "No configuration found. Let's set up gitpick!")
	fmt.Fprintln(out)

	var a SetupAnswers
	err := huh.NewSelect[string]().
		Title("Select AI Provider").
		Options(
			huh.NewOption("OpenAI", ai.ProviderNameOpenAI),
			huh.NewOption("DeepSeek", ai.ProviderNameDeepSeek),
			huh.NewOption("Ollama (Local)", ai.ProviderNameOllama),
		).
		Value(&a.Provider).
		Run()
	if err != nil {
		return err
	}
	a.Model, a.Endpoint = setupDefaults(a.Provider)

	var fields []huh.Field
	if security.RequiresAPIKey(a.Provider) {
		fields = append(fields, huh.NewInput().
			Title("API Key").
			Description("Stored in the OS keychain when available").
			EchoMode(huh.EchoModePassword).
			Value(&a.APIKey).
			Validate(func(s string) error {
				return security.ValidateAPIKeyFormat(a.Provider, strings.TrimSpace(s))
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Model Name").
		Value(&a.Model).
		Validate(validateModel))
	if a.Provider != ai.ProviderNameOpenAI {
		fields = append(fields, huh.NewInput().
			Title("API Endpoint").
			Value(&a.Endpoint))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	inKeychain, err := SaveSetup(cfg, store, a)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", cfg.Path())
	if inKeychain {
		fmt.Fprintln(out, "API key stored in the OS keychain.")
	}
	fmt.Fprintln(out, "Setup complete! Stage some changes and run gitpick.")
	return nil
}

// SaveSetup writes a to cfg. The API key goes to store when it accepts it,
// otherwise to the config file. It reports whether the keychain was used.
func SaveSetup(cfg config.Manager, store security.KeyStore, a SetupAnswers) (bool, error) {
	a.APIKey = strings.TrimSpace(a.APIKey)
	settings := [][2]string{
		{"provider.name", a.Provider},
		{"provider.model", strings.TrimSpace(a.Model)},
		{"provider.endpoint", strings.TrimSpace(a.Endpoint)},
		{"security.warning_acknowledged", "true"},
	}

	inKeychain := false
	if a.APIKey != "" && store != nil {
		if err := store.Set(a.Provider, a.APIKey); err != nil {
			apperrors.Warn("keychain unavailable, storing the API key in %s: %v", cfg.Path(), err)
		} else {
			inKeychain = true
		}
	}
	if !inKeychain {
		settings = append(settings, [2]string{"provider.api_key", a.APIKey})
	} else {
		settings = append(settings, [2]string{"provider.api_key", ""})
	}

	for _, kv := range settings {
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			return inKeychain, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to save "+kv[0])
		}
	}
	return inKeychain, nil
}
