package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// NewConfigCmd groups the config subcommands.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gitpick configuration",
		Long: `Manage gitpick configuration settings.

Configuration is stored in ~/.gitpick/config.yaml by default. Every key can
also be set with an environment variable such as GITPICK_PROVIDER_MODEL;
OPENAI_API_KEY is read as provider.api_key.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigListCmd())

	return configCmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			if err := mgr.Init(); err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to initialize config")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at %s\n", mgr.Path())
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by its dotted key.

Examples:
  gitpick config set provider.name deepseek
  gitpick config set suggest.count 3
  gitpick config set commit.amend false
  gitpick config set git.exclude_patterns "*.lock,go.sum"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := mgr.Set(key, value); err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to set "+key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, displayValue(key, value))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			value, err := mgr.Get(args[0])
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "failed to read "+args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], value))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  "Display every effective setting. API keys are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			settings, err := mgr.List()
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to read config")
			}
			printSettings(cmd.OutOrStdout(), "", settings)
			return nil
		},
	}
}

// printSettings writes nested settings as indented YAML-like lines, sorted by key.
func printSettings(w io.Writer, indent string, settings map[string]interface{}) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if nested, ok := settings[key].(map[string]interface{}); ok {
			fmt.Fprintf(w, "%s%s:\n", indent, key)
			printSettings(w, indent+"  ", nested)
			continue
		}
		fmt.Fprintf(w, "%s%s: %s\n", indent, key, displayValue(key, fmt.Sprintf("%v", settings[key])))
	}
}

func displayValue(key, value string) string {
	if value != "" && strings.HasSuffix(strings.ToLower(key), "api_key") {
		return apperrors.MaskAPIKey(value)
	}
	return value
}
