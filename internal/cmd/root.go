// Package cmd defines the gitpick command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the gitpick command tree. Running it without a
// subcommand picks a message for the staged changes and commits.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	flags := &pickFlags{}

	rootCmd := &cobra.Command{
		Use:   "gitpick",
		Short: "Pick a generated commit message for your staged changes",
		Long: `gitpick sends your staged diff to a language model, lists the suggested
commit messages and lets you pick one with the arrow keys.

Enter commits with the highlighted message and then opens it in your editor
(git commit --amend) so you can refine it. The first entry, "Enter a custom
message...", runs a plain 'git commit' instead. Escape cancels.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, flags)
		},
	}

	rootCmd.SetVersionTemplate(`gitpick {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.gitpick/config.yaml)")

	addPickFlags(rootCmd, flags)
	rootCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the picked message instead of committing")
	rootCmd.Flags().BoolVar(&flags.NoAmend, "no-amend", false, "Commit without opening the editor afterwards")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewKeyCmd())

	return rootCmd
}
