package cmd

import (
	"github.com/spf13/cobra"
)

// NewGenerateCmd is the pick flow without committing.
func NewGenerateCmd() *cobra.Command {
	flags := &pickFlags{DryRun: true}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Pick a message and print it without committing",
		Long: `Generate commit message suggestions for the staged changes and print
the one you pick. Nothing is committed.

This is equivalent to running 'gitpick --dry-run'.

Examples:
  gitpick generate              # Pick and print a message
  gitpick generate -o msg.txt   # Write the picked message to a file
  gitpick generate --yes        # Print the first suggestion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, flags)
		},
	}

	addPickFlags(cmd, flags)
	return cmd
}
