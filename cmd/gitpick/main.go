// Package main is the entry point of gitpick, which lets you pick a
// generated commit message for your staged changes.
package main

import (
	"fmt"
	"os"

	"github.com/gitsage/gitpick/internal/cmd"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// Set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cmd.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		if apperrors.IsVerbose() {
			fmt.Fprintln(os.Stderr, apperrors.FormatErrorVerbose(err))
		} else {
			fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		}
		os.Exit(apperrors.GetExitCode(err))
	}
}
