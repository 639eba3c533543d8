package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/history"
)

// DefaultHistoryLimit is how many entries 'gitpick history' shows.
const DefaultHistoryLimit = 20

// NewHistoryCmd lists and clears picked messages.
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously picked messages",
		Long: `Show the messages picked with gitpick, newest first.

Examples:
  gitpick history            # Show the last 20 entries
  gitpick history --limit 5  # Show the last 5 entries
  gitpick history clear      # Delete all entries`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "l", DefaultHistoryLimit, "Number of entries to display")
	historyCmd.AddCommand(newHistoryClearCmd())

	return historyCmd
}

func loadHistory(cmd *cobra.Command) (*history.FileManager, bool, error) {
	mgr, err := newConfigManager(cmd)
	if err != nil {
		return nil, false, err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return nil, false, err
	}
	return history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries), cfg.History.Enabled, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	historyMgr, enabled, err := loadHistory(cmd)
	if err != nil {
		return err
	}
	if !enabled {
		fmt.Fprintln(out, "History is disabled. Enable it with: gitpick config set history.enabled true")
		return nil
	}

	entries, err := historyMgr.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return nil
	}

	for i := len(entries) - 1; i >= 0; i-- {
		printHistoryEntry(out, entries[i], len(entries)-i)
	}
	return nil
}

func printHistoryEntry(w io.Writer, entry *history.Entry, index int) {
	status := "not committed"
	switch {
	case entry.Committed && entry.Amended:
		status = "committed, amended"
	case entry.Committed:
		status = "committed"
	}
	fmt.Fprintf(w, "[%d] %s (%s)\n", index, entry.Timestamp.Local().Format(time.DateTime), status)

	msg := entry.Message
	if entry.Custom {
		msg = "(custom message)"
	}
	fmt.Fprintf(w, "    %s\n", msg)
	if entry.DiffSummary != "" {
		fmt.Fprintf(w, "    %s via %s/%s\n", entry.DiffSummary, entry.Provider, entry.Model)
	} else {
		fmt.Fprintf(w, "    via %s/%s\n", entry.Provider, entry.Model)
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			historyMgr, _, err := loadHistory(cmd)
			if err != nil {
				return err
			}
			if err := historyMgr.Clear(); err != nil {
				return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to clear history")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}
