package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitsage/gitpick/internal/app"
	"github.com/gitsage/gitpick/internal/pkg/ai"
	"github.com/gitsage/gitpick/internal/pkg/cache"
	"github.com/gitsage/gitpick/internal/pkg/config"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/git"
	"github.com/gitsage/gitpick/internal/pkg/history"
	"github.com/gitsage/gitpick/internal/pkg/security"
	"github.com/gitsage/gitpick/internal/pkg/ui"
)

// pickFlags holds the flags shared by the root and generate commands.
type pickFlags struct {
	DryRun     bool
	NoAmend    bool
	Yes        bool
	NoCache    bool
	OutputFile string
	Prompt     string
	Model      string
	Provider   string
	Count      int
}

func addPickFlags(cmd *cobra.Command, flags *pickFlags) {
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Take the first suggestion without showing the picker")
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Write the picked message to a file (implies --dry-run)")
	cmd.Flags().StringVarP(&flags.Prompt, "prompt", "p", "", "Instruction sent before the diff")
	cmd.Flags().StringVarP(&flags.Model, "model", "m", "", "Model to use")
	cmd.Flags().StringVar(&flags.Provider, "provider", "", "Provider to use (openai, deepseek, ollama)")
	cmd.Flags().IntVarP(&flags.Count, "count", "n", 0, "Number of suggestions to request")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "Ignore cached suggestions")
}

// options validates the flags and turns them into service options.
func (f *pickFlags) options() (*app.PickOptions, error) {
	if f.Count < 0 || f.Count > config.MaxSuggestCount {
		return nil, apperrors.New(apperrors.ErrInvalidArguments,
			fmt.Sprintf("--count must be between 1 and %d", config.MaxSuggestCount))
	}
	return &app.PickOptions{
		DryRun:     f.DryRun || f.OutputFile != "",
		OutputFile: f.OutputFile,
		Prompt:     f.Prompt,
		Count:      f.Count,
		NoCache:    f.NoCache,
		NoAmend:    f.NoAmend,
	}, nil
}

func runPick(cmd *cobra.Command, flags *pickFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose, _ := cmd.Flags().GetBool("verbose")
	apperrors.SetVerbose(verbose)

	opts, err := flags.options()
	if err != nil {
		return err
	}

	cfgMgr, err := newConfigManager(cmd)
	if err != nil {
		return err
	}
	keys := keyStore
	if !cfgMgr.Exists() && !flags.Yes {
		if err := ui.RunInteractiveSetup(cfgMgr, keys, cmd.OutOrStdout()); err != nil {
			return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "setup failed")
		}
	}

	if flags.Provider != "" {
		cfgMgr.SetOverride("provider.name", flags.Provider)
		apperrors.Debug("provider overridden via flag: %s", flags.Provider)
	}
	if flags.Model != "" {
		cfgMgr.SetOverride("provider.model", flags.Model)
		apperrors.Debug("model overridden via flag: %s", flags.Model)
	}
	cfg, err := cfgMgr.Load()
	if err != nil {
		return err
	}

	key, err := security.ResolveAPIKey(cfg.Provider.Name, cfg.Provider.APIKey, keys)
	if err != nil {
		return err
	}
	if err := security.ValidateAPIKeyFormat(cfg.Provider.Name, key); err != nil {
		apperrors.Warn("%v", err)
	}
	cfg.Provider.APIKey = key

	var uiMgr ui.Manager
	if flags.Yes {
		uiMgr = ui.NewNonInteractiveManager(cfg.UI.ColorEnabled)
	} else {
		uiMgr = ui.NewDefaultManager(cfg.UI.ColorEnabled)
	}

	if security.RequiresAPIKey(cfg.Provider.Name) && !cfg.Security.WarningAcknowledged {
		if err := acknowledgeDataSharing(cmd, cfgMgr, uiMgr); err != nil {
			return err
		}
	}

	provider, err := ai.NewProvider(&cfg.Provider)
	if err != nil {
		return err
	}
	apperrors.Debug("provider %s, model %s, key %s", provider.Name(), provider.Model(), apperrors.MaskAPIKey(key))

	var historyMgr history.Manager
	if cfg.History.Enabled {
		historyMgr = history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries)
	}
	var suggestions cache.Store = cache.Nop{}
	if cfg.Cache.Enabled {
		suggestions = cache.NewFileCache(cfg.Cache.FilePath, cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	}

	service := app.NewPickService(git.NewClient(), provider, uiMgr, historyMgr, suggestions, cfg)
	_, err = service.Run(ctx, opts)
	return err
}

// acknowledgeDataSharing shows the notice once and records the answer.
func acknowledgeDataSharing(cmd *cobra.Command, cfgMgr *config.ViperManager, uiMgr ui.Manager) error {
	fmt.Fprint(cmd.ErrOrStderr(), security.DataSharingNotice)
	ok, err := uiMgr.PromptConfirm("Send staged diffs to the provider?")
	if err != nil {
		return apperrors.NewTerminalError(err)
	}
	if !ok {
		return apperrors.New(apperrors.ErrInvalidArguments, "data sharing not acknowledged").
			WithSuggestion("Use the ollama provider to keep diffs local: gitpick --provider ollama")
	}
	if err := cfgMgr.AcknowledgeSecurityWarning(); err != nil {
		apperrors.Warn("failed to save acknowledgment: %v", err)
	}
	return nil
}

func newConfigManager(cmd *cobra.Command) (*config.ViperManager, error) {
	path, _ := cmd.Flags().GetString("config")
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config manager")
	}
	if path != "" {
		apperrors.Debug("using config file %s", mgr.Path())
	}
	return mgr, nil
}
