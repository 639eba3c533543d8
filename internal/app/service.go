// Package app runs the pick flow: diff, suggestions, selection, commit.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/gitsage/gitpick/internal/pkg/ai"
	"github.com/gitsage/gitpick/internal/pkg/cache"
	"github.com/gitsage/gitpick/internal/pkg/config"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/git"
	"github.com/gitsage/gitpick/internal/pkg/history"
	"github.com/gitsage/gitpick/internal/pkg/message"
	"github.com/gitsage/gitpick/internal/pkg/processor"
	"github.com/gitsage/gitpick/internal/pkg/ui"
)

// writeFile is swapped in tests.
var writeFile = os.WriteFile

// PickOptions are the per-run flags. Zero values fall back to the config.
type PickOptions struct {
	DryRun     bool
	OutputFile string
	Prompt     string
	Count      int
	NoCache    bool
	NoAmend    bool
}

// Result describes what a run did.
type Result struct {
	Message   string
	Custom    bool
	Cancelled bool
	Committed bool
	Amended   bool

	diffSummary string
}

// PickService wires the collaborators of one run together.
type PickService struct {
	git      git.Client
	provider ai.Provider
	ui       ui.Manager
	history  history.Manager
	cache    cache.Store
	config   *config.Config
}

// NewPickService returns a service. historyMgr and store may be nil.
func NewPickService(
	gitClient git.Client,
	provider ai.Provider,
	uiMgr ui.Manager,
	historyMgr history.Manager,
	store cache.Store,
	cfg *config.Config,
) *PickService {
	if store == nil {
		store = cache.Nop{}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &PickService{
		git:      gitClient,
		provider: provider,
		ui:       uiMgr,
		history:  historyMgr,
		cache:    store,
		config:   cfg,
	}
}

// Run executes one pick. A cancelled selection is not an error.
func (s *PickService) Run(ctx context.Context, opts *PickOptions) (*Result, error) {
	if opts == nil {
		opts = &PickOptions{}
	}

	raw, err := s.git.StagedDiff(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewNoStagedChangesError()
	}

	filtered := processor.Filter(raw, processor.Config{
		ExcludePatterns: s.config.Git.ExcludePatterns,
		MaxBytes:        s.config.Git.MaxDiffBytes,
	})
	if len(filtered.Excluded) > 0 {
		apperrors.Debug("excluded from prompt: %s", strings.Join(filtered.Excluded, ", "))
	}
	if filtered.Truncated {
		apperrors.Warn("diff is larger than %d bytes and was truncated", s.config.Git.MaxDiffBytes)
	}

	candidates, err := s.suggest(ctx, filtered.Diff, s.prompt(opts), s.count(opts), opts.NoCache)
	if err != nil {
		return nil, err
	}

	choices := message.Options(candidates)
	outcome, err := s.ui.SelectMessage(message.Labels(choices))
	if err != nil {
		return nil, apperrors.NewTerminalError(err)
	}
	if outcome.Cancelled {
		s.ui.ShowInfo("Commit cancelled")
		return &Result{Cancelled: true}, nil
	}

	// Stats are taken before committing; afterwards the index matches HEAD.
	res := &Result{diffSummary: s.summary(ctx)}
	choice := choices[outcome.Index]
	if choice.Kind == message.EnterCustom {
		res.Custom = true
		return s.commitCustom(ctx, res, opts)
	}
	res.Message = choice.Text
	return s.commitCandidate(ctx, res, opts)
}

func (s *PickService) summary(ctx context.Context) string {
	if s.history == nil || !s.config.History.Enabled {
		return ""
	}
	stats, err := s.git.DiffStats(ctx)
	if err != nil {
		apperrors.Debug("diff stats unavailable: %v", err)
		return ""
	}
	return stats.Summary()
}

func (s *PickService) prompt(opts *PickOptions) string {
	switch {
	case opts.Prompt != "":
		return opts.Prompt
	case s.config.Suggest.Prompt != "":
		return s.config.Suggest.Prompt
	default:
		return config.DefaultPrompt
	}
}

func (s *PickService) count(opts *PickOptions) int {
	switch {
	case opts.Count > 0:
		return opts.Count
	case s.config.Suggest.Count > 0:
		return s.config.Suggest.Count
	default:
		return ai.DefaultCount
	}
}

func (s *PickService) suggest(ctx context.Context, diff, prompt string, count int, noCache bool) ([]string, error) {
	key := cache.Key(diff, s.provider.Name(), s.provider.Model(), prompt, count)
	if !noCache {
		if hit, ok := s.cache.Get(key); ok && len(hit) > 0 {
			apperrors.Debug("using %d cached suggestions", len(hit))
			return hit, nil
		}
	}

	spinner := s.ui.ShowSpinner("Fetching suggested commit messages...")
	spinner.Start()
	candidates, err := s.provider.SuggestMessages(ctx, &ai.SuggestRequest{
		Diff:   diff,
		Prompt: prompt,
		Count:  count,
	})
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperrors.NewAIProviderError(s.provider.Name(), nil)
	}

	for _, c := range candidates {
		for _, w := range message.Validate(c) {
			apperrors.Debug("%q: %s", c, w)
		}
	}
	if err := s.cache.Put(key, candidates); err != nil {
		apperrors.Warn("failed to cache suggestions: %v", err)
	}
	return candidates, nil
}

func (s *PickService) commitCustom(ctx context.Context, res *Result, opts *PickOptions) (*Result, error) {
	if opts.DryRun {
		s.ui.ShowInfo("Custom message selected; nothing to print in dry-run mode")
		return res, nil
	}
	if err := s.git.CommitInteractive(ctx); err != nil {
		return nil, err
	}
	res.Committed = true
	s.record(res)
	return res, nil
}

func (s *PickService) commitCandidate(ctx context.Context, res *Result, opts *PickOptions) (*Result, error) {
	msg := res.Message
	if opts.DryRun {
		if opts.OutputFile != "" {
			if err := writeFile(opts.OutputFile, []byte(msg+"\n"), 0644); err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write message").
					WithContext("path", opts.OutputFile)
			}
			s.ui.ShowSuccess("Message written to " + opts.OutputFile)
		} else {
			s.ui.ShowInfo(msg)
		}
		s.record(res)
		return res, nil
	}

	if err := s.git.Commit(ctx, msg); err != nil {
		return nil, err
	}
	res.Committed = true
	if s.config.Commit.Amend && !opts.NoAmend {
		if err := s.git.Amend(ctx); err != nil {
			s.record(res)
			return res, err
		}
		res.Amended = true
	}
	s.record(res)
	s.ui.ShowSuccess("Committed: " + msg)
	return res, nil
}

// record saves a history entry. Failures only warn: the commit already happened.
func (s *PickService) record(res *Result) {
	if s.history == nil || !s.config.History.Enabled {
		return
	}
	entry := history.NewEntry(res.Message, res.Custom)
	entry.Provider = s.provider.Name()
	entry.Model = s.provider.Model()
	entry.Committed = res.Committed
	entry.Amended = res.Amended
	entry.DiffSummary = res.diffSummary
	if err := s.history.Save(entry); err != nil {
		apperrors.Warn("failed to save history: %v", err)
	}
}
