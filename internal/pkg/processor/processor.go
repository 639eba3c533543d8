// Package processor trims the staged diff before it is sent to a provider.
package processor

import (
	"path/filepath"
	"strings"

	"github.com/gitsage/gitpick/internal/pkg/git"
)

// TruncationMarker is appended when the diff was cut to fit MaxBytes.
const TruncationMarker = "... [truncated]"

// Config controls filtering.
type Config struct {
	// ExcludePatterns are filepath.Match patterns tested against each file's base name.
	ExcludePatterns []string
	// MaxBytes caps the diff size; zero means unlimited.
	MaxBytes int
}

// Result is the diff that will be sent along with what was dropped.
type Result struct {
	Diff      string
	Kept      []string
	Excluded  []string
	Truncated bool
}

// Processor applies Config to raw diffs.
type Processor struct {
	cfg Config
}

// New returns a Processor for cfg.
func New(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// Process drops excluded files and truncates the rest. When every file is
// excluded the diff is kept whole, because a message is still wanted.
func (p *Processor) Process(raw string) *Result {
	res := &Result{}
	var kept strings.Builder
	for _, f := range git.SplitFileDiffs(raw) {
		if p.excluded(f.Path) {
			res.Excluded = append(res.Excluded, f.Path)
			continue
		}
		res.Kept = append(res.Kept, f.Path)
		kept.WriteString(f.Content)
	}

	res.Diff = kept.String()
	if len(res.Kept) == 0 {
		res.Diff = raw
		res.Kept, res.Excluded = res.Excluded, nil
	}

	if p.cfg.MaxBytes > 0 && len(res.Diff) > p.cfg.MaxBytes {
		res.Diff = truncate(res.Diff, p.cfg.MaxBytes)
		res.Truncated = true
	}
	return res
}

func (p *Processor) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range p.cfg.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// truncate cuts s to at most max bytes on a line boundary and appends the marker.
func truncate(s string, max int) string {
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	} else {
		cut += "\n"
	}
	return cut + TruncationMarker
}

// Filter is shorthand for New(cfg).Process(raw).
func Filter(raw string, cfg Config) *Result {
	return New(cfg).Process(raw)
}
