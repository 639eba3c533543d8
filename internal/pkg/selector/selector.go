// Package selector implements the arrow-key picker used to choose a commit message.
package selector

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// DefaultTitle is the line shown above the candidates.
const DefaultTitle = "Select a commit message:"

// Outcome is the result of a completed selection.
type Outcome struct {
	Index     int
	Value     string
	Cancelled bool
}

// Selected builds a confirmed outcome.
func Selected(index int, value string) Outcome {
	return Outcome{Index: index, Value: value}
}

// Cancelled is the outcome of pressing Escape.
func Cancelled() Outcome {
	return Outcome{Index: -1, Cancelled: true}
}

// Selector renders a list and moves a cursor over it until the user confirms
// or cancels. It keeps no state between Select calls.
type Selector struct {
	keys   KeyReader
	out    io.Writer
	title  string
	marker string
	width  func() int
}

// Option configures a Selector.
type Option func(*Selector)

// WithTitle replaces DefaultTitle.
func WithTitle(title string) Option {
	return func(s *Selector) { s.title = title }
}

// WithMarker replaces the styled ">" drawn in front of the highlighted line.
func WithMarker(marker string) Option {
	return func(s *Selector) { s.marker = marker }
}

// WithWidth clips every drawn line to the number of columns width reports.
// It is asked again before each redraw; zero or less turns clipping off.
func WithWidth(width func() int) Option {
	return func(s *Selector) { s.width = width }
}

// TerminalWidth reports the column count of the terminal behind f, or zero
// when f is not a terminal.
func TerminalWidth(f *os.File) func() int {
	return func() int {
		w, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			return 0
		}
		return w
	}
}

// New returns a Selector reading keys from keys and drawing on out.
func New(keys KeyReader, out io.Writer, opts ...Option) *Selector {
	s := &Selector{
		keys:   keys,
		out:    out,
		title:  DefaultTitle,
		marker: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Render(">"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select blocks until Enter or Escape. Escape is not an error: it yields a
// Cancelled outcome.
func (s *Selector) Select(candidates []string) (Outcome, error) {
	if len(candidates) == 0 {
		return Outcome{}, ErrEmptyInput
	}

	m := &model{choices: candidates}
	erase := strings.Repeat(ansi.CursorUp(1)+ansi.EraseEntireLine, len(candidates)+1)

	for {
		// Draw errors are not fatal; a broken terminal fails the next read.
		fmt.Fprint(s.out, m.view(s.title, s.marker, s.columns()))
		key, err := s.keys.ReadKey()
		fmt.Fprint(s.out, erase)
		if err != nil {
			return Outcome{}, asReadError(err)
		}

		switch m.update(key) {
		case actionSelect:
			return Selected(m.cursor, candidates[m.cursor]), nil
		case actionCancel:
			return Cancelled(), nil
		}
	}
}

func (s *Selector) columns() int {
	if s.width == nil {
		return 0
	}
	return s.width()
}

func asReadError(err error) error {
	var modeErr *TerminalModeError
	var readErr *InputReadError
	if errors.As(err, &modeErr) || errors.As(err, &readErr) {
		return err
	}
	return &InputReadError{Err: err}
}
