// Package ui holds the terminal interactions of gitpick: the message picker,
// the progress spinner and status output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gitsage/gitpick/internal/pkg/selector"
)

// Spinner shows that a provider request is in flight.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager is everything the pick flow needs from the terminal.
type Manager interface {
	SelectMessage(labels []string) (selector.Outcome, error)
	ShowSpinner(text string) Spinner
	ShowError(err error)
	ShowSuccess(message string)
	ShowInfo(message string)
	PromptConfirm(message string) (bool, error)
}

type styles struct {
	success lipgloss.Style
	errText lipgloss.Style
	info    lipgloss.Style
	prompt  lipgloss.Style
	active  lipgloss.Style
	muted   lipgloss.Style
	spinner lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return &styles{
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		errText: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}

// DefaultManager drives a real terminal. Messages go to out; errors to errOut.
type DefaultManager struct {
	colorEnabled bool
	styles       *styles
	in           *os.File
	out          io.Writer
	errOut       io.Writer
	keys         selector.KeyReader
}

// NewDefaultManager returns a manager on the process's standard streams.
func NewDefaultManager(colorEnabled bool) *DefaultManager {
	return &DefaultManager{
		colorEnabled: colorEnabled,
		styles:       newStyles(colorEnabled),
		in:           os.Stdin,
		out:          os.Stdout,
		errOut:       os.Stderr,
	}
}

// SelectMessage runs the picker over labels.
func (m *DefaultManager) SelectMessage(labels []string) (selector.Outcome, error) {
	keys := m.keys
	if keys == nil {
		keys = selector.NewTerminalKeyReader(m.in)
	}
	var opts []selector.Option
	if f, ok := m.out.(*os.File); ok {
		opts = append(opts, selector.WithWidth(selector.TerminalWidth(f)))
	}
	if !m.colorEnabled {
		opts = append(opts, selector.WithMarker(">"))
	}
	return selector.New(keys, m.out, opts...).Select(labels)
}

// ShowSpinner returns an unstarted spinner drawn on errOut.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text, m.errOut, m.styles.spinner)
}

func (m *DefaultManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(m.errOut, m.styles.errText.Render("Error: "+err.Error()))
}

func (m *DefaultManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, m.styles.success.Render("[OK] "+message))
}

func (m *DefaultManager) ShowInfo(message string) {
	fmt.Fprintln(m.out, m.styles.info.Render(message))
}

// PromptConfirm asks a yes/no question; Yes is preselected.
func (m *DefaultManager) PromptConfirm(message string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(message, m.styles), tea.WithInput(m.in), tea.WithOutput(m.out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).confirmed, nil
}

type confirmModel struct {
	message   string
	styles    *styles
	yes       bool
	confirmed bool
	done      bool
}

func newConfirmModel(message string, st *styles) confirmModel {
	return confirmModel{message: message, styles: st, yes: true}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.confirmed, m.done = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.confirmed, m.done = false, true
		return m, tea.Quit
	case "left", "h":
		m.yes = true
	case "right", "l":
		m.yes = false
	case "tab":
		m.yes = !m.yes
	case "enter", " ":
		m.confirmed, m.done = m.yes, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes, no := m.styles.muted, m.styles.active
	if m.yes {
		yes, no = m.styles.active, m.styles.muted
	}
	var sb strings.Builder
	sb.WriteString(m.styles.prompt.Render(m.message))
	sb.WriteString(" ")
	sb.WriteString(yes.Render("[Y]es"))
	sb.WriteString(" / ")
	sb.WriteString(no.Render("[N]o"))
	return sb.String()
}

// bubbleSpinner runs a tea program in the background. It never reads input
// so the picker can take the terminal once the spinner stops.
type bubbleSpinner struct {
	mu      sync.Mutex
	model   spinnerModel
	out     io.Writer
	program *tea.Program
	done    chan struct{}
}

type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

type spinnerTextMsg string

type spinnerQuitMsg struct{}

func newBubbleSpinner(text string, out io.Writer, style lipgloss.Style) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style
	return &bubbleSpinner{model: spinnerModel{spinner: s, text: text}, out: out}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = string(msg)
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spinner.View() + " " + m.text
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}
	s.program = tea.NewProgram(s.model, tea.WithInput(nil), tea.WithOutput(s.out))
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

// Stop blocks until the spinner line is cleared.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.text = text
	if s.program != nil {
		s.program.Send(spinnerTextMsg(text))
	}
}

// NonInteractiveManager is used with --yes: it never reads the terminal and
// takes the first generated candidate.
type NonInteractiveManager struct {
	styles *styles
	out    io.Writer
	errOut io.Writer
}

// NewNonInteractiveManager writes to the process's standard streams.
func NewNonInteractiveManager(colorEnabled bool) *NonInteractiveManager {
	return &NonInteractiveManager{styles: newStyles(colorEnabled), out: os.Stdout, errOut: os.Stderr}
}

// SelectMessage picks labels[1], the first candidate after the custom-message
// entry, or labels[0] when there is nothing else.
func (m *NonInteractiveManager) SelectMessage(labels []string) (selector.Outcome, error) {
	switch len(labels) {
	case 0:
		return selector.Outcome{}, selector.ErrEmptyInput
	case 1:
		return selector.Selected(0, labels[0]), nil
	default:
		return selector.Selected(1, labels[1]), nil
	}
}

func (m *NonInteractiveManager) ShowSpinner(string) Spinner {
	return noopSpinner{}
}

func (m *NonInteractiveManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(m.errOut, "Error: %s\n", err)
}

func (m *NonInteractiveManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, m.styles.success.Render(message))
}

func (m *NonInteractiveManager) ShowInfo(message string) {
	fmt.Fprintln(m.out, message)
}

// PromptConfirm answers yes.
func (m *NonInteractiveManager) PromptConfirm(string) (bool, error) {
	return true, nil
}

type noopSpinner struct{}

func (noopSpinner) Start()            {}
func (noopSpinner) Stop()             {}
func (noopSpinner) UpdateText(string) {}

var (
	_ Manager = (*DefaultManager)(nil)
	_ Manager = (*NonInteractiveManager)(nil)
)
