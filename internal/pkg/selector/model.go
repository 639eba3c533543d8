package selector

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type action int

const (
	actionNone action = iota
	actionSelect
	actionCancel
)

// model is the cursor state for one Select call.
type model struct {
	choices []string
	cursor  int
}

func (m *model) update(k Key) action {
	switch k {
	case KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case KeyDown:
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case KeyEnter:
		return actionSelect
	case KeyEscape:
		return actionCancel
	}
	return actionNone
}

// view renders the title plus one line per choice, each terminated by a
// newline. With a positive width every line is clipped to that many cells so
// none of them wraps.
func (m *model) view(title, marker string, width int) string {
	var b strings.Builder
	b.WriteString(clip(title, width))
	b.WriteString("\n")
	for i, choice := range m.choices {
		prefix := "  "
		if i == m.cursor {
			prefix = marker + " "
		}
		b.WriteString(clip(prefix+oneLine(choice), width))
		b.WriteString("\n")
	}
	return b.String()
}

func clip(line string, width int) string {
	if width <= 0 {
		return line
	}
	return ansi.Truncate(line, width, "…")
}

// oneLine keeps each choice on a single terminal row so the erase count stays exact.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
}
