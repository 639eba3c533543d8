// Package message cleans up suggested commit messages and models the picker's choices.
package message

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSuggestedLength is the subject length the model is asked to stay under.
const MaxSuggestedLength = 50

var conventionalSubject = regexp.MustCompile(`^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)(\(([^)]+)\))?(!)?:\s*(.+)$`)

// Normalize trims whitespace and strips one pair of surrounding double quotes.
// Models often wrap the whole message in quotes; inner quotes are left alone.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}

// Clean normalizes every candidate, drops empty ones and removes duplicates
// while keeping first-seen order.
func Clean(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		m := Normalize(r)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Validate returns human readable warnings about msg. It never rejects a message.
func Validate(msg string) []string {
	var warnings []string
	subject, _, multiline := strings.Cut(msg, "\n")
	if n := utf8.RuneCountInString(subject); n > MaxSuggestedLength {
		warnings = append(warnings, fmt.Sprintf("subject is %d characters, longer than %d", n, MaxSuggestedLength))
	}
	if multiline {
		warnings = append(warnings, "message spans more than one line")
	}
	return warnings
}

// Conventional describes a subject line in Conventional Commits form.
type Conventional struct {
	Type     string
	Scope    string
	Breaking bool
	Subject  string
}

// ParseConventional reports whether the first line of msg follows the
// Conventional Commits layout.
func ParseConventional(msg string) (Conventional, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	m := conventionalSubject.FindStringSubmatch(line)
	if m == nil {
		return Conventional{}, false
	}
	return Conventional{
		Type:     m[1],
		Scope:    m[3],
		Breaking: m[4] == "!",
		Subject:  strings.TrimSpace(m[5]),
	}, true
}
