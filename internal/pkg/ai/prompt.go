package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/gitsage/gitpick/internal/pkg/message"
)

// SystemPrompt is sent as the system message of every request.
const SystemPrompt = "You are a helpful assistant."

const fence = "```"

const userPromptTemplate = `{{.Prompt}}
Return only a single line of text no more than {{.MaxLength}} characters. Do not include an explanation.

` + fence + `
{{.Diff}}
` + fence

var userPrompt = template.Must(template.New("user").Parse(userPromptTemplate))

type promptData struct {
	Prompt    string
	Diff      string
	MaxLength int
}

// RenderUserPrompt wraps diff in a fenced block after the instruction prompt.
func RenderUserPrompt(prompt, diff string) (string, error) {
	var buf bytes.Buffer
	err := userPrompt.Execute(&buf, promptData{
		Prompt:    prompt,
		Diff:      diff,
		MaxLength: message.MaxSuggestedLength,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
