package message

// CustomLabel is the first entry of the picker; choosing it hands the
// message over to git's editor.
const CustomLabel = "Enter a custom message..."

// ChoiceKind tells a custom entry apart from a generated one.
type ChoiceKind int

const (
	EnterCustom ChoiceKind = iota
	UseCandidate
)

// Choice is one row of the picker.
type Choice struct {
	Kind ChoiceKind
	Text string
}

// Label is what the picker displays for the choice.
func (c Choice) Label() string {
	if c.Kind == EnterCustom {
		return CustomLabel
	}
	return c.Text
}

// Options returns the picker rows: the custom entry followed by the candidates.
// A candidate that happens to equal CustomLabel is still a candidate.
func Options(candidates []string) []Choice {
	choices := make([]Choice, 0, len(candidates)+1)
	choices = append(choices, Choice{Kind: EnterCustom})
	for _, c := range candidates {
		choices = append(choices, Choice{Kind: UseCandidate, Text: c})
	}
	return choices
}

// Labels maps choices to their display strings.
func Labels(choices []Choice) []string {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label()
	}
	return labels
}
