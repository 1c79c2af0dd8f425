package suggest

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").Parse(promptSource))

// BuildPrompt renders the instruction prompt for a vibe description.
func BuildPrompt(input string) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, struct{ Input string }{Input: input}); err != nil {
		return "", err
	}
	return b.String(), nil
}
