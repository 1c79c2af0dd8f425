package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SessionMarkdown describes a stored session and its summary as markdown.
func SessionMarkdown(id string, state *domain.SessionState, sum domain.SessionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", id)

	current := "_nothing yet_"
	if state.CurrentTrack != nil {
		current = "**" + *state.CurrentTrack + "**"
	}
	fmt.Fprintf(&b, "Now playing: %s\n\n", current)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Tracks played: %d\n", sum.TotalTracks)
	if sum.AverageBPM != nil {
		fmt.Fprintf(&b, "- Average BPM: %d\n", *sum.AverageBPM)
	} else {
		b.WriteString("- Average BPM: n/a\n")
	}

	if len(state.History) > 0 {
		b.WriteString("\n## History\n\n| # | Track | Played at |\n|---|---|---|\n")
		for i, h := range state.History {
			at := time.UnixMilli(h.Timestamp).UTC().Format(time.RFC3339)
			fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, escapeCell(h.Track), at)
		}
	}

	if state.LastSuggestions != nil {
		b.WriteString("\n## Pending suggestions\n\n")
		for i, s := range state.LastSuggestions.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i, s)
		}
		fmt.Fprintf(&b, "\n> %s\n", state.LastSuggestions.TransitionPlan)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
