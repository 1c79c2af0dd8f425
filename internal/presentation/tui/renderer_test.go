package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/beatpilot/pkg/domain"
)

func TestSessionMarkdown(t *testing.T) {
	track := "B | Remix (BPM: 130)"
	avg := 125
	state := &domain.SessionState{
		CurrentTrack: &track,
		History: []domain.HistoryEntry{
			{Track: "A (BPM: 120)", Timestamp: 0, Accepted: true},
			{Track: track, Timestamp: 60_000, Accepted: true},
		},
		LastSuggestions: &domain.SuggestionResult{
			Suggestions:    []string{"x", "y", "z"},
			TransitionPlan: "Loop the intro.",
		},
	}

	md := SessionMarkdown("abc", state, domain.SessionSummary{TotalTracks: 2, AverageBPM: &avg, PreferredGenres: []string{}})

	assert.Contains(t, md, "# Session `abc`")
	assert.Contains(t, md, "Now playing: **B | Remix (BPM: 130)**")
	assert.Contains(t, md, "- Average BPM: 125")
	assert.Contains(t, md, `| 2 | B \| Remix (BPM: 130) | 1970-01-01T00:01:00Z |`)
	assert.Contains(t, md, "> Loop the intro.")
}

func TestSessionMarkdown_Empty(t *testing.T) {
	md := SessionMarkdown("new", domain.NewSessionState(), domain.SessionSummary{PreferredGenres: []string{}})
	assert.Contains(t, md, "_nothing yet_")
	assert.Contains(t, md, "- Average BPM: n/a")
	assert.NotContains(t, md, "## History")
}

func TestRenderer(t *testing.T) {
	out, err := NewRenderer()("# Hello")
	assert.NoError(t, err)
	assert.Contains(t, out, "Hello")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "version 1.2.3")
	assert.True(t, strings.Count(buf.String(), "\n") >= len(bannerLines))
}

func TestStageLabel(t *testing.T) {
	var buf bytes.Buffer
	assert.Contains(t, StageLabel(&buf, "fields"), "fields")
}
