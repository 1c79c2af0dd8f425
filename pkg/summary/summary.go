// Package summary derives read-only statistics from a session history.
package summary

import (
	"math"
	"regexp"
	"strconv"

	"github.com/aretw0/beatpilot/pkg/domain"
)

var bpmPattern = regexp.MustCompile(`(?i)BPM:\s*(\d+)`)

// Summarize computes the SessionSummary of the accepted history entries.
// Entries without a BPM token count towards TotalTracks but not the average.
func Summarize(state *domain.SessionState) domain.SessionSummary {
	out := domain.SessionSummary{PreferredGenres: []string{}}
	if state == nil {
		return out
	}

	var sum, n int
	for _, entry := range state.History {
		if !entry.Accepted {
			continue
		}
		out.TotalTracks++

		if bpm, ok := ExtractBPM(entry.Track); ok {
			sum += bpm
			n++
		}
	}

	if n > 0 {
		avg := int(math.Round(float64(sum) / float64(n)))
		out.AverageBPM = &avg
	}
	return out
}

// ExtractBPM returns the first "BPM: n" token of a track label.
func ExtractBPM(track string) (int, bool) {
	m := bpmPattern.FindStringSubmatch(track)
	if m == nil {
		return 0, false
	}
	bpm, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return bpm, true
}
