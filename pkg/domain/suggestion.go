package domain

// SuggestionCount is the number of candidate tracks in every suggestion set.
const SuggestionCount = 3

// SuggestionResult is the structured answer of one vibe analysis.
type SuggestionResult struct {
	// Suggestions holds exactly SuggestionCount free-form "Track - Artist (BPM: n)" labels.
	Suggestions []string `json:"suggestions"`

	// TransitionPlan is free-text mixing guidance.
	TransitionPlan string `json:"transition_plan"`
}

// Clone returns a copy that does not share the suggestions slice.
func (r SuggestionResult) Clone() SuggestionResult {
	out := SuggestionResult{TransitionPlan: r.TransitionPlan}
	if r.Suggestions != nil {
		out.Suggestions = make([]string, len(r.Suggestions))
		copy(out.Suggestions, r.Suggestions)
	}
	return out
}

// SessionSummary is derived from the history and never stored.
type SessionSummary struct {
	TotalTracks int `json:"totalTracks"`

	// AverageBPM is nil when no accepted track carries a BPM token.
	AverageBPM *int `json:"averageBPM,omitempty"`

	// PreferredGenres is reserved and always empty.
	PreferredGenres []string `json:"preferredGenres"`
}
