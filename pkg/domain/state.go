package domain

// HistoryEntry records a track promoted from a suggestion set.
type HistoryEntry struct {
	Track string `json:"track"`

	// Timestamp is the acceptance time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Accepted is always true today. It is kept as a filter key for partial acceptance.
	Accepted bool `json:"accepted"`
}

// SessionState represents the persisted snapshot of one DJ session.
type SessionState struct {
	// CurrentTrack is the label of the most recently accepted track (nil until the first acceptance).
	CurrentTrack *string `json:"currentTrack"`

	// History is append-only and insertion-ordered.
	History []HistoryEntry `json:"history"`

	// LastSuggestions is the pending proposal, overwritten by every analysis.
	LastSuggestions *SuggestionResult `json:"lastSuggestions"`
}

// NewSessionState creates an empty session.
func NewSessionState() *SessionState {
	return &SessionState{
		History: []HistoryEntry{},
	}
}

// Clone returns a deep copy of the state.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}

	c := &SessionState{
		History: make([]HistoryEntry, len(s.History)),
	}
	copy(c.History, s.History)

	if s.CurrentTrack != nil {
		track := *s.CurrentTrack
		c.CurrentTrack = &track
	}
	if s.LastSuggestions != nil {
		last := s.LastSuggestions.Clone()
		c.LastSuggestions = &last
	}
	return c
}
