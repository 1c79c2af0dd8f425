/*
Package domain contains the core domain models for the BeatPilot session agent.

It defines the persisted session record, the suggestion set produced by the
generative model, and the derived session summary. This package is kept pure and
free of external dependencies like I/O or persistence.

# Key Entities

  - SessionState: The authoritative record of one session (current track, history, pending suggestions).
  - HistoryEntry: One accepted track, stamped in epoch milliseconds.
  - SuggestionResult: Exactly three next-track labels plus a transition plan.
  - SessionSummary: Read-only statistics derived from the history.
*/
package domain
