package session

import (
	"context"
	"fmt"

	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/summary"
)

// Agent is the actor of one session. All operations are serialized through
// the Manager's lock for the session ID.
type Agent struct {
	id      string
	manager *Manager
	state   *domain.SessionState
}

// ID returns the session identity.
func (a *Agent) ID() string {
	return a.id
}

// AnalyzeVibe asks for a new suggestion set and stores it as the pending proposal.
// The proposal is overwritten even when the model failed and the fallback was used,
// including when ctx is cancelled mid-inference.
// The only error is a persistence (or locking) failure; state is left unchanged then.
func (a *Agent) AnalyzeVibe(ctx context.Context, input string) (domain.SuggestionResult, error) {
	var result domain.SuggestionResult
	err := a.manager.WithLock(ctx, a.id, func(ctx context.Context) error {
		result = a.manager.suggester.Suggest(ctx, input)
		return a.mutate(ctx, func(s *domain.SessionState) error {
			pending := result.Clone()
			s.LastSuggestions = &pending
			return nil
		})
	})
	if err != nil {
		return domain.SuggestionResult{}, err
	}
	return result, nil
}

// AcceptSuggestion promotes the suggestion at index to the current track and
// appends it to the history. It returns domain.ErrInvalidSelection when nothing
// is pending or the index is out of range.
func (a *Agent) AcceptSuggestion(ctx context.Context, index int) (string, error) {
	var track string
	err := a.manager.WithLock(ctx, a.id, func(ctx context.Context) error {
		return a.mutate(ctx, func(s *domain.SessionState) error {
			if s.LastSuggestions == nil || index < 0 || index >= len(s.LastSuggestions.Suggestions) {
				return domain.ErrInvalidSelection
			}

			track = s.LastSuggestions.Suggestions[index]
			current := track
			s.CurrentTrack = &current

			ts := a.manager.now().UnixMilli()
			if n := len(s.History); n > 0 && ts < s.History[n-1].Timestamp {
				ts = s.History[n-1].Timestamp
			}
			s.History = append(s.History, domain.HistoryEntry{
				Track:     track,
				Timestamp: ts,
				Accepted:  true,
			})
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return track, nil
}

// Summary derives the session statistics from the accepted history.
func (a *Agent) Summary(ctx context.Context) (domain.SessionSummary, error) {
	var out domain.SessionSummary
	err := a.manager.WithLock(ctx, a.id, func(ctx context.Context) error {
		out = summary.Summarize(a.state)
		return nil
	})
	return out, err
}

// Snapshot returns a deep copy of the current state.
func (a *Agent) Snapshot(ctx context.Context) (*domain.SessionState, error) {
	var out *domain.SessionState
	err := a.manager.WithLock(ctx, a.id, func(ctx context.Context) error {
		out = a.state.Clone()
		return nil
	})
	return out, err
}

// mutate applies fn and persists the result. If fn or the store fails, the
// in-memory state is restored so memory and store never diverge.
// Must be called under the session lock.
func (a *Agent) mutate(ctx context.Context, fn func(*domain.SessionState) error) error {
	snapshot := a.state.Clone()

	if err := fn(a.state); err != nil {
		a.state = snapshot
		return err
	}

	if err := a.manager.persist(ctx, a.id, a.state); err != nil {
		a.state = snapshot
		a.manager.logger.Error("Failed to persist session", "session_id", a.id, "err", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}
