package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Suggester produces a suggestion set for a vibe description. It must not fail.
type Suggester interface {
	Suggest(ctx context.Context, input string) domain.SuggestionResult
}

// Observer is notified when the number of active agents changes.
type Observer interface {
	SetActiveSessions(n int)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// actor is an active agent shared by every channel attached to the session.
type actor struct {
	agent *Agent
	refs  int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks and idle agents.
type Manager struct {
	store     ports.StateStore
	suggester Suggester

	mu     sync.Mutex            // Global lock for the maps
	locks  map[string]*lockEntry // Map of active locks
	actors map[string]*actor     // Map of activated agents

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiration of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithObserver registers an Observer for the active agent count.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store and suggester.
func NewManager(store ports.StateStore, suggester Suggester, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		suggester: suggester,
		locks:     make(map[string]*lockEntry),
		actors:    make(map[string]*actor),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(), // Default to no-op
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The holder's context may be cancelled by now; the release must still reach the backend.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Activate returns the agent of a session, loading its state on first use.
// A session with no stored state starts empty and is persisted immediately.
// Every successful Activate MUST be paired with Deactivate.
func (m *Manager) Activate(ctx context.Context, sessionID string) (*Agent, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidSession
	}

	if agent := m.attach(sessionID); agent != nil {
		return agent, nil
	}

	// The agent is registered before the session lock is released, so a later
	// activation can never load a snapshot older than what a live agent holds.
	var agent *Agent
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if agent = m.attach(sessionID); agent != nil {
			return nil
		}

		state, err := m.loadOrCreate(ctx, sessionID)
		if err != nil {
			return err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		agent = &Agent{id: sessionID, manager: m, state: state}
		m.actors[sessionID] = &actor{agent: agent, refs: 1}
		m.notifyActive()
		m.logger.Debug("Session activated", "session_id", sessionID, "history", len(state.History))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (m *Manager) attach(sessionID string) *Agent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.actors[sessionID]; ok {
		a.refs++
		return a.agent
	}
	return nil
}

// Deactivate drops one reference to the session agent. The last release evicts
// it; the next Activate reloads from the store.
func (m *Manager) Deactivate(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.actors[sessionID]
	if !ok {
		return
	}
	a.refs--
	if a.refs <= 0 {
		delete(m.actors, sessionID)
		m.notifyActive()
		m.logger.Debug("Session deactivated", "session_id", sessionID)
	}
}

// notifyActive must be called with m.mu held.
func (m *Manager) notifyActive() {
	if m.observer != nil {
		m.observer.SetActiveSessions(len(m.actors))
	}
}

// ActiveCount returns the number of activated agents.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actors)
}

// Load retrieves a stored session without activating it.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	var state *domain.SessionState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.load(ctx, sessionID)
		return err
	})
	return state, err
}

// Delete removes the session from the store.
// An agent that is still active keeps its in-memory state and writes it back on its next mutation.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

func (m *Manager) load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	blob, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := domain.NewSessionState()
	if err := json.Unmarshal(blob, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	if state.History == nil {
		state.History = []domain.HistoryEntry{}
	}
	return state, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	state, err := m.load(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	state = domain.NewSessionState()
	// Persist immediately to reserve the ID
	if err := m.persist(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return state, nil
}

// persist ignores cancellation of ctx. A mutation that got this far is committed.
func (m *Manager) persist(ctx context.Context, sessionID string, state *domain.SessionState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	return m.store.Put(context.WithoutCancel(ctx), sessionID, blob)
}
