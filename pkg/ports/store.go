package ports

import "context"

// StateStore defines the interface for persisting session records.
// Values are opaque blobs: no partial updates, no transactions.
type StateStore interface {
	// Put stores the blob for a given session ID, replacing any previous value.
	Put(ctx context.Context, sessionID string, blob []byte) error

	// Get retrieves the blob for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Get(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes the blob for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
