package ports

// SessionAllocator issues session identities and maps them to the routable path
// of their realtime endpoint.
type SessionAllocator interface {
	// NewIdentity returns a fresh, opaque session identity.
	NewIdentity() string

	// Resolve returns the realtime endpoint path for an identity.
	// Returns domain.ErrInvalidSession if the identity is not routable.
	Resolve(sessionID string) (string, error)
}
