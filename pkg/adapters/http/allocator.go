package http

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// UUIDAllocator issues random UUIDv4 identities routed under /api/sessions.
type UUIDAllocator struct{}

// NewIdentity returns a fresh UUIDv4 string.
func (UUIDAllocator) NewIdentity() string {
	return uuid.NewString()
}

// Resolve returns the realtime endpoint path for a UUID identity.
func (UUIDAllocator) Resolve(sessionID string) (string, error) {
	if err := uuid.Validate(sessionID); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSession, sessionID)
	}
	return "/api/sessions/" + sessionID + "/ws", nil
}
