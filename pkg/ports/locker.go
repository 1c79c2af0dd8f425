package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates the single-actor-per-session guarantee across replicas.
// The session Manager takes it around every agent operation when configured.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a session ID) is held or ctx is done.
	// The lock expires on its own after ttl if the holder never calls the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
