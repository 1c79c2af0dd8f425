package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSession is returned when a session identity is malformed or cannot be routed.
var ErrInvalidSession = errors.New("invalid session identity")

// ErrInvalidSelection is returned when a suggestion is accepted without a pending set
// or with an index outside of it.
var ErrInvalidSelection = errors.New("no suggestion available at this index")

// ErrPersistence wraps failures of the state store during a session mutation.
var ErrPersistence = errors.New("failed to persist session")
