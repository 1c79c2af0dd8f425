package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when a provider is configured without its secrets.
	ErrMissingCredentials = errors.New("missing inference credentials")
	// ErrUnknownProvider is returned by Build for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown inference provider")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("empty inference response")
)

// StatusError is a non-2xx answer from a remote model endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inference http %d", e.Status)
	}
	return fmt.Sprintf("inference http %d: %s", e.Status, e.Body)
}

// RetryExhaustedError wraps the last failure once every attempt was used.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}
