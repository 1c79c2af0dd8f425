package ports

import (
	"context"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// Inferencer runs a text generation call against a model.
// Implementations may fail (timeout, quota, transport) and, on success,
// return free text with no well-formedness guarantee.
type Inferencer interface {
	Infer(ctx context.Context, model string, req domain.InferenceRequest) (domain.InferenceResponse, error)
}
