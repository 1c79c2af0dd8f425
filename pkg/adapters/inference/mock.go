package inference

import (
	"context"
	"sync"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// MockResponse is the well-formed answer the mock returns by default.
const MockResponse = `{"suggestions": ["Strobe - deadmau5 (BPM: 128)", "Opus - Eric Prydz (BPM: 126)", "Cola - CamelPhat & Elderbrook (BPM: 124)"], "transition_plan": "Ride the breakdown for 16 bars, then swap the low end on the drop."}`

// Mock is a deterministic Inferencer. Scripted responses are consumed in
// order; once exhausted it keeps returning MockResponse.
type Mock struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []domain.InferenceRequest
}

// NewMock creates a mock that answers with responses, then MockResponse.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

// FailWith makes every later call fail with err. A nil err restores normal answers.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the requests seen so far.
func (m *Mock) Requests() []domain.InferenceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InferenceRequest(nil), m.requests...)
}

func (m *Mock) Infer(ctx context.Context, model string, req domain.InferenceRequest) (domain.InferenceResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.InferenceResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.err != nil {
		return domain.InferenceResponse{}, m.err
	}
	if len(m.responses) > 0 {
		next := m.responses[0]
		m.responses = m.responses[1:]
		return domain.InferenceResponse{Response: next}, nil
	}
	return domain.InferenceResponse{Response: MockResponse}, nil
}
