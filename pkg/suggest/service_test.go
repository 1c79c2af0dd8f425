package suggest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/repair"
	"github.com/aretw0/beatpilot/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInferencer struct {
	response string
	err      error

	model string
	req   domain.InferenceRequest
	ctx   context.Context
}

func (s *stubInferencer) Infer(ctx context.Context, model string, req domain.InferenceRequest) (domain.InferenceResponse, error) {
	s.ctx = ctx
	s.model = model
	s.req = req
	if s.err != nil {
		return domain.InferenceResponse{}, s.err
	}
	return domain.InferenceResponse{Response: s.response}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	failures int
	stages   []string
}

func (o *recordingObserver) ObserveInference(_ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) ObserveRepair(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func TestService_Suggest_RepairsResponse(t *testing.T) {
	inf := &stubInferencer{response: "```json\n{\"suggestions\": [\"One - A (BPM: 122)\", \"Two - B (BPM: 123)\", \"Three - C (BPM: 124)\"], \"transition_plan\": \"Long blend.\"}\n```"}
	obs := &recordingObserver{}
	svc := suggest.NewService(inf, suggest.WithObserver(obs))

	got := svc.Suggest(context.Background(), "deep house, 122 BPM")

	assert.Equal(t, []string{"One - A (BPM: 122)", "Two - B (BPM: 123)", "Three - C (BPM: 124)"}, got.Suggestions)
	assert.Equal(t, "Long blend.", got.TransitionPlan)
	assert.Equal(t, []string{repair.StageExtracted}, obs.stages)
	assert.Zero(t, obs.failures)
}

func TestService_Suggest_InferenceFailureFallsBack(t *testing.T) {
	inf := &stubInferencer{err: errors.New("quota exceeded")}
	obs := &recordingObserver{}
	svc := suggest.NewService(inf, suggest.WithObserver(obs))

	got := svc.Suggest(context.Background(), "techno")

	assert.Equal(t, repair.Fallback(), got)
	assert.Equal(t, 1, obs.failures)
	assert.Empty(t, obs.stages)
}

func TestService_Suggest_RequestShape(t *testing.T) {
	inf := &stubInferencer{response: "nope"}
	svc := suggest.NewService(inf,
		suggest.WithModel("@cf/test/model"),
		suggest.WithMaxTokens(128),
		suggest.WithTemperature(0.2),
	)

	_ = svc.Suggest(context.Background(), `sunset "afro" house`)

	assert.Equal(t, "@cf/test/model", inf.model)
	assert.Equal(t, 128, inf.req.MaxTokens)
	assert.InDelta(t, 0.2, inf.req.Temperature, 1e-9)
	require.Len(t, inf.req.Messages, 1)
	assert.Equal(t, domain.RoleSystem, inf.req.Messages[0].Role)
	assert.Contains(t, inf.req.Messages[0].Content, `Input: "sunset \"afro\" house"`)
}

func TestService_Suggest_Defaults(t *testing.T) {
	inf := &stubInferencer{response: "nope"}
	svc := suggest.NewService(inf)

	_ = svc.Suggest(context.Background(), "disco")

	assert.Equal(t, suggest.DefaultModel, inf.model)
	assert.Equal(t, suggest.DefaultMaxTokens, inf.req.MaxTokens)
	assert.InDelta(t, suggest.DefaultTemperature, inf.req.Temperature, 1e-9)
}

func TestService_Suggest_Timeout(t *testing.T) {
	inf := &stubInferencer{response: "nope"}
	svc := suggest.NewService(inf, suggest.WithTimeout(time.Minute))

	_ = svc.Suggest(context.Background(), "disco")

	_, ok := inf.ctx.Deadline()
	assert.True(t, ok, "expected a deadline on the inference context")
}

func TestService_Suggest_NilInferencer(t *testing.T) {
	svc := suggest.NewService(nil)
	assert.Equal(t, repair.Fallback(), svc.Suggest(context.Background(), "disco"))
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := suggest.BuildPrompt("deep house, 122 BPM")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are BeatPilot"))
	assert.Contains(t, prompt, `Input: "deep house, 122 BPM"`)
	assert.Contains(t, prompt, `"transition_plan"`)
}
