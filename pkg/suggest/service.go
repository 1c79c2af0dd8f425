// Package suggest produces next-track suggestions for a vibe description.
//
// The Service never fails: inference errors and unusable model output both
// resolve to a valid SuggestionResult through the repair pipeline.
package suggest

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/ports"
	"github.com/aretw0/beatpilot/pkg/repair"
)

const (
	DefaultModel       = "@cf/meta/llama-2-7b-chat-int8"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)

// Observer receives per-call measurements. The metrics package implements it.
type Observer interface {
	ObserveInference(elapsed time.Duration, err error)
	ObserveRepair(stage string)
}

type nopObserver struct{}

func (nopObserver) ObserveInference(time.Duration, error) {}
func (nopObserver) ObserveRepair(string)                  {}

// Service turns vibe descriptions into suggestion sets.
type Service struct {
	inferencer  ports.Inferencer
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
	observer    Observer
}

// Option configures the Service.
type Option func(*Service)

// WithModel sets the model identifier passed to the inferencer.
func WithModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxTokens caps the length of the model response.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *Service) {
		s.temperature = t
	}
}

// WithTimeout bounds each inference call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithObserver registers an Observer for inference and repair outcomes.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates a Service backed by the given inferencer.
func NewService(inferencer ports.Inferencer, opts ...Option) *Service {
	s := &Service{
		inferencer:  inferencer,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      logging.NewNop(),
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest asks the model for three next tracks and a transition plan.
// Transport failures and malformed output are indistinguishable to the caller:
// both yield a usable result.
func (s *Service) Suggest(ctx context.Context, input string) domain.SuggestionResult {
	if s.inferencer == nil {
		return repair.Fallback()
	}

	prompt, err := BuildPrompt(input)
	if err != nil {
		s.logger.Error("Failed to render prompt", "err", err)
		return repair.Fallback()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.inferencer.Infer(ctx, s.model, domain.InferenceRequest{
		Messages: []domain.InferenceMessage{
			{Role: domain.RoleSystem, Content: prompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	s.observer.ObserveInference(time.Since(start), err)
	if err != nil {
		s.logger.Warn("Inference failed, using fallback suggestions", "model", s.model, "err", err)
		return repair.Fallback()
	}

	result, stage := repair.RepairWithStage(resp.Response)
	s.observer.ObserveRepair(stage)
	s.logger.Debug("Model response repaired", "stage", stage, "bytes", len(resp.Response))
	return result
}
