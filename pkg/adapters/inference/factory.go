package inference

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/beatpilot/pkg/ports"
)

// Provider names accepted by Build.
const (
	ProviderNone      = "none"
	ProviderMock      = "mock"
	ProviderWorkersAI = "workersai"
	ProviderGemini    = "gemini"
)

// Config selects and configures an adapter.
type Config struct {
	Provider  string
	BaseURL   string
	AccountID string
	APIToken  string
	APIKey    string
	// Model overrides the per-call model for providers that support it.
	Model string
	// HTTPTimeout bounds a single HTTP attempt (workersai).
	HTTPTimeout time.Duration
	Logger      *slog.Logger
}

// Build returns the adapter named by cfg.Provider. ProviderNone yields a nil
// Inferencer, which makes every suggestion the fallback.
func Build(ctx context.Context, cfg Config) (ports.Inferencer, error) {
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case "", ProviderMock:
		return NewMock(), nil
	case ProviderWorkersAI:
		opts := []WorkersAIOption{WithBaseURL(cfg.BaseURL), WithWorkersAILogger(cfg.Logger)}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		w, err := NewWorkersAI(cfg.AccountID, cfg.APIToken, opts...)
		if err != nil {
			return nil, err
		}
		return w, nil
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
