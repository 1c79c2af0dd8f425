package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/domain"
)

// DefaultWorkersAIBaseURL is the Cloudflare REST API root.
const DefaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

// WorkersAI calls Cloudflare Workers AI text generation models.
type WorkersAI struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
	policy    RetryPolicy
	logger    *slog.Logger
}

// WorkersAIOption configures a WorkersAI adapter.
type WorkersAIOption func(*WorkersAI)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) WorkersAIOption {
	return func(w *WorkersAI) {
		if u != "" {
			w.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) WorkersAIOption {
	return func(w *WorkersAI) {
		if c != nil {
			w.client = c
		}
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) WorkersAIOption {
	return func(w *WorkersAI) {
		if p.MaxAttempts > 0 {
			w.policy = p
		}
	}
}

// WithWorkersAILogger sets the logger used for retry notices.
func WithWorkersAILogger(logger *slog.Logger) WorkersAIOption {
	return func(w *WorkersAI) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorkersAI creates an adapter for the given account.
func NewWorkersAI(accountID, apiToken string, opts ...WorkersAIOption) (*WorkersAI, error) {
	if accountID == "" || apiToken == "" {
		return nil, fmt.Errorf("%w: workers ai needs an account id and an api token", ErrMissingCredentials)
	}
	w := &WorkersAI{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   DefaultWorkersAIBaseURL,
		client:    &http.Client{Timeout: 60 * time.Second},
		policy:    DefaultRetryPolicy(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type workersAIEnvelope struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Infer runs model with req, retrying transport failures and 429/5xx answers.
func (w *WorkersAI) Infer(ctx context.Context, model string, req domain.InferenceRequest) (domain.InferenceResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.InferenceResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/ai/run/%s", w.baseURL, url.PathEscape(w.accountID), model)

	for attempt := 1; ; attempt++ {
		resp, retry, err := w.do(ctx, endpoint, body)
		if err == nil {
			return resp, nil
		}
		if !retry {
			return domain.InferenceResponse{}, err
		}
		if attempt >= w.policy.MaxAttempts {
			return domain.InferenceResponse{}, &RetryExhaustedError{Attempts: attempt, LastErr: err}
		}

		delay := w.policy.delay(attempt)
		w.logger.Debug("Retrying inference", "model", model, "attempt", attempt, "delay", delay, "err", err)
		if werr := wait(ctx, delay); werr != nil {
			return domain.InferenceResponse{}, werr
		}
	}
}

// do performs one attempt. retry reports whether a failure is worth another attempt.
func (w *WorkersAI) do(ctx context.Context, endpoint string, body []byte) (domain.InferenceResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.InferenceResponse{}, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+w.apiToken)

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return domain.InferenceResponse{}, retryableTransport(err), err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.InferenceResponse{}, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return domain.InferenceResponse{}, retryableStatus(resp.StatusCode), &StatusError{Status: resp.StatusCode, Body: snippet}
	}

	var env workersAIEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.InferenceResponse{}, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Result.Response == "" {
		if len(env.Errors) > 0 {
			return domain.InferenceResponse{}, false, fmt.Errorf("%w: %s", ErrEmptyResponse, env.Errors[0].Message)
		}
		return domain.InferenceResponse{}, false, ErrEmptyResponse
	}
	return domain.InferenceResponse{Response: env.Result.Response}, false, nil
}
