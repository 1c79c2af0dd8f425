package inference

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// DefaultGeminiModel is used when the configured model is a Workers AI id.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini calls Google Gemini through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini adapter. model overrides the per-call model
// when non-empty.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini needs an api key", ErrMissingCredentials)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Infer maps system messages to the system instruction and the rest to user
// contents. A request with only system messages sends them as the user turn.
func (g *Gemini) Infer(ctx context.Context, model string, req domain.InferenceRequest) (domain.InferenceResponse, error) {
	contents, system := splitMessages(req.Messages)

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewContentFromText(system, genai.RoleUser)}
	} else if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.resolveModel(model), contents, cfg)
	if err != nil {
		return domain.InferenceResponse{}, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return domain.InferenceResponse{}, ErrEmptyResponse
	}
	return domain.InferenceResponse{Response: text}, nil
}

func (g *Gemini) resolveModel(model string) string {
	if g.model != "" {
		return g.model
	}
	// Workers AI ids (@cf/...) mean nothing to Gemini.
	if model == "" || strings.HasPrefix(model, "@") {
		return DefaultGeminiModel
	}
	return model
}

func splitMessages(msgs []domain.InferenceMessage) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system []string
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	return contents, strings.Join(system, "\n\n")
}
