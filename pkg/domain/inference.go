package domain

// Message roles understood by the inference collaborator.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// InferenceMessage is a single chat turn sent to the model.
type InferenceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InferenceRequest mirrors the payload of a chat-style text generation call.
type InferenceRequest struct {
	Messages    []InferenceMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

// InferenceResponse carries the best-effort text returned by the model.
type InferenceResponse struct {
	Response string `json:"response"`
}
