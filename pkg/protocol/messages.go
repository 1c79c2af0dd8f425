package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Inbound kinds.
const (
	KindAnalyzeVibe      = "analyze_vibe"
	KindAcceptSuggestion = "accept_suggestion"
	KindGetSummary       = "get_summary"
)

// Outbound kinds.
const (
	KindSuggestions        = "suggestions"
	KindSuggestionAccepted = "suggestion_accepted"
	KindSessionSummary     = "session_summary"
	KindError              = "error"
)

// Inbound is a client message. Fields are kept raw so each kind can check
// the exact JSON type it requires.
type Inbound struct {
	Type       string          `json:"type"`
	Input      json.RawMessage `json:"input,omitempty"`
	TrackIndex json.RawMessage `json:"trackIndex,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// AcceptedPayload is the data of a suggestion_accepted message.
type AcceptedPayload struct {
	Track *string `json:"track"`
}

// ErrorPayload is the data of an error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewError builds an error message.
func NewError(message string) Outbound {
	return Outbound{Type: KindError, Data: ErrorPayload{Message: message}}
}

// ErrMalformed is returned by the field accessors when a payload field is
// missing or has the wrong JSON type.
var ErrMalformed = errors.New("malformed message")

// ParseInbound decodes raw into an Inbound. A message without a string type
// is malformed.
func ParseInbound(raw []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Inbound{}, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	var msg Inbound
	typ, ok := fields["type"]
	if !ok {
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	if err := json.Unmarshal(typ, &msg.Type); err != nil {
		return Inbound{}, fmt.Errorf("%w: type must be a string", ErrMalformed)
	}
	msg.Input = fields["input"]
	msg.TrackIndex = fields["trackIndex"]
	return msg, nil
}

// InputText returns the analyze_vibe input. It must be a JSON string.
func (m Inbound) InputText() (string, error) {
	if isAbsent(m.Input) {
		return "", fmt.Errorf("%w: missing input", ErrMalformed)
	}
	var s string
	if err := json.Unmarshal(m.Input, &s); err != nil {
		return "", fmt.Errorf("%w: input must be a string", ErrMalformed)
	}
	return s, nil
}

// Index returns the accept_suggestion trackIndex. It must be an integral
// JSON number; 2.0 is accepted, 2.5 and "2" are not.
func (m Inbound) Index() (int, error) {
	if isAbsent(m.TrackIndex) {
		return 0, fmt.Errorf("%w: missing trackIndex", ErrMalformed)
	}
	var f float64
	if err := json.Unmarshal(m.TrackIndex, &f); err != nil {
		return 0, fmt.Errorf("%w: trackIndex must be a number", ErrMalformed)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: trackIndex must be an integer", ErrMalformed)
	}
	return int(f), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
