package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/domain"
)

// Client-facing error messages.
const (
	MsgInvalidSelection = "No suggestion available at this index"
	MsgPersistence      = "Failed to persist session"
	MsgInternal         = "Failed to process request"
)

// Error reasons reported to the Observer.
const (
	ReasonMalformed        = "malformed"
	ReasonUnknownType      = "unknown_type"
	ReasonInvalidSelection = "invalid_selection"
	ReasonPersistence      = "persistence"
	ReasonInternal         = "internal"
)

// Agent is the session actor the handler drives.
type Agent interface {
	ID() string
	AnalyzeVibe(ctx context.Context, input string) (domain.SuggestionResult, error)
	AcceptSuggestion(ctx context.Context, index int) (string, error)
	Summary(ctx context.Context) (domain.SessionSummary, error)
}

// Observer receives per-message outcomes.
type Observer interface {
	ObserveMessage(kind string)
	ObserveError(reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveMessage(string) {}
func (nopObserver) ObserveError(string)   {}

// Handler dispatches inbound messages for one session.
type Handler struct {
	agent        Agent
	logger       *slog.Logger
	observer     Observer
	maxInputSize int
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithObserver sets the message observer.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithMaxInputSize sets the analyze_vibe input limit in bytes.
func WithMaxInputSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxInputSize = n
		}
	}
}

// NewHandler creates a handler bound to agent.
func NewHandler(agent Agent, opts ...Option) *Handler {
	h := &Handler{
		agent:        agent,
		logger:       logging.NewNop(),
		observer:     nopObserver{},
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one raw inbound message and returns its reply.
// Frames with invalid UTF-8 are rejected before decoding, which would
// otherwise replace the bad bytes with U+FFFD.
func (h *Handler) Handle(ctx context.Context, raw []byte) Outbound {
	if !utf8.Valid(raw) {
		return h.malformed(fmt.Errorf("message %w", ErrInvalidUTF8))
	}
	msg, err := ParseInbound(raw)
	if err != nil {
		return h.malformed(err)
	}
	h.observer.ObserveMessage(msg.Type)
	return h.Dispatch(ctx, msg)
}

// Dispatch runs an already-decoded message.
func (h *Handler) Dispatch(ctx context.Context, msg Inbound) Outbound {
	switch msg.Type {
	case KindAnalyzeVibe:
		input, err := msg.InputText()
		if err != nil {
			return h.malformed(err)
		}
		input, err = SanitizeInput(input, h.maxInputSize)
		if err != nil {
			return h.malformed(err)
		}
		result, err := h.agent.AnalyzeVibe(ctx, input)
		if err != nil {
			return h.failure(msg.Type, err)
		}
		return Outbound{Type: KindSuggestions, Data: result}

	case KindAcceptSuggestion:
		index, err := msg.Index()
		if err != nil {
			return h.malformed(err)
		}
		track, err := h.agent.AcceptSuggestion(ctx, index)
		if err != nil {
			return h.failure(msg.Type, err)
		}
		return Outbound{Type: KindSuggestionAccepted, Data: AcceptedPayload{Track: &track}}

	case KindGetSummary:
		sum, err := h.agent.Summary(ctx)
		if err != nil {
			return h.failure(msg.Type, err)
		}
		return Outbound{Type: KindSessionSummary, Data: sum}

	default:
		h.observer.ObserveError(ReasonUnknownType)
		return NewError("Unknown message type: " + msg.Type)
	}
}

func (h *Handler) malformed(err error) Outbound {
	h.observer.ObserveError(ReasonMalformed)
	h.logger.Debug("Rejected message", "session_id", h.agent.ID(), "err", err)
	detail := strings.TrimPrefix(err.Error(), ErrMalformed.Error()+": ")
	return NewError("Invalid message: " + detail)
}

func (h *Handler) failure(kind string, err error) Outbound {
	switch {
	case errors.Is(err, domain.ErrInvalidSelection):
		h.observer.ObserveError(ReasonInvalidSelection)
		return NewError(MsgInvalidSelection)
	case errors.Is(err, domain.ErrPersistence):
		h.observer.ObserveError(ReasonPersistence)
		return NewError(MsgPersistence)
	default:
		h.observer.ObserveError(ReasonInternal)
		h.logger.Error("Message failed", "session_id", h.agent.ID(), "type", kind, "err", err)
		return NewError(MsgInternal)
	}
}
