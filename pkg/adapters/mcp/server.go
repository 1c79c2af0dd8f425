package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/beatpilot"
	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/ports"
	"github.com/aretw0/beatpilot/pkg/protocol"
	"github.com/aretw0/beatpilot/pkg/session"
)

const sessionsURI = "beatpilot://sessions"

// Sessions is the part of session.Manager the MCP server needs.
type Sessions interface {
	Activate(ctx context.Context, sessionID string) (*session.Agent, error)
	Deactivate(sessionID string)
	List(ctx context.Context) ([]string, error)
}

// Server exposes the session protocol as MCP tools.
type Server struct {
	sessions     Sessions
	allocator    ports.SessionAllocator
	mcpServer    *server.MCPServer
	logger       *slog.Logger
	protocolOpts []protocol.Option
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProtocolOptions are applied to the protocol handler of every call.
func WithProtocolOptions(opts ...protocol.Option) Option {
	return func(s *Server) {
		s.protocolOpts = append(s.protocolOpts, opts...)
	}
}

// NewServer creates a new MCP Server instance. Session IDs are checked with
// allocator, the same way the realtime channel checks them.
func NewServer(sessions Sessions, allocator ports.SessionAllocator, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		allocator: allocator,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("beatpilot-mcp", strings.TrimSpace(beatpilot.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying server, for embedding in other transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool(protocol.KindAnalyzeVibe,
		mcp.WithDescription("Describe the current vibe and get three next-track suggestions with a transition plan."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identity")),
		mcp.WithString("input", mcp.Required(), mcp.Description("Free-text description of the music and crowd")),
		mcp.WithOutputSchema[protocol.Outbound](),
	)
	s.mcpServer.AddTool(analyzeTool, mcp.NewStructuredToolHandler(s.handleAnalyzeVibe))

	acceptTool := mcp.NewTool(protocol.KindAcceptSuggestion,
		mcp.WithDescription("Accept one of the pending suggestions as the current track."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identity")),
		mcp.WithNumber("track_index", mcp.Required(), mcp.Description("Zero-based index into the pending suggestions")),
		mcp.WithOutputSchema[protocol.Outbound](),
	)
	s.mcpServer.AddTool(acceptTool, mcp.NewStructuredToolHandler(s.handleAcceptSuggestion))

	summaryTool := mcp.NewTool(protocol.KindGetSummary,
		mcp.WithDescription("Summarize the accepted tracks of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identity")),
		mcp.WithOutputSchema[protocol.Outbound](),
	)
	s.mcpServer.AddTool(summaryTool, mcp.NewStructuredToolHandler(s.handleGetSummary))
}

func (s *Server) handleAnalyzeVibe(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (protocol.Outbound, error) {
	msg := protocol.Inbound{Type: protocol.KindAnalyzeVibe}
	if input, ok := args["input"]; ok {
		msg.Input, _ = json.Marshal(input)
	}
	return s.dispatch(ctx, args, msg)
}

func (s *Server) handleAcceptSuggestion(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (protocol.Outbound, error) {
	msg := protocol.Inbound{Type: protocol.KindAcceptSuggestion}
	if idx, ok := args["track_index"]; ok {
		msg.TrackIndex, _ = json.Marshal(idx)
	}
	return s.dispatch(ctx, args, msg)
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (protocol.Outbound, error) {
	return s.dispatch(ctx, args, protocol.Inbound{Type: protocol.KindGetSummary})
}

// dispatch runs msg against the session named in args. Protocol errors are
// returned as tool errors.
func (s *Server) dispatch(ctx context.Context, args map[string]interface{}, msg protocol.Inbound) (protocol.Outbound, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return protocol.Outbound{}, errors.New("session_id is required")
	}
	if _, err := s.allocator.Resolve(id); err != nil {
		return protocol.Outbound{}, fmt.Errorf("invalid session_id %q: %w", id, err)
	}

	agent, err := s.sessions.Activate(ctx, id)
	if err != nil {
		s.logger.Error("MCP: Failed to activate session", "session_id", id, "err", err)
		return protocol.Outbound{}, fmt.Errorf("activate session: %w", err)
	}
	defer s.sessions.Deactivate(id)

	opts := append([]protocol.Option{protocol.WithLogger(s.logger)}, s.protocolOpts...)
	out := protocol.NewHandler(agent, opts...).Dispatch(ctx, msg)
	if out.Type == protocol.KindError {
		if payload, ok := out.Data.(protocol.ErrorPayload); ok {
			return protocol.Outbound{}, errors.New(payload.Message)
		}
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
