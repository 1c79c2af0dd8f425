package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/aretw0/beatpilot"
	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/ports"
	"github.com/aretw0/beatpilot/pkg/protocol"
	"github.com/aretw0/beatpilot/pkg/session"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// DefaultReadLimit caps the size of one inbound realtime message.
const DefaultReadLimit int64 = 64 << 10

//go:embed static/index.html
var static embed.FS

// Sessions activates session actors for realtime connections.
type Sessions interface {
	Activate(ctx context.Context, sessionID string) (*session.Agent, error)
	Deactivate(sessionID string)
}

// ConnObserver is told when realtime connections open and close.
type ConnObserver interface {
	ObserveConnection(delta int)
}

// Server implements the generated ServerInterface.
type Server struct {
	sessions     Sessions
	allocator    ports.SessionAllocator
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	readLimit    int64
	metrics      http.Handler
	protocolOpts []protocol.Option
	connObserver ConnObserver
}

var _ ServerInterface = (*Server)(nil)

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

// WithReadLimit sets the maximum inbound message size in bytes.
func WithReadLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithProtocolOptions are applied to every connection's protocol handler.
func WithProtocolOptions(opts ...protocol.Option) Option {
	return func(s *Server) {
		s.protocolOpts = append(s.protocolOpts, opts...)
	}
}

// WithConnObserver reports realtime connection churn.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		s.connObserver = o
	}
}

// WithAllowedOrigins restricts WebSocket upgrades to the given origins.
// With no origins every origin is accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[strings.TrimRight(o, "/")] = struct{}{}
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// NewServer creates a Server.
func NewServer(sessions Sessions, allocator ports.SessionAllocator, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		allocator: allocator,
		logger:    logging.NewNop(),
		readLimit: DefaultReadLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router: the operations of api/openapi.yaml plus the
// control page, the metrics endpoint and the raw spec.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	handler := HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("Rejected request parameters", "path", r.URL.Path, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	})
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Info{
		App:        "beatpilot-http",
		Version:    strings.TrimSpace(beatpilot.Version),
		ApiVersion: apiVersion,
	}); err != nil {
		s.logger.Error("Info response encode failed", "err", err)
	}
}

// CreateSession handles POST /api/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.allocator.NewIdentity()
	path, err := s.allocator.Resolve(id)
	if err != nil {
		s.logger.Error("Allocated identity is not routable", "session_id", id, "err", err)
		http.Error(w, "failed to allocate session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateSessionResponse{
		SessionId:    id,
		WebsocketUrl: websocketURL(r, path),
	}); err != nil {
		s.logger.Error("Create session response encode failed", "err", err)
	}
}

func websocketURL(r *http.Request, path string) string {
	scheme := "ws"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + path
}

// ConnectSession handles GET /api/sessions/{id}/ws.
func (s *Server) ConnectSession(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.allocator.Resolve(id); err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve session", http.StatusInternalServerError)
		return
	}

	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("BeatPilot session endpoint: connect with a WebSocket client"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		s.logger.Warn("WebSocket upgrade failed", "session_id", id, "err", err)
		return
	}

	newConnection(s, conn, id).serve(r.Context())
}
