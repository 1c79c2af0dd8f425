// Package cli assembles the BeatPilot stack from configuration for the
// command-line entry points.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/beatpilot/internal/config"
	"github.com/aretw0/beatpilot/internal/logging"
	"github.com/aretw0/beatpilot/internal/metrics"
	"github.com/aretw0/beatpilot/pkg/adapters/file"
	"github.com/aretw0/beatpilot/pkg/adapters/inference"
	"github.com/aretw0/beatpilot/pkg/adapters/memory"
	"github.com/aretw0/beatpilot/pkg/adapters/redis"
	"github.com/aretw0/beatpilot/pkg/persistence/middleware"
	"github.com/aretw0/beatpilot/pkg/ports"
	"github.com/aretw0/beatpilot/pkg/protocol"
	"github.com/aretw0/beatpilot/pkg/session"
	"github.com/aretw0/beatpilot/pkg/suggest"
)

// Stack is a wired BeatPilot instance.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Store    ports.StateStore
	Sessions *session.Manager

	closers []io.Closer
}

// Close releases backend connections. It is safe to call more than once.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// ProtocolOptions are the protocol handler options implied by the config.
func (s *Stack) ProtocolOptions() []protocol.Option {
	return []protocol.Option{
		protocol.WithMaxInputSize(s.Config.Session.MaxInputSize),
		protocol.WithObserver(s.Metrics),
	}
}

// NewLogger builds the logger described by cfg.Log.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Format), nil
}

// Build validates cfg and wires store, locker, inference, suggestion service
// and session manager.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	st := &Stack{Config: cfg, Logger: logger, Metrics: metrics.New()}

	store, locker, err := st.buildStore()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	st.Store = store

	inferencer, err := inference.Build(ctx, inference.Config{
		Provider:    cfg.Inference.Provider,
		BaseURL:     cfg.Inference.BaseURL,
		AccountID:   cfg.Inference.AccountID,
		APIToken:    cfg.Inference.APIToken,
		APIKey:      cfg.Inference.APIKey,
		HTTPTimeout: cfg.Inference.HTTPTimeout,
		Logger:      logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("inference: %w", err)
	}

	svc := suggest.NewService(inferencer,
		suggest.WithModel(cfg.Inference.Model),
		suggest.WithMaxTokens(cfg.Inference.MaxTokens),
		suggest.WithTemperature(cfg.Inference.Temperature),
		suggest.WithTimeout(cfg.Inference.Timeout),
		suggest.WithLogger(logger),
		suggest.WithObserver(st.Metrics),
	)

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithObserver(st.Metrics),
		session.WithLockTTL(cfg.Session.LockTTL),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	st.Sessions = session.NewManager(store, svc, opts...)

	logger.Debug("Stack ready",
		"storage", cfg.Storage.Driver,
		"encrypted", cfg.Storage.EncryptionKey != "",
		"provider", cfg.Inference.Provider,
		"distributed_lock", locker != nil,
	)
	return st, nil
}

func (s *Stack) buildStore() (ports.StateStore, ports.DistributedLocker, error) {
	cfg := s.Config.Storage

	var (
		store  ports.StateStore
		locker ports.DistributedLocker
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverFile:
		store = file.New(cfg.Dir)
	case config.DriverRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		s.closers = append(s.closers, rs)
		store = rs
		if cfg.Redis.Lock {
			locker = redis.NewLocker(rs.Client(), rs.Prefix())
		}
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	if active != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(store)
	}
	return store, locker, nil
}
