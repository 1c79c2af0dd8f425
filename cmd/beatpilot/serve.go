package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/beatpilot"
	"github.com/aretw0/beatpilot/internal/presentation/tui"
	httpAdapter "github.com/aretw0/beatpilot/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long: `Starts BeatPilot, serving the control page at /, session allocation at
POST /api/sessions and the realtime channel at /api/sessions/{id}/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		cfg := st.Config

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(beatpilot.Version))
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(st.Logger),
			httpAdapter.WithReadLimit(cfg.Server.ReadLimit),
			httpAdapter.WithProtocolOptions(st.ProtocolOptions()...),
			httpAdapter.WithConnObserver(st.Metrics),
			httpAdapter.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		}
		if cfg.Server.Metrics {
			opts = append(opts, httpAdapter.WithMetricsHandler(st.Metrics.Handler()))
		}
		server := httpAdapter.NewServer(st.Sessions, httpAdapter.UUIDAllocator{}, opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.Handler(),
			// Realtime connections end when ctx does.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			st.Logger.Info("BeatPilot listening", "addr", srv.Addr,
				"storage", cfg.Storage.Driver, "provider", cfg.Inference.Provider)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			st.Logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				st.Logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		st.Logger.Info("BeatPilot stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
