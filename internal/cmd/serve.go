package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/retailctl/internal/console"
	"github.com/felixgeelhaar/retailctl/internal/health"
	"github.com/felixgeelhaar/retailctl/internal/metrics"
	"github.com/felixgeelhaar/retailctl/internal/server"
	"github.com/felixgeelhaar/retailctl/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web console",
		Long: `Start the browser console on the configured address (console.addr,
default 127.0.0.1:8088). It shares the session with the CLI: signing in
here is visible to 'retailctl whoami' and vice versa.

Probe endpoints:
  /health/live    process is responsive
  /health/ready   session store and storage answer
  /health/startup stored session has been restored
  /metrics        Prometheus metrics

SIGINT or SIGTERM drain open connections before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Console.Addr = addr
			}
			if err := a.open(); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", a.cfg.Console.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.Console.Addr, err)
			}
			return a.serve(cmd.Context(), ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides console.addr)")
	return cmd
}

// serve runs the console on ln until ctx is done.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	info := version.GetInfo()
	probes := health.NewProbeManager(info.Version,
		health.SessionChecker{Source: a.store},
		health.StorageChecker{Storage: a.storage})

	reg, m := metrics.NewRegistry()
	c := console.New(a.store,
		console.WithLogger(a.logger),
		console.WithMetrics(m),
		console.WithVersion(info),
		console.WithCookieName(a.cfg.Console.CookieName))

	srv := server.NewServer(probes, c.Handler(), server.Config{
		Address:         ln.Addr().String(),
		ShutdownTimeout: a.cfg.Console.ShutdownTimeout,
		ReadTimeout:     a.cfg.Console.ReadTimeout,
		WriteTimeout:    a.cfg.Console.WriteTimeout,
		Metrics:         m,
		MetricsHandler:  metrics.HandlerFor(reg),
	}, a.logger)

	// Views answer with the loading placeholder until this finishes.
	go func() {
		if err := a.store.Init(ctx); err != nil {
			a.logger.WithError(err).Warn("restore session")
		}
		probes.MarkInitialized()
	}()

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Serve(ln) }()

	a.println(fmt.Sprintf("RetailShop console %s listening on http://%s", info.Version, ln.Addr()))
	a.println("Press Ctrl+C to stop")

	select {
	case err := <-serverErr:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Console.ShutdownTimeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		a.println("Console stopped")
		return nil
	}
}
