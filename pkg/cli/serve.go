package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpctrl "github.com/secmon-lab/coachmem/pkg/controller/http"
	"github.com/secmon-lab/coachmem/pkg/service/worker"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var probeInterval time.Duration
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("COACHMEM_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "health-probe-interval",
			Usage:       "Interval of background memory provider health probes; 0 probes only at startup. /health reports the last result",
			Value:       time.Minute,
			Sources:     cli.EnvVars("COACHMEM_HEALTH_PROBE_INTERVAL"),
			Destination: &probeInterval,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server exposing session hooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			a, err := appCfg.build(ctx, reg)
			if err != nil {
				return err
			}
			defer a.close()

			probe := worker.NewHealthProbeWorker(a.provider, probeInterval, "coachmem", reg)

			// The server starts regardless of the startup probe result
			probe.Start(ctx)
			defer probe.Stop()

			httpHandler := httpctrl.New(a.uc.Uploader, a.uc.History,
				httpctrl.WithHealthChecker(probe),
				httpctrl.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
