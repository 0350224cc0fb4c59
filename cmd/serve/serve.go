// Package serve implements the web dashboard command.
package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstokely/echotube/internal/capture"
	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/httpcontroller"
	"github.com/nstokely/echotube/internal/logging"
	"github.com/nstokely/echotube/internal/measurement"
	"github.com/nstokely/echotube/internal/observability"
	"github.com/nstokely/echotube/internal/pulse"
)

const shutdownTimeout = 5 * time.Second

// Command returns the serve subcommand
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the measurement dashboard and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings)
		},
	}
}

func runServe(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	loggers := []*slog.Logger{logger}
	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, level)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeLog(); err != nil {
				logger.Warn("failed to close measurement log", "error", err)
			}
		}()
		loggers = append(loggers, fileLogger)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	recorder := capture.NewRecorder(&settings.Audio)
	emitter := pulse.New(&settings.Buzzer)
	mgr := measurement.NewManager(settings, measurement.WrapRecorder(recorder), emitter, metrics.Measurement)
	defer mgr.Close()

	server := httpcontroller.New(settings, mgr, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go drainOutcomes(ctx, mgr.Results(), loggers...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// drainOutcomes logs each delivered outcome until ctx is cancelled, so the
// terminal (and the measurement log, when enabled) mirrors the dashboard.
func drainOutcomes(ctx context.Context, results <-chan measurement.Outcome, loggers ...*slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case outcome := <-results:
			for _, l := range loggers {
				if outcome.Err != nil {
					l.Error("measurement failed", "error", outcome.Err)
					continue
				}
				l.Info("measurement delivered",
					"echo_ms", outcome.Result.Estimate.EchoTimeMs,
					"speed_mps", outcome.Result.SpeedMPS)
			}
		}
	}
}
