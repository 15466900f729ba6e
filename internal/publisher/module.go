package publisher

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"tunnel-publisher/internal/metrics"
)

// Module exports the publisher module
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerHooks),
)

// registerHooks kicks off the one-shot pipeline once the app has started
// and shuts the app down with the run's exit code when it finishes.
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	service *Service,
	collector *metrics.Collector,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				report, err := service.Publish(context.Background())

				exitCode := 0
				if err != nil {
					logger.Error("publish failed", zap.Error(err))
					exitCode = 1
				} else {
					logger.Info("publish complete",
						zap.String("tunnel_url", report.TunnelURL),
						zap.Int("tunnel_pid", report.PID),
						zap.String("commit_url", report.CommitURL),
						zap.Duration("duration", report.Duration))
					logger.Info("tunnel daemon left running; stop it with the reported pid")
				}

				collector.LogSummary()

				if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
					logger.Error("failed to shut down", zap.Error(err))
				}
			}()
			return nil
		},
	})
}
