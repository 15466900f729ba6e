package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"tunnel-publisher/internal/common"
	"tunnel-publisher/internal/config"
	"tunnel-publisher/internal/github"
	"tunnel-publisher/internal/logwatch"
	"tunnel-publisher/internal/metrics"
	"tunnel-publisher/internal/publisher"
	"tunnel-publisher/internal/tunnel"
)

type Application struct {
	app    *fx.App
	logger *zap.Logger
}

func NewApplication(opts ...common.Option) *Application {
	options := &common.ServiceOptions{
		Run: common.DefaultRunOptions(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Ensure required options are set
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	app := &Application{
		logger: options.Logger,
	}

	app.app = fx.New(Options(options)...)

	return app
}

// Options assembles the fx options for the application. Exposed so tests
// can validate the dependency graph without running the pipeline.
func Options(options *common.ServiceOptions) []fx.Option {
	return []fx.Option{
		// Core modules
		config.Module,
		metrics.Module,
		tunnel.Module,
		logwatch.Module,
		github.Module,
		publisher.Module,

		// Provide base dependencies
		fx.Provide(
			func() *zap.Logger { return options.Logger },
			func() common.RunOptions { return options.Run },
		),

		// Configure fx
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),

		// Set timeouts
		fx.StartTimeout(30 * time.Second),
		fx.StopTimeout(30 * time.Second),
	}
}

// Run starts the application, waits for the pipeline (or a signal) to shut
// it down, and returns the process exit code.
func (a *Application) Run(ctx context.Context) int {
	if err := a.app.Start(ctx); err != nil {
		a.logger.Error("failed to start application", zap.Error(err))
		return 1
	}

	sig := <-a.app.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.app.Stop(stopCtx); err != nil {
		a.logger.Error("failed to stop application gracefully", zap.Error(err))
		return 1
	}

	return sig.ExitCode
}
