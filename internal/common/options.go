package common

import (
	"time"

	"go.uber.org/zap"
)

// RunOptions carries the per-invocation settings collected from command-line
// flags, as opposed to the persisted repository settings.
type RunOptions struct {
	StorePath      string
	LocalPort      int
	RemotePath     string
	PollInterval   time.Duration
	PollBudget     time.Duration
	NonInteractive bool
}

// DefaultRunOptions returns the defaults documented in the flag help.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		LocalPort:    8080,
		RemotePath:   "index.html",
		PollInterval: 1 * time.Second,
		PollBudget:   180 * time.Second,
	}
}

// ServiceOptions defines common options for the application shell
type ServiceOptions struct {
	Logger *zap.Logger
	Run    RunOptions
}

// Option defines a service option modifier
type Option func(*ServiceOptions)

func WithLogger(logger *zap.Logger) Option {
	return func(o *ServiceOptions) {
		o.Logger = logger
	}
}

func WithRunOptions(run RunOptions) Option {
	return func(o *ServiceOptions) {
		o.Run = run
	}
}
