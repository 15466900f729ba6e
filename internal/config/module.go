package config

import (
	"go.uber.org/fx"

	"tunnel-publisher/internal/common"
)

// Module exports the config module. Resolution itself runs inside the
// publish pipeline because it may prompt the operator for missing settings.
var Module = fx.Options(
	fx.Provide(func(run common.RunOptions) (*Store, error) {
		return NewStore(run.StorePath)
	}),
	fx.Provide(func(run common.RunOptions) Prompter {
		if run.NonInteractive {
			return NewNonInteractivePrompter()
		}
		return NewTerminalPrompter()
	}),
)
