package tunnel

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tunnel-publisher/internal/common"
)

// Module exports the tunnel module
var Module = fx.Options(
	fx.Provide(NewInstaller),
	fx.Provide(func(run common.RunOptions, installer Installer, logger *zap.Logger) Launcher {
		return NewLauncher(run.LocalPort, installer, logger)
	}),
)
