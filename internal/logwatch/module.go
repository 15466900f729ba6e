package logwatch

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tunnel-publisher/internal/common"
	"tunnel-publisher/internal/domain"
)

// Module exports the logwatch module
var Module = fx.Options(
	fx.Provide(func(run common.RunOptions, metrics domain.MetricsCollector, logger *zap.Logger) Extractor {
		return NewExtractor(run.PollInterval, run.PollBudget, metrics, logger)
	}),
)
