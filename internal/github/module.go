package github

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tunnel-publisher/internal/config"
	"tunnel-publisher/internal/domain"
)

// ClientFactory builds a Client once the repository settings have been
// resolved. Resolution may prompt the operator, so it happens inside the
// pipeline rather than at graph construction time.
type ClientFactory func(cfg *config.Config) *Client

// Module exports the github module
var Module = fx.Options(
	fx.Provide(func(metrics domain.MetricsCollector, logger *zap.Logger) ClientFactory {
		return func(cfg *config.Config) *Client {
			return NewClient(DefaultBaseURL, cfg.Owner, cfg.Repo, cfg.Token, metrics, logger)
		}
	}),
)
