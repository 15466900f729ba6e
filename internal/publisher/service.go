package publisher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tunnel-publisher/internal/common"
	"tunnel-publisher/internal/config"
	"tunnel-publisher/internal/domain"
	"tunnel-publisher/internal/github"
	"tunnel-publisher/internal/logwatch"
	"tunnel-publisher/internal/redirect"
	"tunnel-publisher/internal/tunnel"
)

// CommitMessage is the fixed message used for every redirect update.
const CommitMessage = "Update tunnel redirect"

// Service runs the pipeline once: resolve config, launch the daemon, wait
// for its URL, then fetch, patch and push the redirect page. Dataflow is
// strictly forward; any stage failure aborts the run. The daemon is never
// torn down here, even on failure.
type Service struct {
	run           common.RunOptions
	store         *config.Store
	prompter      config.Prompter
	launcher      tunnel.Launcher
	extractor     logwatch.Extractor
	clientFactory github.ClientFactory
	metrics       domain.MetricsCollector
	logger        *zap.Logger
}

func NewService(
	run common.RunOptions,
	store *config.Store,
	prompter config.Prompter,
	launcher tunnel.Launcher,
	extractor logwatch.Extractor,
	clientFactory github.ClientFactory,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Service {
	return &Service{
		run:           run,
		store:         store,
		prompter:      prompter,
		launcher:      launcher,
		extractor:     extractor,
		clientFactory: clientFactory,
		metrics:       metrics,
		logger:        logger.With(zap.String("component", "publisher")),
	}
}

func (s *Service) Publish(ctx context.Context) (*domain.PublishReport, error) {
	started := time.Now()

	cfg, err := s.resolveConfig()
	if err != nil {
		return nil, err
	}

	session, err := s.launchTunnel()
	if err != nil {
		return nil, err
	}

	tunnelURL, err := s.extractURL(ctx, session)
	if err != nil {
		return nil, err
	}
	session.URL = tunnelURL

	commitURL, err := s.updateRedirect(ctx, cfg, tunnelURL)
	if err != nil {
		return nil, err
	}

	return &domain.PublishReport{
		TunnelURL: tunnelURL,
		PID:       session.PID,
		CommitURL: commitURL,
		Duration:  time.Since(started),
	}, nil
}

func (s *Service) resolveConfig() (*config.Config, error) {
	started := time.Now()
	cfg, err := config.Resolve(s.store, s.prompter, s.logger)
	s.metrics.RecordStageDuration(string(StageConfig), time.Since(started))
	if err != nil {
		return nil, NewStageError(StageConfig, "missing or unreadable configuration", err)
	}
	return cfg, nil
}

func (s *Service) launchTunnel() (*domain.Session, error) {
	started := time.Now()
	session, err := s.launcher.Launch()
	s.metrics.RecordStageDuration(string(StageLaunch), time.Since(started))
	if err != nil {
		if errors.Is(err, tunnel.ErrBinaryUnavailable) {
			return nil, NewStageError(StageBinary, "tunnel binary could not be resolved", err)
		}
		return nil, NewStageError(StageLaunch, "tunnel daemon failed to start", err)
	}
	return session, nil
}

func (s *Service) extractURL(ctx context.Context, session *domain.Session) (string, error) {
	started := time.Now()
	tunnelURL, err := s.extractor.WaitForURL(ctx, session.LogPath)
	s.metrics.RecordStageDuration(string(StageExtract), time.Since(started))
	if err != nil {
		return "", NewStageError(StageExtract, "no public URL announced by the daemon", err)
	}
	return tunnelURL, nil
}

func (s *Service) updateRedirect(ctx context.Context, cfg *config.Config, tunnelURL string) (string, error) {
	client := s.clientFactory(cfg)

	started := time.Now()
	file, err := client.FetchFile(ctx, s.run.RemotePath, cfg.Branch)
	s.metrics.RecordStageDuration(string(StageFetch), time.Since(started))
	if err != nil {
		return "", NewStageError(StageFetch, "failed to fetch remote file", err)
	}

	patched := redirect.Patch(file.Content, tunnelURL)
	if patched == file.Content {
		s.logger.Info("remote file already points at the tunnel URL",
			zap.String("path", file.Path))
	}
	file.Content = patched

	started = time.Now()
	commitURL, err := client.PushFile(ctx, file, cfg.Branch, CommitMessage)
	s.metrics.RecordStageDuration(string(StagePush), time.Since(started))
	if err != nil {
		// The remote file is untouched and the tunnel keeps running.
		return "", NewStageError(StagePush, "failed to push remote file", err)
	}

	return commitURL, nil
}
