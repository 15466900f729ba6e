package logwatch

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"tunnel-publisher/internal/domain"
)

const (
	// tailWindow bounds how much of the log is re-read on each tick. The
	// daemon writes the file; we re-read the tail instead of streaming so
	// partial or interleaved writes are harmless.
	tailWindow = 800

	// diagnosticTail is how many lines get reported when the budget runs out.
	diagnosticTail = 120
)

// ErrTimeout reports that the polling budget elapsed without the daemon
// announcing a public URL.
var ErrTimeout = errors.New("timed out waiting for tunnel URL")

// Patterns tried in order against the joined log tail; first match wins.
// Bare URLs are preferred over JSON-embedded ones.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com[^\s"'<>]*`),
	regexp.MustCompile(`https://[a-zA-Z0-9-]+\.cfargotunnel\.com[^\s"'<>]*`),
	regexp.MustCompile(`"url"\s*:\s*"(https://[a-zA-Z0-9-]+\.trycloudflare\.com[^"]*)"`),
	regexp.MustCompile(`"url"\s*:\s*"(https://[a-zA-Z0-9-]+\.cfargotunnel\.com[^"]*)"`),
}

// ExtractURL scans a log text blob for a public tunnel URL. The match is
// trimmed of trailing sentence punctuation the daemon sometimes appends.
func ExtractURL(text string) (string, bool) {
	for _, pattern := range urlPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		url := match[0]
		if len(match) > 1 {
			url = match[1]
		}
		return strings.TrimRight(url, ".,;"), true
	}
	return "", false
}

// Extractor polls the daemon log file until a public URL appears or the
// budget elapses.
type Extractor interface {
	WaitForURL(ctx context.Context, logPath string) (string, error)
}

type extractor struct {
	interval time.Duration
	budget   time.Duration
	logger   *zap.Logger
	metrics  domain.MetricsCollector
}

func NewExtractor(
	interval time.Duration,
	budget time.Duration,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) Extractor {
	return &extractor{
		interval: interval,
		budget:   budget,
		logger:   logger.With(zap.String("component", "logwatch")),
		metrics:  metrics,
	}
}

func (e *extractor) WaitForURL(ctx context.Context, logPath string) (string, error) {
	deadline := time.NewTimer(e.budget)
	defer deadline.Stop()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("waiting for tunnel URL",
		zap.String("logfile", logPath),
		zap.Duration("budget", e.budget))

	for {
		if url, ok := e.scan(logPath); ok {
			e.logger.Info("tunnel URL found", zap.String("url", url))
			return url, nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			e.reportTail(logPath)
			return "", ErrTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (e *extractor) scan(logPath string) (string, bool) {
	e.metrics.RecordPollTick()

	lines, err := tailLines(logPath, tailWindow)
	if err != nil {
		// The daemon may not have created or flushed the file yet.
		e.metrics.RecordLogReadFailure()
		return "", false
	}

	return ExtractURL(strings.Join(lines, "\n"))
}

func (e *extractor) reportTail(logPath string) {
	lines, err := tailLines(logPath, diagnosticTail)
	if err != nil {
		e.logger.Error("could not read tunnel log for diagnostics",
			zap.String("logfile", logPath),
			zap.Error(err))
		return
	}

	e.logger.Error("no tunnel URL within budget; recent daemon output follows",
		zap.String("logfile", logPath),
		zap.Int("lines", len(lines)))
	for _, line := range lines {
		e.logger.Error("daemon: " + line)
	}
}
