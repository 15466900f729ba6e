package tunnel

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"tunnel-publisher/internal/domain"
)

// BinaryName is the tunnel daemon executable resolved on the search path.
const BinaryName = "cloudflared"

// ErrBinaryUnavailable reports that the daemon executable could not be
// resolved, even after the unattended install attempt.
var ErrBinaryUnavailable = errors.New("tunnel binary unavailable")

// Launcher starts the tunnel daemon as a detached background process. The
// daemon has no stdio attachment to this program and outlives it; the only
// channel back is the log file recorded in the session.
type Launcher interface {
	Launch() (*domain.Session, error)
}

type launcher struct {
	localPort int
	installer Installer
	logger    *zap.Logger
}

func NewLauncher(localPort int, installer Installer, logger *zap.Logger) Launcher {
	return &launcher{
		localPort: localPort,
		installer: installer,
		logger:    logger,
	}
}

func (l *launcher) Launch() (*domain.Session, error) {
	binPath, err := l.resolveBinary()
	if err != nil {
		return nil, err
	}

	logFile, err := os.CreateTemp("", "cloudflared-*.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create tunnel log file: %w", err)
	}
	logPath := logFile.Name()
	if err := logFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tunnel log file: %w", err)
	}

	cmd := exec.Command(binPath,
		"tunnel",
		"--url", fmt.Sprintf("http://localhost:%d", l.localPort),
		"--loglevel", "info",
		"--logfile", logPath,
	)
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", BinaryName, err)
	}

	pid := cmd.Process.Pid

	// Drop the parent-child coupling entirely. The daemon is the operator's
	// to stop, using the reported PID.
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("failed to release tunnel process handle", zap.Error(err))
	}

	l.logger.Info("started tunnel daemon",
		zap.Int("pid", pid),
		zap.Int("local_port", l.localPort),
		zap.String("logfile", logPath))

	return &domain.Session{PID: pid, LogPath: logPath}, nil
}

func (l *launcher) resolveBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	l.logger.Info("tunnel binary not on PATH, attempting unattended install",
		zap.String("binary", BinaryName))

	if err := l.installer.Install(); err != nil {
		l.logger.Warn("unattended install failed", zap.Error(err))
	}

	path, err := exec.LookPath(BinaryName)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH after install attempt", ErrBinaryUnavailable, BinaryName)
	}
	return path, nil
}
