package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tunnel-publisher/internal/common"
	"tunnel-publisher/internal/config"
	"tunnel-publisher/internal/domain"
	"tunnel-publisher/internal/github"
	"tunnel-publisher/internal/logwatch"
	"tunnel-publisher/internal/metrics"
	"tunnel-publisher/internal/tunnel"
)

type fakeLauncher struct {
	dir        string
	logContent string
	err        error
}

func (l *fakeLauncher) Launch() (*domain.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	path := filepath.Join(l.dir, "daemon.log")
	if err := os.WriteFile(path, []byte(l.logContent), 0644); err != nil {
		return nil, err
	}
	return &domain.Session{PID: 4242, LogPath: path}, nil
}

// remoteStub is a minimal contents API: one file, sha-checked writes.
type remoteStub struct {
	content    string
	sha        string
	fetchCode  int
	pushCode   int
	pushedBody map[string]string
	fetches    int
	pushes     int
}

func (s *remoteStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.fetches++
			if s.fetchCode != 0 {
				w.WriteHeader(s.fetchCode)
				w.Write([]byte(`{"message": "fetch rejected"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"content": base64.StdEncoding.EncodeToString([]byte(s.content)),
				"sha":     s.sha,
			})
		case http.MethodPut:
			s.pushes++
			if s.pushCode != 0 {
				w.WriteHeader(s.pushCode)
				w.Write([]byte(`{"message": "push rejected"}`))
				return
			}
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &s.pushedBody))
			json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]string{"html_url": "https://github.test/commit/xyz"},
			})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}
}

func newTestService(t *testing.T, launcher tunnel.Launcher, baseURL string) *Service {
	t.Helper()
	logger := zap.NewNop()
	collector := metrics.NewCollector(logger)

	store, err := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(&config.Config{
		Owner: "someone", Repo: "homepage", Token: "tok", Branch: "main",
	}))

	run := common.DefaultRunOptions()
	run.PollInterval = 10 * time.Millisecond
	run.PollBudget = 200 * time.Millisecond

	factory := func(cfg *config.Config) *github.Client {
		return github.NewClient(baseURL, cfg.Owner, cfg.Repo, cfg.Token, collector, logger)
	}

	extractor := logwatch.NewExtractor(run.PollInterval, run.PollBudget, collector, logger)

	return NewService(run, store, config.NewNonInteractivePrompter(), launcher,
		extractor, factory, collector, logger)
}

func stageOf(t *testing.T, err error) Stage {
	t.Helper()
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	return stageErr.Stage
}

func TestPublish(t *testing.T) {
	t.Run("End to end", func(t *testing.T) {
		remote := &remoteStub{
			content: `<meta http-equiv="refresh" content="0; url=https://old.trycloudflare.com/">`,
			sha:     "abc123",
		}
		server := httptest.NewServer(remote.handler(t))
		defer server.Close()

		launcher := &fakeLauncher{
			dir:        t.TempDir(),
			logContent: "INF starting tunnel\nINF +  https://foo-bar.trycloudflare.com/  +\n",
		}

		service := newTestService(t, launcher, server.URL)
		report, err := service.Publish(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "https://foo-bar.trycloudflare.com/", report.TunnelURL)
		assert.Equal(t, 4242, report.PID)
		assert.Equal(t, "https://github.test/commit/xyz", report.CommitURL)

		assert.Equal(t, "abc123", remote.pushedBody["sha"])
		assert.Equal(t, "main", remote.pushedBody["branch"])
		assert.Equal(t, CommitMessage, remote.pushedBody["message"])

		pushed, err := base64.StdEncoding.DecodeString(remote.pushedBody["content"])
		require.NoError(t, err)
		assert.Equal(t,
			`<meta http-equiv="refresh" content="0; url=https://foo-bar.trycloudflare.com/">`,
			string(pushed))
	})

	t.Run("Missing config aborts before launching", func(t *testing.T) {
		logger := zap.NewNop()
		collector := metrics.NewCollector(logger)

		store, err := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
		require.NoError(t, err)

		launcher := &fakeLauncher{err: errors.New("must not be reached")}
		service := NewService(common.DefaultRunOptions(), store,
			config.NewNonInteractivePrompter(), launcher,
			logwatch.NewExtractor(time.Millisecond, time.Millisecond, collector, logger),
			func(cfg *config.Config) *github.Client { return nil },
			collector, logger)

		_, err = service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StageConfig, stageOf(t, err))
	})

	t.Run("Binary unavailable maps to its own stage", func(t *testing.T) {
		launcher := &fakeLauncher{
			err: fmt.Errorf("%w: cloudflared not found", tunnel.ErrBinaryUnavailable),
		}
		service := newTestService(t, launcher, "http://unused.test")

		_, err := service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StageBinary, stageOf(t, err))
	})

	t.Run("Other launch failures map to launch stage", func(t *testing.T) {
		launcher := &fakeLauncher{err: errors.New("fork failed")}
		service := newTestService(t, launcher, "http://unused.test")

		_, err := service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StageLaunch, stageOf(t, err))
	})

	t.Run("No URL in the log times out", func(t *testing.T) {
		launcher := &fakeLauncher{dir: t.TempDir(), logContent: "INF nothing useful\n"}
		service := newTestService(t, launcher, "http://unused.test")

		_, err := service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StageExtract, stageOf(t, err))
		assert.ErrorIs(t, err, logwatch.ErrTimeout)
	})

	t.Run("Fetch failure aborts without pushing", func(t *testing.T) {
		remote := &remoteStub{fetchCode: http.StatusNotFound}
		server := httptest.NewServer(remote.handler(t))
		defer server.Close()

		launcher := &fakeLauncher{
			dir:        t.TempDir(),
			logContent: "https://foo.trycloudflare.com\n",
		}
		service := newTestService(t, launcher, server.URL)

		_, err := service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StageFetch, stageOf(t, err))
		assert.Equal(t, 0, remote.pushes)
	})

	t.Run("Push conflict is fatal with a single attempt", func(t *testing.T) {
		remote := &remoteStub{
			content:  "<html><body>nothing recognizable</body></html>",
			sha:      "abc123",
			pushCode: http.StatusConflict,
		}
		server := httptest.NewServer(remote.handler(t))
		defer server.Close()

		launcher := &fakeLauncher{
			dir:        t.TempDir(),
			logContent: "https://foo.trycloudflare.com\n",
		}
		service := newTestService(t, launcher, server.URL)

		_, err := service.Publish(context.Background())
		require.Error(t, err)
		assert.Equal(t, StagePush, stageOf(t, err))
		assert.Equal(t, 1, remote.pushes)
		assert.Contains(t, err.Error(), "push rejected")
	})
}
