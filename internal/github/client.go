package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tunnel-publisher/internal/domain"
)

const (
	// DefaultBaseURL is the public API endpoint; tests inject their own.
	DefaultBaseURL = "https://api.github.com"

	userAgent    = "tunnel-publisher"
	acceptHeader = "application/vnd.github+json"
)

func createDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// Client talks to the contents API of a single repository. Writes use the
// sha captured at fetch time, so a concurrent update of the same file makes
// the push fail instead of silently clobbering it. One attempt, no retry.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    domain.MetricsCollector
}

func NewClient(
	baseURL string,
	owner string,
	repo string,
	token string,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		owner:      owner,
		repo:       repo,
		token:      token,
		httpClient: createDefaultHTTPClient(),
		logger:     logger.With(zap.String("component", "github")),
		metrics:    metrics,
	}
}

type contentResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch"`
}

type putResponse struct {
	Commit struct {
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

// FetchFile retrieves the current content and revision marker of a file.
func (c *Client) FetchFile(ctx context.Context, path, branch string) (*domain.RemoteFile, error) {
	endpoint := c.contentsURL(path) + "?ref=" + url.QueryEscape(branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	c.setHeaders(req)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed contentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse contents response: %w", err)
	}

	// The API wraps base64 content in newlines.
	raw := strings.ReplaceAll(parsed.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	c.logger.Debug("fetched remote file",
		zap.String("path", path),
		zap.String("sha", parsed.SHA),
		zap.Int("bytes", len(decoded)))

	return &domain.RemoteFile{
		Path:    path,
		SHA:     parsed.SHA,
		Content: string(decoded),
	}, nil
}

// PushFile writes the file back, conditioned on the sha captured at fetch
// time. Returns the resulting commit URL when the API reports one.
func (c *Client) PushFile(ctx context.Context, file *domain.RemoteFile, branch, message string) (string, error) {
	payload := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(file.Content)),
		SHA:     file.SHA,
		Branch:  branch,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(file.Path), bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed putResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse push response: %w", err)
	}

	c.logger.Debug("pushed remote file",
		zap.String("path", file.Path),
		zap.String("commit_url", parsed.Commit.HTMLURL))

	return parsed.Commit.HTMLURL, nil
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
}

// do runs the request and returns the response body. Non-2xx responses
// become errors carrying the raw body so API failures surface verbatim.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordAPIRequest(req.Method, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s returned %s: %s",
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(body)))
	}

	return body, nil
}
