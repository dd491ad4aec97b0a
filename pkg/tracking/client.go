package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

// ReasonNotConfigured is reported when a path has no record-store endpoint.
const ReasonNotConfigured = "No LRS configured"

// VersionHeader carries the statement-format version on every request.
const VersionHeader = "X-Experience-API-Version"

var _ ports.StatementSender = (*Client)(nil)

// Client posts statements to a record store over HTTP with basic authentication.
type Client struct {
	http    *http.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.http = &http.Client{Timeout: d, Transport: cl.http.Transport}
	}
}

// WithClientMetrics records delivery outcomes.
func WithClientMetrics(m *observability.Metrics) ClientOption {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a record-store client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers one statement.
func (c *Client) Send(ctx context.Context, stmt domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	return c.post(ctx, stmt, stmt.Verb.Name(), cfg)
}

// SendBatch delivers statements as one JSON array.
func (c *Client) SendBatch(ctx context.Context, stmts []domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	if len(stmts) == 0 {
		return domain.SendResult{Reason: "no statements"}
	}
	return c.post(ctx, stmts, "batch", cfg)
}

func (c *Client) post(ctx context.Context, body any, verb string, cfg *domain.LRSConfig) (res domain.SendResult) {
	if !cfg.Configured() {
		c.metrics.Statement(verb, "skipped", 0)
		return domain.SendResult{Reason: ReasonNotConfigured}
	}

	start := time.Now()
	defer func() {
		outcome := "stored"
		if !res.Stored {
			outcome = "failed"
			c.logger.Warn("statement delivery failed", "verb", verb, "status", res.StatusCode, "reason", res.Reason)
		}
		c.metrics.Statement(verb, outcome, time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.SendResult{Reason: fmt.Sprintf("encode statement: %v", err)}
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/") + "/statements"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.SendResult{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(VersionHeader, domain.StatementVersion)
	req.SetBasicAuth(cfg.Key, cfg.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.SendResult{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.SendResult{Stored: true, StatusCode: resp.StatusCode}
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	reason := strings.TrimSpace(string(msg))
	if reason == "" {
		reason = resp.Status
	}
	return domain.SendResult{StatusCode: resp.StatusCode, Reason: reason}
}
