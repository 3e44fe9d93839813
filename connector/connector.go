// Package connector carries envelopes between agents. It speaks two
// transports: HTTP POST for peer agents and an MCP stdio session for the
// tool host. Both surfaces report failures as values rather than panics so
// callers can aggregate partial results.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/logging"
)

// Options configure a Connector.
type Options struct {
	// Timeout bounds a single peer HTTP exchange.
	Timeout time.Duration
	// MaxAttempts is the total number of tries for a peer call. Retries
	// apply to network failures and 5xx answers only.
	MaxAttempts int
	// RetryDelay is the flat pause between attempts.
	RetryDelay time.Duration
	// HTTPClient overrides the client used for peer calls.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// PeerResult is the outcome of a peer exchange. Status is "success" when a
// response envelope was decoded and "error" otherwise; Err carries the
// transport or validation failure when there is one.
type PeerResult struct {
	Status   string
	Envelope *a2a.Envelope
	Err      error
}

// Connector sends envelopes to peer agents and tools.
type Connector struct {
	opts   Options
	client *http.Client
}

// New creates a Connector.
func New(optFns ...func(o *Options)) *Connector {
	opts := Options{
		Timeout:     30 * time.Second,
		MaxAttempts: 1,
		RetryDelay:  500 * time.Millisecond,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Connector{opts: opts, client: client}
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.Timeout = d }
}

// WithMaxAttempts sets the total number of tries for a peer call.
func WithMaxAttempts(n int) func(o *Options) {
	return func(o *Options) { o.MaxAttempts = n }
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) func(o *Options) {
	return func(o *Options) { o.RetryDelay = d }
}

// WithLogger sets the connector logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithHTTPClient overrides the HTTP client used for peer calls.
func WithHTTPClient(client *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = client }
}

// SendToPeer posts env to the peer's /a2a endpoint and decodes the reply
// envelope. The envelope is validated locally first; a message that would be
// rejected remotely never leaves the process. Network failures and 5xx
// answers are retried up to MaxAttempts with a flat delay; 4xx answers and
// decode failures are terminal on the first occurrence.
func (c *Connector) SendToPeer(ctx context.Context, targetURL string, env a2a.Envelope) PeerResult {
	if err := env.Validate(); err != nil {
		return PeerResult{Status: "error", Err: fmt.Errorf("refusing to send: %w", err)}
	}

	body, err := json.Marshal(env)
	if err != nil {
		return PeerResult{Status: "error", Err: fmt.Errorf("encode envelope: %w", err)}
	}

	endpoint := targetURL + "/a2a"
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.opts.Logger.Warn("retrying peer call", "target", endpoint, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(c.opts.RetryDelay):
			case <-ctx.Done():
				return PeerResult{Status: "error", Err: ctx.Err()}
			}
		}

		reply, retryable, err := c.post(ctx, endpoint, body)
		if err == nil {
			return PeerResult{Status: "success", Envelope: reply}
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return PeerResult{Status: "error", Err: lastErr}
}

// post performs one HTTP exchange. The second return reports whether the
// failure is worth another attempt.
func (c *Connector) post(ctx context.Context, endpoint string, body []byte) (*a2a.Envelope, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("peer unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("peer returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("peer returned %d", resp.StatusCode)
	}

	var reply a2a.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, false, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, false, nil
}
