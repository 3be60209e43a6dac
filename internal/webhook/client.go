package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dunamismax/seamflow/internal/id"
)

const (
	HeaderSignature = "X-Seamflow-Signature"
	HeaderTimestamp = "X-Seamflow-Timestamp"
	HeaderEvent     = "X-Seamflow-Event"
	HeaderDelivery  = "X-Seamflow-Delivery"

	userAgent = "seamflow-webhook/1"

	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// JobEvent is the body posted for job lifecycle events.
type JobEvent struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	SourceType   string    `json:"source_type"`
	ObjectKey    string    `json:"object_key"`
	RequestedAt  time.Time `json:"requested_at"`
	FinishedAt   time.Time `json:"finished_at"`
	SeamsRemoved int       `json:"seams_removed,omitempty"`
	Outputs      any       `json:"outputs,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type Config struct {
	SigningSecret  string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Client struct {
	httpClient     *http.Client
	signingSecret  string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 1 * time.Second
	}

	maxBackoff := cfg.MaxBackoff
	if maxBackoff < initialBackoff {
		maxBackoff = initialBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signingSecret:  cfg.SigningSecret,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

// Send posts payload to endpoint, retrying transient failures with
// exponential backoff. Every attempt carries the same delivery id so
// receivers can drop duplicates.
func (c *Client) Send(ctx context.Context, endpoint, event string, payload any) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", userAgent)
	headers.Set(HeaderEvent, event)
	headers.Set(HeaderDelivery, id.New())
	headers.Set(HeaderTimestamp, timestamp)
	headers.Set(HeaderSignature, c.sign(timestamp, body))
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	backoff := c.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := c.deliver(ctx, endpoint, headers, body)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = classifyWebhookError(err, resp)
		if attempt == c.maxAttempts || !retryable(resp) {
			break
		}

		wait := max(backoff, retryAfter(resp))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(wait, c.maxBackoff)):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}

	return fmt.Errorf("webhook delivery failed: %w", lastErr)
}

// deliver makes one attempt. The response body is drained and closed before
// returning, so only the status line and headers are usable.
func (c *Client) deliver(ctx context.Context, endpoint string, headers http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header = headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return resp, nil
}

func (c *Client) sign(timestamp string, body []byte) string {
	return Sign(c.signingSecret, timestamp, body)
}

// Sign computes the signature header value receivers should compare against:
// HMAC-SHA256 over "<timestamp>.<body>".
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body for the given secret.
func Verify(secret, timestamp, signature string, body []byte) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(secret, timestamp, body)))
}

func classifyWebhookError(err error, resp *http.Response) error {
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("webhook request failed: no response")
	}
	return fmt.Errorf("webhook returned status=%d", resp.StatusCode)
}

// retryable is false for 4xx answers other than 408 and 429: the receiver
// rejected the request and will do so again.
func retryable(resp *http.Response) bool {
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return resp.StatusCode < 400 || resp.StatusCode >= 500
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
