package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	summarizePath     = "/summarize-speech"
	httpClientTimeout = 30 * time.Second
)

// Service produces a summary for a list of transcript segments.
type Service interface {
	Summarize(ctx context.Context, texts []string) (*Response, error)
}

// Request is the payload sent to the summarization backend.
type Request struct {
	Texts []string `json:"texts"`
}

// Response is the summarization backend's reply.
type Response struct {
	Summary         string `json:"summary"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	FallbackUsed    bool   `json:"fallback_used"`
	ItemCount       int    `json:"item_count"`
	InputCharacters int    `json:"input_characters"`
	ElapsedMS       int64  `json:"elapsed_ms"`
}

// Client is an HTTP client for the summarization backend.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit caps outgoing requests. Summarization calls are debounced
// upstream, so this is a backstop against a chatty transcript.
func WithRateLimit(perSecond rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(perSecond, burst)
	}
}

// NewClient creates a summarization client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   httpClientTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize posts the segments to the backend and returns its summary.
func (c *Client) Summarize(ctx context.Context, texts []string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(Request{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+summarizePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summarize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("summarize request failed: status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
