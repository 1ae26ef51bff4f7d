package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the per-request timeout against the provider.
	DefaultTimeout = 30 * time.Second

	embedPath    = "/embed"
	classifyPath = "/classify"
)

// Client talks to a local inference sidecar over HTTP JSON. It
// implements Provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dimension  int
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDimension sets the expected embedding dimension. Responses with a
// different vector length fail with ErrDimensionMismatch. Zero disables
// the check.
func WithDimension(dim int) ClientOption {
	return func(c *Client) {
		c.dimension = dim
	}
}

// WithUserAgent sets the User-Agent header sent to the provider.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a provider client for the given base URL, e.g.
// "http://127.0.0.1:9099".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "darkmonitor",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// Embed implements Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	if err := c.post(ctx, embedPath, embedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if c.dimension > 0 && len(resp.Embedding) != c.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(resp.Embedding), c.dimension)
	}
	return resp.Embedding, nil
}

// Classify implements Classifier. Labels missing from the provider's
// answer are filled in with a zero score so callers can index the map
// without checking presence.
func (c *Client) Classify(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	var resp classifyResponse
	if err := c.post(ctx, classifyPath, classifyRequest{Text: text, Labels: labels}, &resp); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = resp.Scores[label]
	}
	return scores, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s %s: %s", ErrProviderStatus, http.MethodPost, path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai: decode response: %w", err)
	}
	return nil
}
