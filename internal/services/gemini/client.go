package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cineboard/internal/services/retry"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultHTTPTimeout = 120 * time.Second
	apiKeyHeader       = "x-goog-api-key"
)

// ADCScopes are requested when authenticating with Application Default Credentials.
var ADCScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/generative-language",
}

// Config captures the runtime settings required to talk to the Gemini REST API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client issues Gemini REST requests. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	// oauth is set when requests are authorized by an oauth2 transport instead of an API key.
	oauth bool
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource authorizes requests with OAuth2 bearer tokens instead of an API key.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		if ts == nil {
			return
		}
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: base},
		}
		c.oauth = true
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.policy.MaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.policy.BaseDelay = baseDelay
		c.policy.MaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.policy.Sleeper = sleeper
	}
}

// NewClient constructs a Gemini client using API-key authentication.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.DefaultPolicy(),
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewADCClient constructs a client authorized through Google Application Default Credentials.
func NewADCClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	ts, err := google.DefaultTokenSource(ctx, ADCScopes...)
	if err != nil {
		return nil, fmt.Errorf("gemini adc: %w", err)
	}
	cfg.APIKey = ""
	return NewClient(cfg, append(opts, WithTokenSource(ts))...), nil
}

// WithKey returns a copy of the client that authenticates with key. The copy
// shares the HTTP client and retry policy.
func (c *Client) WithKey(key string) *Client {
	clone := *c
	clone.cfg.APIKey = strings.TrimSpace(key)
	return &clone
}

// HasCredentials reports whether requests will carry an API key or OAuth token.
func (c *Client) HasCredentials() bool {
	return c.oauth || c.cfg.APIKey != ""
}

// GenerateContent calls models/{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, request GenerateRequest) (GenerateResponse, error) {
	var response GenerateResponse
	endpoint, err := c.modelEndpoint(model, "generateContent")
	if err != nil {
		return response, err
	}
	err = c.postJSON(ctx, "gemini generate", endpoint, request, &response)
	if err != nil {
		return response, err
	}
	if len(response.Candidates) == 0 {
		reason := ""
		if response.PromptFeedback != nil {
			reason = response.PromptFeedback.BlockReason
		}
		return response, fmt.Errorf("gemini generate: no candidates (block_reason=%q)", reason)
	}
	return response, nil
}

// SubmitVideo starts a long-running video generation via models/{model}:predictLongRunning.
func (c *Client) SubmitVideo(ctx context.Context, model string, request VideoRequest) (Operation, error) {
	var op Operation
	endpoint, err := c.modelEndpoint(model, "predictLongRunning")
	if err != nil {
		return op, err
	}
	if err := c.postJSON(ctx, "gemini submit video", endpoint, request.payload(), &op); err != nil {
		return op, err
	}
	if strings.TrimSpace(op.Name) == "" {
		return op, fmt.Errorf("gemini submit video: response missing operation name")
	}
	return op, nil
}

// GetOperation fetches the current state of a long-running operation by name.
func (c *Client) GetOperation(ctx context.Context, name string) (Operation, error) {
	var op Operation
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return op, fmt.Errorf("gemini operation: name required")
	}
	endpoint := c.cfg.BaseURL + "/" + name
	err := c.do(ctx, "gemini operation", http.MethodGet, endpoint, nil, func(body []byte) error {
		return json.Unmarshal(body, &op)
	})
	return op, err
}

// Download fetches an asset URI. With API-key auth the key is appended as the
// key query parameter, which the file service requires.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	target, err := c.downloadURL(uri)
	if err != nil {
		return nil, "", err
	}
	var (
		data        []byte
		contentType string
	)
	err = c.doRaw(ctx, "gemini download", http.MethodGet, target, nil, func(resp *http.Response, body []byte) error {
		data = body
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func (c *Client) downloadURL(uri string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || parsed.Scheme == "" {
		return "", fmt.Errorf("gemini download: invalid uri %q", uri)
	}
	if c.cfg.APIKey != "" && !c.oauth {
		query := parsed.Query()
		query.Set("key", c.cfg.APIKey)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (c *Client) modelEndpoint(model, method string) (string, error) {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		return "", fmt.Errorf("gemini %s: model required", method)
	}
	return fmt.Sprintf("%s/models/%s:%s", c.cfg.BaseURL, url.PathEscape(model), method), nil
}

func (c *Client) postJSON(ctx context.Context, op, endpoint string, payload, target any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, endpoint, encoded, func(body []byte) error {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, decode func([]byte) error) error {
	return c.doRaw(ctx, op, method, endpoint, body, func(_ *http.Response, payload []byte) error {
		return decode(payload)
	})
}

func (c *Client) doRaw(ctx context.Context, op, method, endpoint string, body []byte, handle func(*http.Response, []byte) error) error {
	_, err := retry.Do(ctx, c.policy, op, func(ctx context.Context) (struct{}, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s: new request: %w", op, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.cfg.APIKey != "" && !c.oauth {
			req.Header.Set(apiKeyHeader, c.cfg.APIKey)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s: http error (timeout=%s): %w", op, c.httpClient.Timeout, err)
		}
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s: read body: %w", op, err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return struct{}{}, retry.NewStatusError("gemini", resp, payload)
		}
		return struct{}{}, handle(resp, payload)
	})
	return err
}
