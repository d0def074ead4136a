package services

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

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000"

// Client talks to the library backend.
type Client struct {
	baseURL    string
	assetURL   string
	httpClient *http.Client // unauthenticated
	authClient *http.Client // set by WithToken
	limiter    *rate.Limiter
	logger     *log.Logger
	token      string
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its transport becomes the base of the bearer transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLimiter throttles outgoing requests. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a client from the api config section.
func NewClient(cfg shared.APIConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		assetURL:   strings.TrimSuffix(cfg.AssetURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "component", "api")
	return c
}

// WithToken returns a copy of the client that sends token as a bearer credential. An empty token yields an
// unauthenticated copy.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	cp.authClient = nil
	if token == "" {
		return &cp
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cp.authClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
	return &cp
}

// Authenticated reports whether the client carries a token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

func (c *Client) BaseURL() string { return c.baseURL }

// AssetURL is the prefix for relative image and audio paths. It defaults to the base URL.
func (c *Client) AssetURL() string {
	if c.assetURL != "" {
		return c.assetURL
	}
	return c.baseURL
}

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool // requires a token
}

// envelope is the backend's response wrapper.
type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) failed() bool {
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(e.Status)), `"`))
	return s == "false" || s == "error" || s == "fail"
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// doRequest performs a request and decodes the (unwrapped) payload into result when it is non-nil.
func (c *Client) doRequest(ctx context.Context, r request, result any) error {
	if r.auth && c.token == "" {
		return fmt.Errorf("%w: %s requires a session", shared.ErrNotAuthenticated, r.path)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	fullURL := c.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.httpClient
	if c.authClient != nil {
		hc = c.authClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrNetwork, r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	c.logger.Debug("request", "method", r.method, "path", r.path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	var env envelope
	isEnvelope := json.Unmarshal(raw, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Code: resp.StatusCode, Method: r.method, Path: r.path}
		if isEnvelope {
			se.Message = env.message()
		}
		return se
	}
	if isEnvelope && env.failed() {
		return &StatusError{Code: resp.StatusCode, Message: env.message(), Method: r.method, Path: r.path}
	}

	if result == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	payload := raw
	if isEnvelope && len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// escape builds a path from segments, escaping each one.
func escape(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
