package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/requestid"
)

const (
	maxBodySize      = 1 << 20
	defaultUserAgent = "paydesk-console/1.0"
)

// Client calls the billing backend's REST API.
// Zero value is not usable; use New.
type Client struct {
	baseURL    string
	http       *http.Client
	session    Session
	breaker    *CircuitBreaker
	backoff    Backoff
	maxRetries int
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithSession(s Session) Option {
	return func(c *Client) { c.session = s }
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		if cb != nil {
			c.breaker = cb
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithMaxRetries bounds retries of idempotent (GET) requests. POSTs are never retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client from cfg. Credentials in cfg build the default
// session: a refreshable token pair when a refresh token is present,
// otherwise a static bearer token.
func New(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("billing api: invalid base url %q", cfg.BaseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: requestid.Transport{Base: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			}},
		},
		breaker:    NewCircuitBreaker(cfg.CircuitFailures, 1, cfg.CircuitRecovery),
		backoff:    ExponentialBackoff{JitterFactor: 0.1},
		maxRetries: max(cfg.MaxRetries, 0),
		timeout:    cfg.Timeout,
		userAgent:  defaultUserAgent,
		logger:     logger.Discard(),
	}
	if c.timeout <= 0 {
		c.timeout = 15 * time.Second
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.session.Tokens == nil {
		switch {
		case cfg.RefreshToken != "":
			c.session.Tokens = NewTokens(c.baseURL, cfg.AccessToken, cfg.RefreshToken, c.http)
		case cfg.AccessToken != "":
			c.session.Tokens = StaticSession(cfg.AccessToken, "").Tokens
		}
	}
	if c.session.APIKey == "" {
		c.session.APIKey = cfg.APIKey
	}
	if c.session.TenantID == "" {
		c.session.TenantID = cfg.TenantID
	}
	return c, nil
}

// ForSession returns a copy of the client acting for s. The copy shares the
// connection pool and circuit breaker.
func (c *Client) ForSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	endpoint := joinURL(c.baseURL, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(c.backoff.NextInterval(attempt - 1)):
			}
		}

		if !c.breaker.Allow() {
			return ErrCircuitOpen
		}

		start := time.Now()
		err := c.exchange(ctx, method, endpoint, payload, out)
		if err != nil && ctx.Err() != nil {
			// caller gave up; says nothing about backend health
			return errors.Join(err, ctx.Err())
		}

		if retryable(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.DebugContext(ctx, "billing api request failed",
			slog.String("method", method),
			slog.String("path", path),
			logger.Attempt(attempt),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

// exchange performs one request, refreshing the bearer token once on 401.
func (c *Client) exchange(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	tok, err := c.token()
	if err != nil {
		return err
	}

	status, body, err := c.roundTrip(ctx, method, endpoint, payload, tok)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if r, ok := c.session.Tokens.(Refresher); ok {
			fresh, rerr := r.Refresh(ctx, tok)
			if rerr != nil {
				return fmt.Errorf("%w: %w", newAPIError(status, body), rerr)
			}
			if status, body, err = c.roundTrip(ctx, method, endpoint, payload, fresh); err != nil {
				return err
			}
		}
	}

	if status < 200 || status >= 300 {
		return newAPIError(status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte, tok *oauth2.Token) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != nil {
		tok.SetAuthHeader(req)
	}
	if c.session.APIKey != "" {
		req.Header.Set("X-API-Key", c.session.APIKey)
	}
	if c.session.TenantID != "" {
		req.Header.Set("X-Tenant-ID", c.session.TenantID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, nil, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading body: %w", ErrTemporaryFailure, err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) token() (*oauth2.Token, error) {
	if c.session.Tokens == nil {
		return nil, nil
	}
	tok, err := c.session.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return tok, nil
}

// retryable reports transport failures, timeouts and retryable statuses.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTemporaryFailure)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
