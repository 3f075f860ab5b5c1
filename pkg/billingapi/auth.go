package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

const refreshPath = "/auth/tenants/token/refresh/"

// Session is the caller identity the client acts for. It is passed in
// explicitly rather than read from ambient storage.
type Session struct {
	// Tokens supplies bearer tokens. A source that also implements Refresher
	// is asked for a new token once when the API answers 401.
	Tokens   oauth2.TokenSource
	APIKey   string
	TenantID string
}

// Refresher is a token source that can replace a rejected token.
type Refresher interface {
	Refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error)
}

// StaticSession authenticates with a fixed access token.
func StaticSession(accessToken, apiKey string) Session {
	s := Session{APIKey: apiKey}
	if accessToken != "" {
		s.Tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	}
	return s
}

// Tokens holds the billing API's JWT access/refresh pair. It satisfies
// oauth2.TokenSource and Refresher and is safe for concurrent use.
type Tokens struct {
	mu        sync.Mutex
	access    string
	refresh   string
	endpoint  string
	client    *http.Client
	onRefresh func(access string)
}

// NewTokens creates a token pair that refreshes against baseURL.
func NewTokens(baseURL, access, refresh string, client *http.Client) *Tokens {
	if client == nil {
		client = http.DefaultClient
	}
	return &Tokens{
		access:   access,
		refresh:  refresh,
		endpoint: joinURL(baseURL, refreshPath),
		client:   client,
	}
}

// OnRefresh registers a callback receiving every newly issued access token.
func (t *Tokens) OnRefresh(fn func(access string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRefresh = fn
}

// Token returns the current access token, refreshing first when only a refresh token is held.
func (t *Tokens) Token() (*oauth2.Token, error) {
	t.mu.Lock()
	access, refresh := t.access, t.refresh
	t.mu.Unlock()

	if access != "" {
		return bearer(access), nil
	}
	if refresh == "" {
		return nil, ErrNoAccessToken
	}
	return t.Refresh(context.Background(), nil)
}

// Refresh exchanges the refresh token for a new access token. When another
// caller already replaced stale, the current token is returned without a request.
func (t *Tokens) Refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stale != nil && t.access != "" && t.access != stale.AccessToken {
		return bearer(t.access), nil
	}
	if t.refresh == "" {
		return nil, ErrNoRefreshToken
	}

	body, err := json.Marshal(map[string]string{"refresh": t.refresh})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token refresh: %w", newAPIError(resp.StatusCode, raw))
	}

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Access == "" {
		return nil, fmt.Errorf("%w: token refresh returned no access token", ErrInvalidResponse)
	}

	t.access = out.Access
	if out.Refresh != "" {
		t.refresh = out.Refresh
	}
	if t.onRefresh != nil {
		t.onRefresh(out.Access)
	}
	return bearer(t.access), nil
}

func bearer(access string) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
}
