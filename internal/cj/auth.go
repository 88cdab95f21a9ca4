package cj

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cj-bridge/internal/model"
)

// =============================================================================
// TOKEN LIFECYCLE
// =============================================================================
//
// CJ issues an access token (short-lived) and a refresh token (long-lived).
// CJ may invalidate earlier sessions when logins repeat, so at most one
// login or refresh is in flight per process: every caller that needs a new
// token joins the same singleflight call.
//
//   no tokens                       → login
//   access expired, refresh valid   → refresh (rejected → login)
//   refresh expired                 → login
//   access valid                    → no-op
//
// The shared call runs detached from any one caller's context; a caller that
// gives up only stops waiting.
// =============================================================================

const (
	// accessSkew treats the access token as expired this long before CJ says so.
	accessSkew = 60 * time.Second

	flightKey = "auth"
)

// expiryLayouts are the date formats CJ uses for token expiry.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
}

// Tokens is the cached CJ token pair. Never persisted.
type Tokens struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// TokenManager owns the process-wide CJ token pair. Safe for concurrent use.
type TokenManager struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	tokens Tokens
	group  singleflight.Group
}

// NewTokenManager creates a token manager. baseURL is normalized.
// A nil httpClient gets the 15s Chrome-fingerprint client.
func NewTokenManager(baseURL string, creds Credentials, httpClient *http.Client, logger *slog.Logger) *TokenManager {
	if httpClient == nil {
		httpClient = NewHTTPClient(authTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		baseURL:    NormalizeBaseURL(baseURL),
		creds:      creds,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Tokens returns a copy of the cached pair.
func (m *TokenManager) Tokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

// EnsureValid returns an access token that is valid for at least accessSkew,
// logging in or refreshing first when needed.
func (m *TokenManager) EnsureValid(ctx context.Context) (string, error) {
	if !m.creds.HasLogin() {
		return "", model.NewConfigError("CJ email and password are not configured")
	}
	if token, ok := m.validAccess(); ok {
		return token, nil
	}

	t, err := m.share(ctx, m.renew)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Login obtains a fresh token pair with the configured credentials.
func (m *TokenManager) Login(ctx context.Context) (Tokens, error) {
	if !m.creds.HasLogin() {
		return Tokens{}, model.NewConfigError("CJ email and password are not configured")
	}
	return m.share(ctx, m.login)
}

// Refresh exchanges the cached refresh token for a new pair. A missing or
// rejected refresh token falls back to Login; a transport failure is returned
// and the cached pair is kept.
func (m *TokenManager) Refresh(ctx context.Context) (Tokens, error) {
	if !m.creds.HasLogin() {
		return Tokens{}, model.NewConfigError("CJ email and password are not configured")
	}
	return m.share(ctx, m.refreshOrLogin)
}

// share runs fn as the single in-flight auth operation and waits for it or ctx.
func (m *TokenManager) share(ctx context.Context, fn func(context.Context) (Tokens, error)) (Tokens, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(flightKey, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Tokens{}, res.Err
		}
		return res.Val.(Tokens), nil
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	}
}

// renew is the EnsureValid state machine, run inside the flight.
func (m *TokenManager) renew(ctx context.Context) (Tokens, error) {
	// A flight that finished just before this one started may have renewed already.
	m.mu.Lock()
	cur := m.tokens
	m.mu.Unlock()
	if m.accessValid(cur) {
		return cur, nil
	}
	return m.refreshOrLogin(ctx)
}

func (m *TokenManager) refreshOrLogin(ctx context.Context) (Tokens, error) {
	cur := m.Tokens()
	if cur.RefreshToken == "" || !m.now().Before(cur.RefreshTokenExpiry) {
		return m.login(ctx)
	}

	t, err := m.refresh(ctx, cur.RefreshToken)
	if err == nil {
		return t, nil
	}
	if isTransient(err) {
		m.logger.Warn("CJ token refresh failed, keeping cached tokens", "error", err)
		return Tokens{}, err
	}

	m.logger.Info("CJ refresh token rejected, logging in", "error", err)
	return m.login(ctx)
}

func (m *TokenManager) login(ctx context.Context) (Tokens, error) {
	body := &LoginRequest{Email: m.creds.Email, Password: m.creds.Password}

	var data TokenData
	if err := m.post(ctx, pathLogin, body, &data); err != nil {
		m.logger.Warn("CJ login failed", "error", err)
		if isTransient(err) {
			return Tokens{}, err
		}
		return Tokens{}, model.NewAuthError(model.UserMessage(supplierCause(err)))
	}
	if data.AccessToken == "" {
		return Tokens{}, model.NewAuthError("empty access token")
	}

	t := m.store(data)
	m.logger.Info("CJ login succeeded", "access_expires", t.AccessTokenExpiry)
	return t, nil
}

func (m *TokenManager) refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	body := &RefreshRequest{RefreshToken: refreshToken}

	var data TokenData
	if err := m.post(ctx, pathRefresh, body, &data); err != nil {
		return Tokens{}, fmt.Errorf("refreshing token: %w", err)
	}
	if data.AccessToken == "" {
		return Tokens{}, model.NewSupplierError("empty access token from refresh")
	}

	t := m.store(data)
	m.logger.Info("CJ token refreshed", "access_expires", t.AccessTokenExpiry)
	return t, nil
}

func (m *TokenManager) post(ctx context.Context, path string, body, out any) error {
	req, err := newRequest(ctx, http.MethodPost, m.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	return do(m.httpClient, req, out)
}

// store replaces the cached pair. A refresh response without a new refresh
// token keeps the old one.
func (m *TokenManager) store(data TokenData) Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Tokens{
		AccessToken:        data.AccessToken,
		AccessTokenExpiry:  parseExpiry(data.AccessTokenExpiryDate),
		RefreshToken:       data.RefreshToken,
		RefreshTokenExpiry: parseExpiry(data.RefreshTokenExpiryDate),
	}
	if t.RefreshToken == "" {
		t.RefreshToken = m.tokens.RefreshToken
		t.RefreshTokenExpiry = m.tokens.RefreshTokenExpiry
	}
	m.tokens = t
	return t
}

func (m *TokenManager) validAccess() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accessValid(m.tokens) {
		return m.tokens.AccessToken, true
	}
	return "", false
}

func (m *TokenManager) accessValid(t Tokens) bool {
	return t.AccessToken != "" && m.now().Add(accessSkew).Before(t.AccessTokenExpiry)
}

// parseExpiry parses a CJ expiry date. Unparsable dates count as already expired.
func parseExpiry(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// isTransient reports whether err is a transport failure that says nothing
// about the credentials: network errors, timeouts, 5xx and rate limiting.
func isTransient(err error) bool {
	if errors.Is(err, model.ErrRateLimited) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return model.IsUpstream(err)
}

// supplierCause returns the supplier's message-bearing error when there is one.
func supplierCause(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return errors.New(se.Message)
	}
	return err
}
