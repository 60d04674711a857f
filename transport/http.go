package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pathLogin          = "Auth/login"
	pathVerify2FA      = "Auth/verify-2FA"
	pathLogout         = "Auth/logout"
	pathRefresh        = "auth/refresh-login"
	pathSendInvite     = "Admin/sendInvite"
	pathRegisterOpen   = "User/Register"
	pathRegisterInvite = "User/register/"
	pathProfile        = "User/UserProfile"
	pathChangePassword = "User/ChangePassword"
)

const defaultTimeout = 30 * time.Second

// maxBodyBytes bounds response reads; auth payloads are tiny.
const maxBodyBytes = 1 << 20

// Config configures an HTTP transport.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/". Endpoint
	// paths are resolved relative to it.
	BaseURL string

	// Timeout applies per request when Client is nil. Zero means 30s.
	Timeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// Client overrides the underlying HTTP client. A cookie jar is
	// installed if the client has none, since the backend session lives
	// in a cookie.
	Client *http.Client

	// Logger receives debug-level request traces. Nil disables tracing.
	Logger *zap.Logger
}

// HTTP is the production Transport. It is safe for concurrent use; the
// cookie jar is the only mutable state and net/http guards it.
type HTTP struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTP validates cfg and builds the transport.
func NewHTTP(cfg Config) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("transport: base URL required")
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if !base.IsAbs() {
		return nil, errors.New("transport: base URL must be absolute")
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTP{
		base:      base,
		client:    client,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}, nil
}

// Login posts the password step. A "2FA required" message in the response
// turns into a challenge-pending result carrying the temp token.
func (t *HTTP) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp struct {
		Message   string `json:"message"`
		TempToken string `json:"tempToken"`
		Role      string `json:"rol"`
		ID        flexID `json:"id"`
	}
	if err := t.call(ctx, http.MethodPost, pathLogin, body, &resp); err != nil {
		return nil, err
	}

	result := &LoginResult{
		Role:   resp.Role,
		UserID: resp.ID.String(),
	}
	if resp.Message == "2FA required" {
		result.SecondFactorRequired = true
		result.TempToken = resp.TempToken
		result.ExpiresAt = tokenExpiry(resp.TempToken)
	}
	return result, nil
}

// VerifySecondFactor confirms a pending challenge. An expired or unknown
// temp token is an ordinary failure, never a panic or raw error.
func (t *HTTP) VerifySecondFactor(ctx context.Context, tempToken, code string) (*VerifyResult, error) {
	body := struct {
		TempToken string `json:"tempToken"`
		Code      string `json:"code"`
	}{TempToken: tempToken, Code: code}

	var resp struct {
		Role string `json:"rol"`
	}
	if err := t.call(ctx, http.MethodPost, pathVerify2FA, body, &resp); err != nil {
		return nil, err
	}
	return &VerifyResult{Role: resp.Role}, nil
}

// Refresh re-authenticates from the session cookie alone. Any failure means
// the cookie is no longer honored and surfaces as ErrUnauthorized; a failed
// refresh never mutates transport state, so a still-valid session is not
// harmed by calling it speculatively.
func (t *HTTP) Refresh(ctx context.Context) (*RefreshResult, error) {
	var resp struct {
		Role string `json:"rol"`
		ID   flexID `json:"id"`
	}
	if err := t.call(ctx, http.MethodPost, pathRefresh, nil, &resp); err != nil {
		if errors.Is(err, ErrRequestFailed) {
			return nil, err
		}
		return nil, ErrUnauthorized
	}
	if resp.Role == "" && resp.ID.String() == "" {
		return nil, ErrUnauthorized
	}
	return &RefreshResult{Role: resp.Role, UserID: resp.ID.String()}, nil
}

// Logout invalidates the server-side session. Success is carried by the
// HTTP status alone.
func (t *HTTP) Logout(ctx context.Context) error {
	return t.call(ctx, http.MethodPost, pathLogout, nil, nil)
}

// Register submits a registration. A non-empty invite token routes to the
// invite-scoped endpoint, otherwise to open self-registration.
func (t *HTTP) Register(ctx context.Context, inviteToken, email, username, password string) error {
	path := pathRegisterOpen
	if inviteToken != "" {
		path = pathRegisterInvite + url.PathEscape(inviteToken)
	}
	body := struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}{Email: email, Username: username, Password: password}

	return t.call(ctx, http.MethodPost, path, body, nil)
}

// SendInvite posts the invitee email. The body is the bare JSON-encoded
// string; role checks happen server-side.
func (t *HTTP) SendInvite(ctx context.Context, email string) error {
	return t.call(ctx, http.MethodPost, pathSendInvite, email, nil)
}

// ChangePassword submits a password change for the authenticated session.
func (t *HTTP) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := struct {
		CurrentPassword string `json:"CurrentPassword"`
		NewPassword     string `json:"NewPassword"`
	}{CurrentPassword: currentPassword, NewPassword: newPassword}

	return t.call(ctx, http.MethodPost, pathChangePassword, body, nil)
}

// Profile fetches the authenticated identity document. A missing or invalid
// session cookie surfaces as ErrUnauthorized; the backend signals an
// unauthenticated fetch with a 200 and an empty array instead of a status,
// so any non-object body counts as no identity.
func (t *HTTP) Profile(ctx context.Context) (*Profile, error) {
	var raw json.RawMessage
	if err := t.call(ctx, http.MethodGet, pathProfile, nil, &raw); err != nil {
		if errors.Is(err, ErrRequestFailed) {
			return nil, err
		}
		return nil, ErrUnauthorized
	}

	body := bytes.TrimSpace(raw)
	if len(body) == 0 || body[0] != '{' {
		return nil, ErrUnauthorized
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrRequestFailed
	}
	if p.UserID == "" && p.Role == "" {
		return nil, ErrUnauthorized
	}
	return &p, nil
}

// ExportCookies returns the jar's cookies for the API origin, for opaque
// persistence. Values are never interpreted.
func (t *HTTP) ExportCookies() []*http.Cookie {
	return t.client.Jar.Cookies(t.base)
}

// RestoreCookies seeds the jar with previously exported cookies.
func (t *HTTP) RestoreCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	t.client.Jar.SetCookies(t.base, cookies)
}

// call performs one JSON round trip and folds every failure into the
// package error taxonomy.
func (t *HTTP) call(ctx context.Context, method, path string, body, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return ErrRequestFailed
	}
	target := t.base.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return ErrRequestFailed
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return ErrRequestFailed
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("auth request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return ErrRequestFailed
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		t.logger.Debug("auth response unreadable",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return ErrRequestFailed
	}

	t.logger.Debug("auth request",
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failureFromResponse(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ErrRequestFailed
	}
	return nil
}

// failureFromResponse maps a non-2xx response onto the error taxonomy.
// 401/403 always mean the session is not honored; anything else carries the
// backend's error text when the body yields one.
func failureFromResponse(status int, data []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrUnauthorized
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return ErrRequestFailed
	}

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err != nil {
		// Structured error payload; pass it through verbatim.
		msg = string(envelope.Error)
	}
	if msg == "" {
		return ErrRequestFailed
	}
	return &ValidationError{Message: msg}
}

// tokenExpiry extracts the exp claim from a JWT-shaped token without
// verifying it. The expiry is advisory only — scheduling hint, never an
// authorization decision. Returns zero when the token is absent or not a
// parseable JWT.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
