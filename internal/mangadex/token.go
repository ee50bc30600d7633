package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/denshikawa/go-manga-backend/internal/config"
)

// tokenLifetime is how long an issued access token is trusted before a
// refresh is forced. The upstream issues 15-minute tokens; the one-minute
// margin absorbs clock skew and in-flight latency.
const tokenLifetime = 14 * time.Minute

// credentials is the process-local upstream credential pair. It is replaced
// wholesale on every grant so readers never observe a half-written state.
type credentials struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// tokenManager owns the credential lifecycle for the identity endpoint:
// resource-owner password grant, refresh grant with re-authentication
// fallback, and expiry tracking. grantMu serializes identity-endpoint calls
// so concurrent expiries trigger one grant rather than a stampede; mu guards
// the stored credential pair and is never held across network I/O, keeping
// Token reads non-blocking while a grant is in flight.
//
// When no credential set is configured the manager is inert and the client
// operates unauthenticated.
type tokenManager struct {
	http *http.Client
	cfg  config.MangaDexConfig
	now  func() time.Time

	grantMu sync.Mutex

	mu    sync.Mutex
	creds *credentials
}

func newTokenManager(cfg config.MangaDexConfig, httpClient *http.Client, now func() time.Time) *tokenManager {
	return &tokenManager{http: httpClient, cfg: cfg, now: now}
}

// Token returns the current access token, if any. Safe for concurrent use.
func (m *tokenManager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return "", false
	}
	return m.creds.accessToken, true
}

// snapshot returns the current credential pair. The pointee is never mutated
// after publication, so the pointer is safe to use outside the lock.
func (m *tokenManager) snapshot() *credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds
}

func (m *tokenManager) store(c *credentials) {
	m.mu.Lock()
	m.creds = c
	m.mu.Unlock()
}

// EnsureValid makes sure a usable credential exists before a request goes
// out. No-op without configured credentials; authenticates from scratch when
// none are held; refreshes when the held pair has reached its expiry.
func (m *tokenManager) EnsureValid(ctx context.Context) error {
	if !m.cfg.HasCredentials() {
		return nil
	}
	if creds := m.snapshot(); creds != nil && m.now().Before(creds.expiresAt) {
		return nil
	}

	m.grantMu.Lock()
	defer m.grantMu.Unlock()

	// Another request may have renewed the pair while we waited for the lock.
	creds := m.snapshot()
	switch {
	case creds == nil:
		return m.authenticate(ctx)
	case !m.now().Before(creds.expiresAt):
		return m.refresh(ctx, creds)
	}
	return nil
}

// HandleUnauthorized reacts to a 401 observed mid-flight: one refresh cycle,
// falling back to a fresh password grant if the refresh is rejected. The
// caller signals a transient failure afterwards so the retry engine re-issues
// the request with the renewed credential; this method never retries the
// original request itself.
func (m *tokenManager) HandleUnauthorized(ctx context.Context) error {
	if !m.cfg.HasCredentials() {
		return nil
	}
	m.grantMu.Lock()
	defer m.grantMu.Unlock()
	return m.refresh(ctx, m.snapshot())
}

// authenticate performs the resource-owner password grant. Caller holds grantMu.
func (m *tokenManager) authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {m.cfg.Username},
		"password":      {m.cfg.Password},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
	}

	tok, err := m.postForm(ctx, form)
	if err != nil {
		return err
	}

	m.store(&credentials{
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiresAt:    m.now().Add(tokenLifetime),
	})
	return nil
}

// refresh exchanges the given refresh token for a new pair. On any failure
// the credential state is cleared and a full re-authentication is attempted.
// Caller holds grantMu.
func (m *tokenManager) refresh(ctx context.Context, creds *credentials) error {
	if creds == nil || creds.refreshToken == "" {
		return m.authenticate(ctx)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.refreshToken},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
	}

	tok, err := m.postForm(ctx, form)
	if err != nil {
		m.store(nil)
		return m.authenticate(ctx)
	}

	next := &credentials{
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiresAt:    m.now().Add(tokenLifetime),
	}
	// The upstream may keep the refresh token unchanged.
	if next.refreshToken == "" {
		next.refreshToken = creds.refreshToken
	}
	m.store(next)
	return nil
}

// postForm submits a grant request to the identity endpoint and decodes the
// token pair. All failure modes map to ErrAuthenticationFailed.
func (m *tokenManager) postForm(ctx context.Context, form url.Values) (tokenResponse, error) {
	var out tokenResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", m.cfg.UserAgent)

	resp, err := m.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return out, fmt.Errorf("%w: identity endpoint returned HTTP %d: %s",
			ErrAuthenticationFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("%w: undecodable token response", ErrAuthenticationFailed)
	}
	if out.AccessToken == "" {
		return out, fmt.Errorf("%w: token response missing access_token", ErrAuthenticationFailed)
	}
	return out, nil
}
