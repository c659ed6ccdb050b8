// package session reads and writes the cookie-based session used to talk to the snapshot backend.
package session

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ssx/internal/shared"
)

// Cookie names set by the backend at login, plus the pseudo-cookie holding the username.
const (
	CookieSessionID    = "spotilizer-user-id"
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieUsername     = "spotilizer-username"
)

// Cookie is a stored cookie. A zero ExpiresAt never expires.
type Cookie struct {
	Name      string
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the cookie is past its expiry at now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// CookieStore persists cookies by name.
//
// Get returns (nil, nil) for an unknown name.
type CookieStore interface {
	Get(name string) (*Cookie, error)
	Put(c Cookie) error
	Delete(name string) error
	All() ([]Cookie, error)
}

// MemoryStore is a [CookieStore] held in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	cookies map[string]Cookie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cookies: make(map[string]Cookie)}
}

func (m *MemoryStore) Get(name string) (*Cookie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cookies[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) Put(c Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[c.Name] = c
	return nil
}

func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, name)
	return nil
}

func (m *MemoryStore) All() ([]Cookie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]Cookie, 0, len(m.cookies))
	for _, c := range m.cookies {
		all = append(all, c)
	}
	return all, nil
}

// Accessor exposes the session cookies to the rest of the client.
//
// It also serves as the [http.CookieJar] for backend requests and as the
// [oauth2.TokenSource] for bearer tokens.
type Accessor struct {
	store      CookieStore
	host       string
	username   string
	cookieDays int
	logger     *log.Logger
	now        func() time.Time
}

// Option configures an [Accessor].
type Option func(*Accessor)

// WithUsername sets the externally supplied username paired with the session cookie.
func WithUsername(username string) Option {
	return func(a *Accessor) { a.username = username }
}

// WithBaseURL restricts jar cookies to the backend host.
func WithBaseURL(baseURL string) Option {
	return func(a *Accessor) {
		if u, err := url.Parse(baseURL); err == nil {
			a.host = u.Hostname()
		}
	}
}

// WithCookieDays sets the lifetime of cookies created through the jar or an import.
func WithCookieDays(days int) Option {
	return func(a *Accessor) { a.cookieDays = days }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Accessor) { a.now = now }
}

// NewAccessor creates an [Accessor] backed by store. A nil store uses a [MemoryStore].
func NewAccessor(store CookieStore, logger *log.Logger, opts ...Option) *Accessor {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	a := &Accessor{store: store, cookieDays: 1, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cookie returns the decoded value of the named cookie, or "" when it is missing or expired.
func (a *Accessor) Cookie(name string) string {
	c, err := a.store.Get(name)
	if err != nil {
		a.logger.Warn("failed to read cookie", "name", name, "error", err)
		return ""
	}
	if c == nil || c.Expired(a.now()) {
		return ""
	}
	if v, err := url.PathUnescape(c.Value); err == nil {
		return v
	}
	return c.Value
}

// SetCookie stores a cookie valid for daysValid days.
func (a *Accessor) SetCookie(name, value string, daysValid int) error {
	a.logger.Debug("setting cookie to new value", "name", name)
	expires := a.now().Add(time.Duration(daysValid) * 24 * time.Hour)
	if err := a.store.Put(Cookie{Name: name, Value: value, ExpiresAt: expires}); err != nil {
		return fmt.Errorf("failed to set cookie %s: %w", name, err)
	}
	return nil
}

// EraseCookie invalidates the named cookie immediately.
func (a *Accessor) EraseCookie(name string) error {
	if err := a.store.Delete(name); err != nil {
		return fmt.Errorf("failed to erase cookie %s: %w", name, err)
	}
	return nil
}

// Logout erases the session identifier. Tokens are left for the backend to expire.
func (a *Accessor) Logout() error {
	return a.EraseCookie(CookieSessionID)
}

// Username returns the configured username, falling back to the stored one.
func (a *Accessor) Username() string {
	if a.username != "" {
		return a.username
	}
	return a.Cookie(CookieUsername)
}

// SessionID returns the session identifier cookie.
func (a *Accessor) SessionID() string {
	return a.Cookie(CookieSessionID)
}

// IsLoggedIn reports whether both a session identifier and a username are present.
func (a *Accessor) IsLoggedIn() bool {
	return a.SessionID() != "" && a.Username() != ""
}

// Token returns the bearer token held in the session cookies.
//
// It returns [shared.ErrNotLoggedIn] when no access token is stored.
func (a *Accessor) Token() (*oauth2.Token, error) {
	access := a.Cookie(CookieAccessToken)
	if access == "" {
		return nil, shared.ErrNotLoggedIn
	}

	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: a.Cookie(CookieRefreshToken),
		TokenType:    "Bearer",
	}
	if c, err := a.store.Get(CookieAccessToken); err == nil && c != nil {
		tok.Expiry = c.ExpiresAt
	}
	return tok, nil
}

// UpdateTokens stores a new access token and, when non-empty, a new refresh token.
func (a *Accessor) UpdateTokens(access, refresh string) error {
	if access == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}
	if err := a.SetCookie(CookieAccessToken, access, a.cookieDays); err != nil {
		return err
	}
	if refresh != "" {
		return a.SetCookie(CookieRefreshToken, refresh, a.cookieDays)
	}
	return nil
}

// SetCookies implements [http.CookieJar]. Cookies with a negative MaxAge or a past
// expiry are erased.
func (a *Accessor) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if !a.matches(u) {
		return
	}
	now := a.now()
	for _, hc := range cookies {
		if hc.MaxAge < 0 || (!hc.Expires.IsZero() && !hc.Expires.After(now)) {
			if err := a.EraseCookie(hc.Name); err != nil {
				a.logger.Warn("failed to erase cookie from response", "name", hc.Name, "error", err)
			}
			continue
		}

		c := Cookie{Name: hc.Name, Value: hc.Value, ExpiresAt: hc.Expires}
		if hc.MaxAge > 0 {
			c.ExpiresAt = now.Add(time.Duration(hc.MaxAge) * time.Second)
		}
		if err := a.store.Put(c); err != nil {
			a.logger.Warn("failed to store cookie from response", "name", hc.Name, "error", err)
		}
	}
}

// Cookies implements [http.CookieJar].
func (a *Accessor) Cookies(u *url.URL) []*http.Cookie {
	if !a.matches(u) {
		return nil
	}
	all, err := a.store.All()
	if err != nil {
		a.logger.Warn("failed to list cookies", "error", err)
		return nil
	}

	now := a.now()
	cookies := make([]*http.Cookie, 0, len(all))
	for _, c := range all {
		if c.Name == CookieUsername || c.Expired(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}

func (a *Accessor) matches(u *url.URL) bool {
	return a.host == "" || u == nil || strings.EqualFold(u.Hostname(), a.host)
}

// ImportCurl seeds the session from a browser "Copy as cURL" command and returns the
// number of cookies imported. The command must carry the session identifier.
func (a *Accessor) ImportCurl(data []byte) (int, error) {
	parsed, err := shared.ParseCurlCommand(data)
	if err != nil {
		return 0, err
	}

	cookies := parsed.Cookies()
	if cookies[CookieSessionID] == "" {
		return 0, fmt.Errorf("%w: curl command has no %s cookie", shared.ErrInvalidInput, CookieSessionID)
	}

	for name, value := range cookies {
		if err := a.SetCookie(name, value, a.cookieDays); err != nil {
			return 0, err
		}
	}
	a.logger.Info("imported session cookies", "count", len(cookies), "url", parsed.URL)
	return len(cookies), nil
}
