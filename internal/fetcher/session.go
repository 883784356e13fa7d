package fetcher

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/IshaanNene/wantedcrawl/internal/config"
)

// SessionManager owns the cookie jar and seeds the configured session
// cookies for every host the first time it is requested.
type SessionManager struct {
	jar     *cookiejar.Jar
	cookies []config.Cookie
	seeded  map[string]struct{}
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(cookies []config.Cookie, logger *slog.Logger) (*SessionManager, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &SessionManager{
		jar:     jar,
		cookies: cookies,
		seeded:  make(map[string]struct{}),
		logger:  logger.With("component", "session_manager"),
	}, nil
}

// Jar returns the shared cookie jar.
func (sm *SessionManager) Jar() http.CookieJar {
	return sm.jar
}

// Seed installs the configured cookies for u's host unless already done.
// Cookies set later by the server take precedence over the seeds.
func (sm *SessionManager) Seed(u *url.URL) {
	if len(sm.cookies) == 0 || u == nil {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	host := u.Hostname()
	if _, ok := sm.seeded[host]; ok {
		return
	}
	sm.seeded[host] = struct{}{}

	cookies := make([]*http.Cookie, 0, len(sm.cookies))
	for _, c := range sm.cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	sm.jar.SetCookies(&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, cookies)
	sm.logger.Debug("session cookies seeded", "host", host, "count", len(cookies))
}

