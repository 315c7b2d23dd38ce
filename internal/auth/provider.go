package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"orderledger/internal/domain"
)

// Session cookie names written by the sign-in flow. The secure variant is
// used when the dashboard is served over HTTPS.
const (
	SessionCookie       = "authjs.session-token"
	SecureSessionCookie = "__Secure-authjs.session-token"
)

// Provider resolves the identity behind a request. It returns nil, nil for
// anonymous requests.
type Provider interface {
	CurrentUser(r *http.Request) (*domain.Identity, error)
}

// SessionLookup resolves an unexpired session token to its user.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*domain.Identity, error)
}

// IdentityCache stores token lookups for a short time.
type IdentityCache interface {
	Get(ctx context.Context, token string) (*domain.Identity, error)
	Set(ctx context.Context, token string, id domain.Identity, ttl time.Duration) error
}

// ErrCacheMiss is returned by IdentityCache.Get when nothing is cached.
var ErrCacheMiss = errors.New("identity cache miss")

// SessionProvider authenticates database-backed session cookies.
type SessionProvider struct {
	sessions SessionLookup
	cache    IdentityCache
	ttl      time.Duration
}

// NewSessionProvider returns a provider reading sessions from lookup. cache
// may be nil.
func NewSessionProvider(lookup SessionLookup, cache IdentityCache, ttl time.Duration) *SessionProvider {
	if ttl <= 0 {
		cache = nil
	}
	return &SessionProvider{sessions: lookup, cache: cache, ttl: ttl}
}

func (p *SessionProvider) CurrentUser(r *http.Request) (*domain.Identity, error) {
	token := sessionToken(r)
	if token == "" {
		return nil, nil
	}
	ctx := r.Context()

	if p.cache != nil {
		if id, err := p.cache.Get(ctx, token); err == nil {
			return id, nil
		}
	}

	id, err := p.sessions.Lookup(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		// A failed cache write only costs a database lookup next time.
		_ = p.cache.Set(ctx, token, *id, p.ttl)
	}
	return id, nil
}

func sessionToken(r *http.Request) string {
	for _, name := range []string{SecureSessionCookie, SessionCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// Chain asks each provider in turn; the first identity found wins.
type Chain []Provider

func (c Chain) CurrentUser(r *http.Request) (*domain.Identity, error) {
	var firstErr error
	for _, p := range c {
		id, err := p.CurrentUser(r)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, firstErr
}
