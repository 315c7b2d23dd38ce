package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/domain"
)

type stubSessions struct {
	byToken map[string]domain.Identity
	calls   int
	err     error
}

func (s *stubSessions) Lookup(_ context.Context, token string) (*domain.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.byToken[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &id, nil
}

type memoryCache struct {
	entries map[string]domain.Identity
}

func (m *memoryCache) Get(_ context.Context, token string) (*domain.Identity, error) {
	id, ok := m.entries[token]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &id, nil
}

func (m *memoryCache) Set(_ context.Context, token string, id domain.Identity, _ time.Duration) error {
	m.entries[token] = id
	return nil
}

func requestWithCookie(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func TestSessionProvider(t *testing.T) {
	sessions := &stubSessions{byToken: map[string]domain.Identity{
		"tok-1": {UserID: "u1", Email: "owner@shop.test"},
	}}
	p := NewSessionProvider(sessions, nil, 0)

	id, err := p.CurrentUser(requestWithCookie(SessionCookie, "tok-1"))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)

	id, err = p.CurrentUser(requestWithCookie(SecureSessionCookie, "tok-1"))
	require.NoError(t, err)
	require.NotNil(t, id)

	id, err = p.CurrentUser(requestWithCookie(SessionCookie, "expired"))
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = p.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestSessionProviderUsesCache(t *testing.T) {
	sessions := &stubSessions{byToken: map[string]domain.Identity{"tok": {UserID: "u1"}}}
	cache := &memoryCache{entries: map[string]domain.Identity{}}
	p := NewSessionProvider(sessions, cache, time.Minute)

	for range 3 {
		id, err := p.CurrentUser(requestWithCookie(SessionCookie, "tok"))
		require.NoError(t, err)
		require.NotNil(t, id)
	}
	assert.Equal(t, 1, sessions.calls)
}

func TestSessionProviderSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	p := NewSessionProvider(&stubSessions{err: boom}, nil, 0)
	_, err := p.CurrentUser(requestWithCookie(SessionCookie, "tok"))
	assert.ErrorIs(t, err, boom)
}

func TestJWTProvider(t *testing.T) {
	p := NewJWTProvider("secret")
	name := "Owner"
	token, err := p.Issue(domain.Identity{UserID: "u1", Name: &name, Email: "owner@shop.test"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err := p.CurrentUser(req)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "owner@shop.test", id.Email)
	require.NotNil(t, id.Name)
	assert.Equal(t, "Owner", *id.Name)

	other := NewJWTProvider("other-secret")
	_, err = other.CurrentUser(req)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	expired := NewJWTProvider("secret")
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.CurrentUser(req)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	id, err = p.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestChain(t *testing.T) {
	sessions := NewSessionProvider(&stubSessions{byToken: map[string]domain.Identity{"tok": {UserID: "cookie-user"}}}, nil, 0)
	bearer := NewJWTProvider("secret")
	chain := Chain{sessions, bearer}

	id, err := chain.CurrentUser(requestWithCookie(SessionCookie, "tok"))
	require.NoError(t, err)
	assert.Equal(t, "cookie-user", id.UserID)

	token, err := bearer.Issue(domain.Identity{UserID: "token-user"}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err = chain.CurrentUser(req)
	require.NoError(t, err)
	assert.Equal(t, "token-user", id.UserID)

	id, err = chain.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, id)
}
