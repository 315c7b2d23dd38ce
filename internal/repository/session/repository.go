package session

import (
	"context"
	"time"

	"orderledger/internal/domain"
)

// Session is a database-backed sign-in issued by the identity provider.
type Session struct {
	Token   string
	UserID  string
	Expires time.Time
}

// Repository reads sessions and the users behind them.
type Repository interface {
	Create(ctx context.Context, s Session) error
	// Lookup returns the identity bound to an unexpired session token.
	Lookup(ctx context.Context, token string) (*domain.Identity, error)
	Delete(ctx context.Context, token string) error
	UpsertUser(ctx context.Context, id domain.Identity) error
}
