package session

import (
	"context"
	"errors"

	"orderledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, s Session) error {
	const q = `
INSERT INTO sessions (session_token, user_id, expires)
VALUES ($1, $2, $3)
`
	_, err := r.pool.Exec(ctx, q, s.Token, s.UserID, s.Expires)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return domain.ErrAlreadyExists
			case "23503":
				return domain.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresRepo) Lookup(ctx context.Context, token string) (*domain.Identity, error) {
	const q = `
SELECT u.id, u.name, u.email, u.image
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.session_token = $1 AND s.expires > now()
LIMIT 1
`
	var id domain.Identity
	if err := r.pool.QueryRow(ctx, q, token).Scan(&id.UserID, &id.Name, &id.Email, &id.Image); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &id, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_token = $1`, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpsertUser(ctx context.Context, id domain.Identity) error {
	const q = `
INSERT INTO users (id, name, email, image)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    email = EXCLUDED.email,
    image = EXCLUDED.image
`
	_, err := r.pool.Exec(ctx, q, id.UserID, id.Name, id.Email, id.Image)
	return err
}
