package customer

import (
	"context"
	"errors"
	"strconv"

	"orderledger/internal/db"
	"orderledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("customer_repo")}
}

const customerColumns = `id, name, address, phone_number, email, created_at, updated_at`

const matchCustomer = `(name ILIKE $1 OR email ILIKE $1 OR phone_number ILIKE $1)`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (name, address, phone_number, email)
VALUES ($1, $2, $3, $4)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, c.Name, c.Address, c.PhoneNumber, c.Email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id domain.ID) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, int64(id)))
	if err != nil {
		return nil, err
	}
	cards, err := r.visitingCards(ctx, []domain.ID{c.ID})
	if err != nil {
		return nil, err
	}
	c.VisitingCards = cards[c.ID]
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, q domain.CustomerQuery) ([]domain.Customer, int, error) {
	where := "TRUE"
	args := []any{}
	if q.Search != "" {
		where = matchCustomer
		args = append(args, db.ContainsPattern(q.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM customers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT ` + customerColumns + ` FROM customers WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	rows, err := r.pool.Query(ctx, listQuery, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	customers, err := r.collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	if len(customers) == 0 {
		return customers, total, nil
	}

	ids := make([]domain.ID, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}
	cards, err := r.visitingCards(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.recentOrders(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range customers {
		customers[i].VisitingCards = cards[customers[i].ID]
		customers[i].Orders = orders[customers[i].ID]
	}
	return customers, total, nil
}

func (r *postgresRepo) Search(ctx context.Context, term string, limit int) ([]domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE ` + matchCustomer + `
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.pool.Query(ctx, q, db.ContainsPattern(term), limit)
	if err != nil {
		return nil, err
	}
	return r.collectCustomers(rows)
}

func (r *postgresRepo) Update(ctx context.Context, id domain.ID, f domain.CustomerFields) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET name = COALESCE($2, name),
    address = CASE WHEN $3::text IS NULL THEN address ELSE NULLIF($3, '') END,
    phone_number = CASE WHEN $4::text IS NULL THEN phone_number ELSE NULLIF($4, '') END,
    email = CASE WHEN $5::text IS NULL THEN email ELSE NULLIF($5, '') END,
    updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id, f.Name, f.Address, f.PhoneNumber, f.Email))
}

func (r *postgresRepo) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddVisitingCard(ctx context.Context, customerID domain.ID, imageURL string) (*domain.VisitingCard, error) {
	const q = `
INSERT INTO customer_visiting_cards (customer_id, image_url)
VALUES ($1, $2)
RETURNING id, customer_id, image_url, uploaded_at
`
	var card domain.VisitingCard
	err := r.pool.QueryRow(ctx, q, customerID, imageURL).Scan(&card.ID, &card.CustomerID, &card.ImageURL, &card.UploadedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("insert visiting card", zap.Stringer("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	return &card, nil
}

func (r *postgresRepo) visitingCards(ctx context.Context, ids []domain.ID) (map[domain.ID][]domain.VisitingCard, error) {
	const q = `
SELECT id, customer_id, image_url, uploaded_at
FROM customer_visiting_cards
WHERE customer_id = ANY($1)
ORDER BY uploaded_at, id
`
	rows, err := r.pool.Query(ctx, q, db.Int64s(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.ID][]domain.VisitingCard, len(ids))
	for rows.Next() {
		var card domain.VisitingCard
		if err := rows.Scan(&card.ID, &card.CustomerID, &card.ImageURL, &card.UploadedAt); err != nil {
			return nil, err
		}
		out[card.CustomerID] = append(out[card.CustomerID], card)
	}
	return out, rows.Err()
}

func (r *postgresRepo) recentOrders(ctx context.Context, ids []domain.ID) (map[domain.ID][]domain.Order, error) {
	const q = `
SELECT id, order_number, customer_id, notes, audio_url, status::text, bill_number, transport_name, created_at, updated_at
FROM (
    SELECT o.*, row_number() OVER (PARTITION BY o.customer_id ORDER BY o.created_at DESC, o.id DESC) AS rn
    FROM orders o
    WHERE o.customer_id = ANY($1)
) ranked
WHERE rn <= $2
ORDER BY customer_id, created_at DESC, id DESC
`
	rows, err := r.pool.Query(ctx, q, db.Int64s(ids), RecentOrdersPerCustomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.ID][]domain.Order, len(ids))
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.CustomerID,
			&o.Notes,
			&o.AudioURL,
			&o.Status,
			&o.BillNumber,
			&o.TransportName,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out[o.CustomerID] = append(out[o.CustomerID], o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) collectCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	defer rows.Close()
	customers := []domain.Customer{}
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.PhoneNumber,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("scan customer", zap.Error(err))
		return nil, err
	}
	return &c, nil
}
