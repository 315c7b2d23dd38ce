package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"orderledger/internal/db"
	"orderledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	orderColumns = `o.id, o.order_number, o.customer_id, o.notes, o.audio_url, o.status::text,
       o.bill_number, o.transport_name, o.created_at, o.updated_at`
	customerColumns = `c.id, c.name, c.address, c.phone_number, c.email, c.created_at, c.updated_at`
	imageColumns    = `id, order_id, image_url, remark, type::text, uploaded_at`

	matchOrder = `(o.order_number ILIKE ? OR o.bill_number ILIKE ? OR o.transport_name ILIKE ?
       OR c.name ILIKE ? OR c.email ILIKE ? OR c.phone_number ILIKE ?)`
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

// Create inserts the order and its images in one transaction. The day's
// sequence row is advanced under a per-day advisory lock, so numbers stay
// unique and are never handed out twice, even after orders are deleted.
func (r *postgresRepo) Create(ctx context.Context, in domain.NewOrder, n Numbering) (*domain.Order, error) {
	var created *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		day := n.DayStart.Format(time.DateOnly)
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "order_number:"+day); err != nil {
			return fmt.Errorf("lock order day: %w", err)
		}

		// A day without a sequence row starts after the highest number
		// already stored for it.
		var seq int
		if err := tx.QueryRow(ctx, `
INSERT INTO order_number_sequences (day, last)
SELECT $1::text::date, COALESCE(max(substring(order_number from '(\d+)$')::int), 0) + 1
FROM orders
WHERE created_at >= $2 AND created_at <= $3
ON CONFLICT (day) DO UPDATE
SET last = GREATEST(order_number_sequences.last + 1, EXCLUDED.last)
RETURNING last
`, day, n.DayStart, n.DayEnd).Scan(&seq); err != nil {
			return fmt.Errorf("next order sequence: %w", err)
		}

		number := n.Format(seq)
		var id int64
		if err := tx.QueryRow(ctx, `
INSERT INTO orders (order_number, customer_id, notes, audio_url, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'CREATED', $5, $5)
RETURNING id
`, number, int64(in.CustomerID), in.Notes, in.AudioURL, n.Now).Scan(&id); err != nil {
			return translate(err)
		}

		if _, err := insertImages(ctx, tx, domain.ID(id), domain.KindOrderImage, in.Images); err != nil {
			return err
		}

		var err error
		created, err = fetchOrder(ctx, tx, domain.ID(id))
		return err
	})
	if err != nil {
		r.logError("create order", err, zap.Stringer("customer_id", in.CustomerID))
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id domain.ID) (*domain.Order, error) {
	o, err := fetchOrder(ctx, r.pool, id)
	if err != nil {
		r.logError("get order", err, zap.Stringer("order_id", id))
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, int, error) {
	var f filter
	if q.Search != "" {
		f.add(matchOrder, db.ContainsPattern(q.Search))
	}
	if q.Status != nil {
		f.add(`o.status = ?::text::order_status`, string(*q.Status))
	}
	if q.From != nil {
		f.add(`o.created_at >= ?`, *q.From)
	}
	if q.To != nil {
		f.add(`o.created_at <= ?`, *q.To)
	}

	const from = `
FROM orders o
JOIN customers c ON c.id = o.customer_id`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+from+f.where(), f.args...).Scan(&total); err != nil {
		r.logError("count orders", err)
		return nil, 0, err
	}

	args := append(f.args, q.Limit, q.Offset())
	listQuery := `SELECT ` + orderColumns + `, ` + customerColumns + from + f.where() + `
ORDER BY o.created_at DESC, o.id DESC
LIMIT $` + strconv.Itoa(len(f.args)+1) + ` OFFSET $` + strconv.Itoa(len(f.args)+2)

	orders, err := r.queryHydrated(ctx, listQuery, args, 0)
	if err != nil {
		r.logError("list orders", err)
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) Search(ctx context.Context, term string, limit, imagesPerOrder int) ([]domain.Order, error) {
	var f filter
	f.add(matchOrder, db.ContainsPattern(term))
	q := `SELECT ` + orderColumns + `, ` + customerColumns + `
FROM orders o
JOIN customers c ON c.id = o.customer_id` + f.where() + `
ORDER BY o.created_at DESC, o.id DESC
LIMIT $2`
	orders, err := r.queryHydrated(ctx, q, append(f.args, limit), imagesPerOrder)
	if err != nil {
		r.logError("search orders", err)
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) Update(ctx context.Context, id domain.ID, f domain.OrderFields) (*domain.Order, error) {
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	var updated *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
UPDATE orders
SET notes = COALESCE($2, notes),
    audio_url = COALESCE($3, audio_url),
    status = COALESCE($4::text::order_status, status),
    bill_number = COALESCE($5, bill_number),
    transport_name = COALESCE($6, transport_name),
    updated_at = now()
WHERE id = $1
`, int64(id), f.Notes, f.AudioURL, status, f.BillNumber, f.TransportName)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		updated, err = fetchOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		r.logError("update order", err, zap.Stringer("order_id", id))
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) AddImages(ctx context.Context, orderID domain.ID, kind domain.ImageKind, images []domain.ImageInput) ([]domain.OrderImage, error) {
	var added []domain.OrderImage
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touchOrder(ctx, tx, orderID); err != nil {
			return err
		}
		var err error
		added, err = insertImages(ctx, tx, orderID, kind, images)
		return err
	})
	if err != nil {
		r.logError("add order images", err, zap.Stringer("order_id", orderID))
		return nil, err
	}
	return added, nil
}

// Deliver records the delivery fields and the bill photos atomically.
func (r *postgresRepo) Deliver(ctx context.Context, id domain.ID, d domain.Delivery) (*domain.Order, error) {
	var delivered *domain.Order
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
UPDATE orders
SET status = 'DELIVERED',
    bill_number = $2,
    transport_name = $3,
    updated_at = now()
WHERE id = $1
`, int64(id), d.BillNumber, d.TransportName)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := insertImages(ctx, tx, id, domain.KindBillPhoto, d.BillPhotos); err != nil {
			return err
		}
		delivered, err = fetchOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		r.logError("deliver order", err, zap.Stringer("order_id", id))
		return nil, err
	}
	return delivered, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, int64(id))
	if err != nil {
		r.logError("delete order", err, zap.Stringer("order_id", id))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) queryHydrated(ctx context.Context, q string, args []any, imagesPerOrder int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := attachImages(ctx, r.pool, orders, imagesPerOrder); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) logError(msg string, err error, fields ...zap.Field) {
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	r.logger.Error(msg, append(fields, zap.Error(err))...)
}

func fetchOrder(ctx context.Context, q querier, id domain.ID) (*domain.Order, error) {
	row := q.QueryRow(ctx, `SELECT `+orderColumns+`, `+customerColumns+`
FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE o.id = $1`, int64(id))
	o, err := scanOrder(row)
	if err != nil {
		return nil, translate(err)
	}
	orders := []domain.Order{*o}
	if err := attachImages(ctx, q, orders, 0); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func touchOrder(ctx context.Context, q querier, id domain.ID) error {
	cmd, err := q.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func insertImages(ctx context.Context, q querier, orderID domain.ID, kind domain.ImageKind, images []domain.ImageInput) ([]domain.OrderImage, error) {
	out := make([]domain.OrderImage, 0, len(images))
	if len(images) == 0 {
		return out, nil
	}

	const stmt = `
INSERT INTO order_images (order_id, image_url, remark, type)
VALUES ($1, $2, $3, $4::text::image_type)
RETURNING ` + imageColumns

	batch := &pgx.Batch{}
	for _, img := range images {
		batch.Queue(stmt, int64(orderID), img.ImageURL, img.Remark, string(kind))
	}
	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range images {
		img, err := scanImage(br.QueryRow())
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, *img)
	}
	return out, nil
}

// attachImages loads images for the given orders. perOrder <= 0 loads all.
func attachImages(ctx context.Context, q querier, orders []domain.Order, perOrder int) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[domain.ID]int, len(orders))
	for i, o := range orders {
		ids[i] = int64(o.ID)
		index[o.ID] = i
		orders[i].Images = []domain.OrderImage{}
	}

	rows, err := q.Query(ctx, `
SELECT `+imageColumns+`
FROM (
    SELECT i.*, row_number() OVER (PARTITION BY i.order_id ORDER BY i.uploaded_at, i.id) AS rn
    FROM order_images i
    WHERE i.order_id = ANY($1)
) ranked
WHERE $2 <= 0 OR rn <= $2
ORDER BY order_id, uploaded_at, id
`, ids, perOrder)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return err
		}
		i := index[img.OrderID]
		orders[i].Images = append(orders[i].Images, *img)
	}
	return rows.Err()
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var c domain.Customer
	if err := row.Scan(
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
		&c.ID,
		&c.Name,
		&c.Address,
		&c.PhoneNumber,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Customer = &c
	return &o, nil
}

func scanImage(row pgx.Row) (*domain.OrderImage, error) {
	var img domain.OrderImage
	if err := row.Scan(
		&img.ID,
		&img.OrderID,
		&img.ImageURL,
		&img.Remark,
		&img.Kind,
		&img.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
		case "23503":
			return domain.ErrNotFound
		}
	}
	return err
}

// filter accumulates AND-ed conditions; every "?" in a condition refers to
// the single argument passed with it.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(f.conds, "\n  AND ")
}
