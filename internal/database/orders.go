package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (created_by, status, is_takeout, total)
VALUES ($1, 'OPEN', $2, 0)
RETURNING id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
`

type CreateOrderParams struct {
	CreatedBy uuid.UUID
	IsTakeout bool
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.CreatedBy, arg.IsTakeout)
	return scanOrder(row)
}

const getOrder = `
SELECT id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

// GetOrderForUpdate locks the order row to serialize concurrent state
// transitions (pay vs cancel vs item mutation).
const getOrderForUpdate = `
SELECT id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
FROM orders WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOpenOrders = `
SELECT id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
FROM orders WHERE status = 'OPEN'
ORDER BY created_at
`

func (q *Queries) ListOpenOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOpenOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CreatedBy, &o.Status, &o.IsTakeout, &o.Total, &o.PaymentMethod, &o.CreatedAt, &o.ClosedAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const updateOrderTotal = `
UPDATE orders SET total = $2 WHERE id = $1
RETURNING id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
`

type UpdateOrderTotalParams struct {
	ID    uuid.UUID
	Total pgtype.Numeric
}

func (q *Queries) UpdateOrderTotal(ctx context.Context, arg UpdateOrderTotalParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderTotal, arg.ID, arg.Total))
}

const markOrderPaid = `
UPDATE orders
SET status = 'PAID', payment_method = $2, closed_at = now()
WHERE id = $1
RETURNING id, created_by, status, is_takeout, total, payment_method, created_at, closed_at
`

type MarkOrderPaidParams struct {
	ID            uuid.UUID
	PaymentMethod string
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.PaymentMethod))
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrder, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CreatedBy, &o.Status, &o.IsTakeout, &o.Total, &o.PaymentMethod, &o.CreatedAt, &o.ClosedAt)
	return o, err
}
