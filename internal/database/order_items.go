package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `
INSERT INTO order_items (order_id, dish_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, dish_id, quantity, unit_price
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.DishID, arg.Quantity, arg.UnitPrice)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice)
	return it, err
}

const getOrderItem = `
SELECT id, order_id, dish_id, quantity, unit_price
FROM order_items WHERE id = $1
`

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	row := q.db.QueryRow(ctx, getOrderItem, id)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice)
	return it, err
}

const updateOrderItemQuantity = `
UPDATE order_items SET quantity = $2 WHERE id = $1
RETURNING id, order_id, dish_id, quantity, unit_price
`

type UpdateOrderItemQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, arg UpdateOrderItemQuantityParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItemQuantity, arg.ID, arg.Quantity)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice)
	return it, err
}

const deleteOrderItem = `DELETE FROM order_items WHERE id = $1`

func (q *Queries) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItem, id)
	return err
}

const listOrderItemsByOrder = `
SELECT id, order_id, dish_id, quantity, unit_price
FROM order_items WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const listOrderItemDetails = `
SELECT oi.id, oi.order_id, oi.dish_id, oi.quantity, oi.unit_price, d.description
FROM order_items oi
JOIN dishes d ON d.id = oi.dish_id
WHERE oi.order_id = $1
ORDER BY oi.id
`

func (q *Queries) ListOrderItemDetails(ctx context.Context, orderID uuid.UUID) ([]OrderItemDetail, error) {
	rows, err := q.db.Query(ctx, listOrderItemDetails, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItemDetail
	for rows.Next() {
		var it OrderItemDetail
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.UnitPrice, &it.DishDescription); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const deleteOrderItemsByOrder = `DELETE FROM order_items WHERE order_id = $1`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}
