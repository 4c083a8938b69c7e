package database

import (
	"context"

	"github.com/google/uuid"
)

const createKitchenTicket = `
INSERT INTO kitchen_tickets (order_id, dish_description, quantity)
VALUES ($1, $2, $3)
RETURNING id, order_id, dish_description, quantity, created_at
`

type CreateKitchenTicketParams struct {
	OrderID         uuid.UUID
	DishDescription string
	Quantity        int32
}

func (q *Queries) CreateKitchenTicket(ctx context.Context, arg CreateKitchenTicketParams) (KitchenTicket, error) {
	row := q.db.QueryRow(ctx, createKitchenTicket, arg.OrderID, arg.DishDescription, arg.Quantity)
	var t KitchenTicket
	err := row.Scan(&t.ID, &t.OrderID, &t.DishDescription, &t.Quantity, &t.CreatedAt)
	return t, err
}

const listRecentKitchenTickets = `
SELECT id, order_id, dish_description, quantity, created_at
FROM kitchen_tickets
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListRecentKitchenTickets(ctx context.Context, limit int32) ([]KitchenTicket, error) {
	rows, err := q.db.Query(ctx, listRecentKitchenTickets, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KitchenTicket
	for rows.Next() {
		var t KitchenTicket
		if err := rows.Scan(&t.ID, &t.OrderID, &t.DishDescription, &t.Quantity, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const deleteKitchenTicketsByOrder = `DELETE FROM kitchen_tickets WHERE order_id = $1`

func (q *Queries) DeleteKitchenTicketsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteKitchenTicketsByOrder, orderID)
	return err
}
