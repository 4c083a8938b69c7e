package database

import (
	"context"

	"github.com/google/uuid"
)

const createTableLink = `
INSERT INTO table_links (order_id, table_id)
VALUES ($1, $2)
RETURNING order_id, table_id
`

type CreateTableLinkParams struct {
	OrderID uuid.UUID
	TableID uuid.UUID
}

func (q *Queries) CreateTableLink(ctx context.Context, arg CreateTableLinkParams) (TableLink, error) {
	row := q.db.QueryRow(ctx, createTableLink, arg.OrderID, arg.TableID)
	var l TableLink
	err := row.Scan(&l.OrderID, &l.TableID)
	return l, err
}

const listTablesByOrder = `
SELECT t.id, t.table_number, t.occupied
FROM table_links l
JOIN dining_tables t ON t.id = l.table_id
WHERE l.order_id = $1
ORDER BY t.table_number
`

func (q *Queries) ListTablesByOrder(ctx context.Context, orderID uuid.UUID) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTablesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DiningTable
	for rows.Next() {
		var t DiningTable
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Occupied); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const deleteTableLinksByOrder = `DELETE FROM table_links WHERE order_id = $1`

func (q *Queries) DeleteTableLinksByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteTableLinksByOrder, orderID)
	return err
}

// GetOpenOrderForTable resolves the open order occupying a table, if any.
// Links only exist for open orders, so no status filter is needed beyond
// the join, but it is kept explicit as a guard.
const getOpenOrderForTable = `
SELECT o.id, o.created_by, o.status, o.is_takeout, o.total, o.payment_method, o.created_at, o.closed_at
FROM table_links l
JOIN orders o ON o.id = l.order_id
WHERE l.table_id = $1 AND o.status = 'OPEN'
`

func (q *Queries) GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOpenOrderForTable, tableID))
}
