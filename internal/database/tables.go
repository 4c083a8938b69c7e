package database

import (
	"context"

	"github.com/google/uuid"
)

const createDiningTable = `
INSERT INTO dining_tables (table_number)
VALUES ($1)
RETURNING id, table_number, occupied
`

func (q *Queries) CreateDiningTable(ctx context.Context, tableNumber int32) (DiningTable, error) {
	row := q.db.QueryRow(ctx, createDiningTable, tableNumber)
	var t DiningTable
	err := row.Scan(&t.ID, &t.TableNumber, &t.Occupied)
	return t, err
}

const getDiningTable = `
SELECT id, table_number, occupied
FROM dining_tables WHERE id = $1
`

func (q *Queries) GetDiningTable(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getDiningTable, id)
	var t DiningTable
	err := row.Scan(&t.ID, &t.TableNumber, &t.Occupied)
	return t, err
}

// GetDiningTableForUpdate locks the table row so the occupancy check and
// the occupancy write happen under one lock. Two waiters racing for the
// same free table serialize here.
const getDiningTableForUpdate = `
SELECT id, table_number, occupied
FROM dining_tables WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetDiningTableForUpdate(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getDiningTableForUpdate, id)
	var t DiningTable
	err := row.Scan(&t.ID, &t.TableNumber, &t.Occupied)
	return t, err
}

const listDiningTables = `
SELECT id, table_number, occupied
FROM dining_tables ORDER BY table_number
`

func (q *Queries) ListDiningTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listDiningTables)
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

const setTableOccupied = `
UPDATE dining_tables SET occupied = $2 WHERE id = $1
`

type SetTableOccupiedParams struct {
	ID       uuid.UUID
	Occupied bool
}

func (q *Queries) SetTableOccupied(ctx context.Context, arg SetTableOccupiedParams) error {
	_, err := q.db.Exec(ctx, setTableOccupied, arg.ID, arg.Occupied)
	return err
}
