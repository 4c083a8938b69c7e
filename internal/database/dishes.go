package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createDish = `
INSERT INTO dishes (description, standard_price, takeout_price)
VALUES ($1, $2, $3)
RETURNING id, description, standard_price, takeout_price, created_at
`

type CreateDishParams struct {
	Description   string
	StandardPrice pgtype.Numeric
	TakeoutPrice  pgtype.Numeric
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, createDish, arg.Description, arg.StandardPrice, arg.TakeoutPrice)
	var d Dish
	err := row.Scan(&d.ID, &d.Description, &d.StandardPrice, &d.TakeoutPrice, &d.CreatedAt)
	return d, err
}

const getDish = `
SELECT id, description, standard_price, takeout_price, created_at
FROM dishes WHERE id = $1
`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	row := q.db.QueryRow(ctx, getDish, id)
	var d Dish
	err := row.Scan(&d.ID, &d.Description, &d.StandardPrice, &d.TakeoutPrice, &d.CreatedAt)
	return d, err
}

const listDishes = `
SELECT id, description, standard_price, takeout_price, created_at
FROM dishes ORDER BY description
`

func (q *Queries) ListDishes(ctx context.Context) ([]Dish, error) {
	rows, err := q.db.Query(ctx, listDishes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Description, &d.StandardPrice, &d.TakeoutPrice, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const updateDish = `
UPDATE dishes
SET description = $2, standard_price = $3, takeout_price = $4
WHERE id = $1
RETURNING id, description, standard_price, takeout_price, created_at
`

type UpdateDishParams struct {
	ID            uuid.UUID
	Description   string
	StandardPrice pgtype.Numeric
	TakeoutPrice  pgtype.Numeric
}

func (q *Queries) UpdateDish(ctx context.Context, arg UpdateDishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, updateDish, arg.ID, arg.Description, arg.StandardPrice, arg.TakeoutPrice)
	var d Dish
	err := row.Scan(&d.ID, &d.Description, &d.StandardPrice, &d.TakeoutPrice, &d.CreatedAt)
	return d, err
}

const deleteDish = `DELETE FROM dishes WHERE id = $1`

func (q *Queries) DeleteDish(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteDish, id)
	return err
}
