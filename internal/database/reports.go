package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailySales = `
SELECT DATE(closed_at) AS day, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS total_revenue
FROM orders
WHERE status = 'PAID' AND closed_at >= $1 AND closed_at < $2
GROUP BY DATE(closed_at)
ORDER BY day
`

type GetDailySalesParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetDailySalesRow struct {
	Day          time.Time
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, getDailySales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetDailySalesRow
	for rows.Next() {
		var r GetDailySalesRow
		if err := rows.Scan(&r.Day, &r.OrderCount, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getDishSales = `
SELECT oi.dish_id, d.description, SUM(oi.quantity)::bigint AS quantity_sold,
       COALESCE(SUM(oi.quantity * oi.unit_price), 0) AS total_revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN dishes d ON d.id = oi.dish_id
WHERE o.status = 'PAID' AND o.closed_at >= $1 AND o.closed_at < $2
GROUP BY oi.dish_id, d.description
ORDER BY quantity_sold DESC
`

type GetDishSalesParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetDishSalesRow struct {
	DishID       uuid.UUID
	Description  string
	QuantitySold int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetDishSales(ctx context.Context, arg GetDishSalesParams) ([]GetDishSalesRow, error) {
	rows, err := q.db.Query(ctx, getDishSales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetDishSalesRow
	for rows.Next() {
		var r GetDishSalesRow
		if err := rows.Scan(&r.DishID, &r.Description, &r.QuantitySold, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getPaymentSummary = `
SELECT payment_method, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS total_amount
FROM orders
WHERE status = 'PAID' AND closed_at >= $1 AND closed_at < $2
GROUP BY payment_method
ORDER BY total_amount DESC
`

type GetPaymentSummaryParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetPaymentSummaryRow struct {
	PaymentMethod string
	OrderCount    int64
	TotalAmount   pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg GetPaymentSummaryParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GetPaymentSummaryRow
	for rows.Next() {
		var r GetPaymentSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.OrderCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
