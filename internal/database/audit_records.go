package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditRecord = `
INSERT INTO audit_records
	(action, order_id, cancelled_by, snapshot, order_created_at, cancelled_at, elapsed_minutes, risk_level, justification)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, action, order_id, cancelled_by, snapshot, order_created_at, cancelled_at, elapsed_minutes, risk_level, justification
`

type CreateAuditRecordParams struct {
	Action         string
	OrderID        uuid.UUID
	CancelledBy    uuid.UUID
	Snapshot       []byte
	OrderCreatedAt time.Time
	CancelledAt    time.Time
	ElapsedMinutes int32
	RiskLevel      string
	Justification  pgtype.Text
}

func (q *Queries) CreateAuditRecord(ctx context.Context, arg CreateAuditRecordParams) (AuditRecord, error) {
	row := q.db.QueryRow(ctx, createAuditRecord,
		arg.Action, arg.OrderID, arg.CancelledBy, arg.Snapshot,
		arg.OrderCreatedAt, arg.CancelledAt, arg.ElapsedMinutes, arg.RiskLevel, arg.Justification)
	return scanAuditRecord(row)
}

const getAuditRecord = `
SELECT id, action, order_id, cancelled_by, snapshot, order_created_at, cancelled_at, elapsed_minutes, risk_level, justification
FROM audit_records WHERE id = $1
`

func (q *Queries) GetAuditRecord(ctx context.Context, id uuid.UUID) (AuditRecord, error) {
	return scanAuditRecord(q.db.QueryRow(ctx, getAuditRecord, id))
}

// DeleteAuditRecordsByOrder purges stale audit rows left over from a
// previous cancellation cycle that reused the same order id. Called
// before the fresh record is inserted.
const deleteAuditRecordsByOrder = `DELETE FROM audit_records WHERE order_id = $1`

func (q *Queries) DeleteAuditRecordsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteAuditRecordsByOrder, orderID)
	return err
}

const listAuditRecords = `
SELECT id, action, order_id, cancelled_by, snapshot, order_created_at, cancelled_at, elapsed_minutes, risk_level, justification
FROM audit_records
WHERE ($1::timestamptz IS NULL OR cancelled_at >= $1)
  AND ($2::timestamptz IS NULL OR cancelled_at < $2)
  AND ($3::text IS NULL OR risk_level = $3)
  AND ($4::uuid IS NULL OR cancelled_by = $4)
ORDER BY cancelled_at DESC
LIMIT $5 OFFSET $6
`

type ListAuditRecordsParams struct {
	StartDate   pgtype.Timestamptz
	EndDate     pgtype.Timestamptz
	RiskLevel   pgtype.Text
	CancelledBy pgtype.UUID
	Limit       int32
	Offset      int32
}

func (q *Queries) ListAuditRecords(ctx context.Context, arg ListAuditRecordsParams) ([]AuditRecord, error) {
	rows, err := q.db.Query(ctx, listAuditRecords,
		arg.StartDate, arg.EndDate, arg.RiskLevel, arg.CancelledBy, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditRecord
	for rows.Next() {
		var a AuditRecord
		if err := rows.Scan(&a.ID, &a.Action, &a.OrderID, &a.CancelledBy, &a.Snapshot,
			&a.OrderCreatedAt, &a.CancelledAt, &a.ElapsedMinutes, &a.RiskLevel, &a.Justification); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func scanAuditRecord(row rowScanner) (AuditRecord, error) {
	var a AuditRecord
	err := row.Scan(&a.ID, &a.Action, &a.OrderID, &a.CancelledBy, &a.Snapshot,
		&a.OrderCreatedAt, &a.CancelledAt, &a.ElapsedMinutes, &a.RiskLevel, &a.Justification)
	return a, err
}
