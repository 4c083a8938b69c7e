package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Employee struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Dish struct {
	ID            uuid.UUID
	Description   string
	StandardPrice pgtype.Numeric
	TakeoutPrice  pgtype.Numeric
	CreatedAt     time.Time
}

type DiningTable struct {
	ID          uuid.UUID
	TableNumber int32
	Occupied    bool
}

type Order struct {
	ID            uuid.UUID
	CreatedBy     uuid.UUID
	Status        string
	IsTakeout     bool
	Total         pgtype.Numeric
	PaymentMethod pgtype.Text
	CreatedAt     time.Time
	ClosedAt      pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
}

// OrderItemDetail is an order item joined with its dish description,
// used when building cancellation snapshots and order detail responses.
type OrderItemDetail struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	DishID          uuid.UUID
	Quantity        int32
	UnitPrice       pgtype.Numeric
	DishDescription string
}

type TableLink struct {
	OrderID uuid.UUID
	TableID uuid.UUID
}

type KitchenTicket struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	DishDescription string
	Quantity        int32
	CreatedAt       time.Time
}

type AuditRecord struct {
	ID             uuid.UUID
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
