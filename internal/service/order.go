package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDishNotFound         = errors.New("dish not found")
	ErrTableNotFound        = errors.New("table not found")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrItemNotFound         = errors.New("order item not found")
	ErrInvalidQuantity      = errors.New("quantity must be >= 1")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrMissingCanceller     = errors.New("cancelling employee is required")
	ErrTableOccupied        = errors.New("table is occupied by another open order")
	ErrOrderNotOpen         = errors.New("order is not open")
)

// Risk thresholds for cancellations, in minutes since order creation.
// Orders cancelled long after creation are more likely to be after-the-fact
// tampering than an immediate correction.
const (
	riskMediumAfterMinutes = 20
	riskHighAfterMinutes   = 40
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)

	GetDiningTableForUpdate(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	SetTableOccupied(ctx context.Context, arg database.SetTableOccupiedParams) error
	CreateTableLink(ctx context.Context, arg database.CreateTableLinkParams) (database.TableLink, error)
	ListTablesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.DiningTable, error)
	DeleteTableLinksByOrder(ctx context.Context, orderID uuid.UUID) error

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemDetails(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemDetail, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error

	CreateKitchenTicket(ctx context.Context, arg database.CreateKitchenTicketParams) (database.KitchenTicket, error)
	DeleteKitchenTicketsByOrder(ctx context.Context, orderID uuid.UUID) error

	CreateAuditRecord(ctx context.Context, arg database.CreateAuditRecordParams) (database.AuditRecord, error)
	DeleteAuditRecordsByOrder(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService owns the order lifecycle: creation with table claiming,
// line-item mutations with total recalculation, payment and cancellation.
// Every mutation runs in a single pgx transaction.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	EmployeeID uuid.UUID
	TableIDs   []uuid.UUID
	IsTakeout  bool
}

// CreateOrderResult is the created order with its claimed tables.
type CreateOrderResult struct {
	Order  database.Order
	Tables []database.DiningTable
}

// CreateOrder opens an empty order and claims its tables atomically.
// Each table is locked before the occupancy check, so two waiters racing
// for the same free table cannot both win. If any table is occupied, no
// tables are claimed and no order is created.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetEmployee(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CreatedBy: req.EmployeeID,
		IsTakeout: req.IsTakeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var tables []database.DiningTable
	for _, tableID := range req.TableIDs {
		table, err := store.GetDiningTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("lock table: %w", err)
		}
		if table.Occupied {
			return nil, ErrTableOccupied
		}
		if _, err := store.CreateTableLink(ctx, database.CreateTableLinkParams{
			OrderID: order.ID,
			TableID: table.ID,
		}); err != nil {
			return nil, fmt.Errorf("link table: %w", err)
		}
		if err := store.SetTableOccupied(ctx, database.SetTableOccupiedParams{
			ID:       table.ID,
			Occupied: true,
		}); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
		table.Occupied = true
		tables = append(tables, table)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Tables: tables}, nil
}

// Pay closes an open order with the given payment method and frees its
// tables, all in one transaction.
func (s *OrderService) Pay(ctx context.Context, orderID uuid.UUID, paymentMethod string) (database.Order, error) {
	if !isValidPaymentMethod(paymentMethod) {
		return database.Order{}, ErrInvalidPaymentMethod
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.Order{}, ErrOrderNotOpen
	}

	paid, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
		ID:            orderID,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	if err := releaseTables(ctx, store, orderID); err != nil {
		return database.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return paid, nil
}

// Cancel destroys an open order, replacing it with an immutable audit
// record. The snapshot is built before anything is deleted; releasing
// tables, purging dependents and deleting the order all share one
// transaction, so a failure anywhere leaves everything intact.
func (s *OrderService) Cancel(ctx context.Context, orderID, cancelledBy uuid.UUID) (database.AuditRecord, error) {
	if cancelledBy == uuid.Nil {
		return database.AuditRecord{}, ErrMissingCanceller
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetEmployee(ctx, cancelledBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AuditRecord{}, ErrEmployeeNotFound
		}
		return database.AuditRecord{}, fmt.Errorf("get canceller: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AuditRecord{}, ErrOrderNotFound
		}
		return database.AuditRecord{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.AuditRecord{}, ErrOrderNotOpen
	}

	creator, err := store.GetEmployee(ctx, order.CreatedBy)
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("get creator: %w", err)
	}
	items, err := store.ListOrderItemDetails(ctx, orderID)
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("list items: %w", err)
	}
	tables, err := store.ListTablesByOrder(ctx, orderID)
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("list tables: %w", err)
	}

	now := time.Now()
	elapsed := int32(now.Sub(order.CreatedAt).Minutes())
	snapshot, err := NewOrderSnapshot(order, creator.Name, tables, items).Marshal()
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	// Stale audit rows from a previous cancellation cycle of a reused
	// order id must go before the fresh record lands.
	if err := store.DeleteAuditRecordsByOrder(ctx, orderID); err != nil {
		return database.AuditRecord{}, fmt.Errorf("purge stale audit records: %w", err)
	}

	record, err := store.CreateAuditRecord(ctx, database.CreateAuditRecordParams{
		Action:         enum.AuditActionOrderCancelled,
		OrderID:        orderID,
		CancelledBy:    cancelledBy,
		Snapshot:       snapshot,
		OrderCreatedAt: order.CreatedAt,
		CancelledAt:    now,
		ElapsedMinutes: elapsed,
		RiskLevel:      riskLevel(elapsed),
		Justification:  pgtype.Text{}, // reserved for manager sign-off
	})
	if err != nil {
		return database.AuditRecord{}, fmt.Errorf("create audit record: %w", err)
	}

	if err := releaseTables(ctx, store, orderID); err != nil {
		return database.AuditRecord{}, err
	}
	if err := store.DeleteKitchenTicketsByOrder(ctx, orderID); err != nil {
		return database.AuditRecord{}, fmt.Errorf("delete kitchen tickets: %w", err)
	}
	if err := store.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
		return database.AuditRecord{}, fmt.Errorf("delete order items: %w", err)
	}
	if err := store.DeleteOrder(ctx, orderID); err != nil {
		return database.AuditRecord{}, fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.AuditRecord{}, fmt.Errorf("commit tx: %w", err)
	}

	return record, nil
}

// releaseTables frees every table linked to the order and removes the
// links. A no-op for orders with no linked tables (takeout).
func releaseTables(ctx context.Context, store OrderStore, orderID uuid.UUID) error {
	tables, err := store.ListTablesByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list tables for release: %w", err)
	}
	for _, table := range tables {
		if err := store.SetTableOccupied(ctx, database.SetTableOccupiedParams{
			ID:       table.ID,
			Occupied: false,
		}); err != nil {
			return fmt.Errorf("free table: %w", err)
		}
	}
	if err := store.DeleteTableLinksByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete table links: %w", err)
	}
	return nil
}

// riskLevel classifies how suspicious a cancellation is from elapsed
// minutes alone.
func riskLevel(elapsedMinutes int32) string {
	switch {
	case elapsedMinutes > riskHighAfterMinutes:
		return enum.RiskLevelHigh
	case elapsedMinutes > riskMediumAfterMinutes:
		return enum.RiskLevelMedium
	default:
		return enum.RiskLevelLow
	}
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodDigitalWallet, enum.PaymentMethodCardTerminal:
		return true
	}
	return false
}

// --- Numeric helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
