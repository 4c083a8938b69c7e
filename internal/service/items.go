package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the input for adding a line item to an open order.
type AddItemRequest struct {
	OrderID  uuid.UUID
	DishID   uuid.UUID
	Quantity int32
}

// ItemResult is a mutated line item together with the order carrying the
// freshly recalculated total; callers never see a stale total.
type ItemResult struct {
	Item  database.OrderItem
	Order database.Order
}

// AddItemResult extends ItemResult with the kitchen ticket written for
// the new item.
type AddItemResult struct {
	ItemResult
	Ticket database.KitchenTicket
}

// AddItem appends a line item to an open order. The unit price is
// resolved once, here, and frozen on the item: later catalog price
// changes never rewrite history.
func (s *OrderService) AddItem(ctx context.Context, req AddItemRequest) (*AddItemResult, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return nil, ErrOrderNotOpen
	}

	dish, err := store.GetDish(ctx, req.DishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDishNotFound
		}
		return nil, fmt.Errorf("get dish: %w", err)
	}

	unitPrice := resolveUnitPrice(dish, order.IsTakeout)

	item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
		OrderID:   order.ID,
		DishID:    dish.ID,
		Quantity:  req.Quantity,
		UnitPrice: decimalToNumeric(unitPrice),
	})
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	updated, err := recalcTotal(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}

	ticket, err := store.CreateKitchenTicket(ctx, database.CreateKitchenTicketParams{
		OrderID:         order.ID,
		DishDescription: dish.Description,
		Quantity:        req.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("create kitchen ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &AddItemResult{
		ItemResult: ItemResult{Item: item, Order: updated},
		Ticket:     ticket,
	}, nil
}

// SetItemQuantity sets an item's quantity outright. Quantities below 1
// are rejected; removal goes through RemoveItem.
func (s *OrderService) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) (*ItemResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutateItem(ctx, itemID, func(current int32) int32 { return quantity })
}

// IncrementItem raises an item's quantity by one.
func (s *OrderService) IncrementItem(ctx context.Context, itemID uuid.UUID) (*ItemResult, error) {
	return s.mutateItem(ctx, itemID, func(current int32) int32 { return current + 1 })
}

// DecrementItem lowers an item's quantity by one, flooring at 1. To go
// to zero the caller must remove the item.
func (s *OrderService) DecrementItem(ctx context.Context, itemID uuid.UUID) (*ItemResult, error) {
	return s.mutateItem(ctx, itemID, func(current int32) int32 {
		if current <= 1 {
			return 1
		}
		return current - 1
	})
}

// mutateItem applies a quantity transform to an item of an open order
// and recalculates the order total in the same transaction.
func (s *OrderService) mutateItem(ctx context.Context, itemID uuid.UUID, newQuantity func(int32) int32) (*ItemResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, item.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return nil, ErrOrderNotOpen
	}

	quantity := newQuantity(item.Quantity)
	if quantity != item.Quantity {
		item, err = store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
			ID:       itemID,
			Quantity: quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("update item quantity: %w", err)
		}
	}

	updated, err := recalcTotal(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &ItemResult{Item: item, Order: updated}, nil
}

// RemoveItem deletes a line item and recalculates the order total in the
// same transaction. Returns the order with its updated total.
func (s *OrderService) RemoveItem(ctx context.Context, itemID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrItemNotFound
		}
		return database.Order{}, fmt.Errorf("get order item: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, item.OrderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.Order{}, ErrOrderNotOpen
	}

	if err := store.DeleteOrderItem(ctx, itemID); err != nil {
		return database.Order{}, fmt.Errorf("delete order item: %w", err)
	}

	updated, err := recalcTotal(ctx, store, order.ID)
	if err != nil {
		return database.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

// recalcTotal recomputes sum(quantity * unit_price) over the order's
// current items and writes it back, inside the caller's transaction.
func recalcTotal(ctx context.Context, store OrderStore, orderID uuid.UUID) (database.Order, error) {
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list items for total: %w", err)
	}

	total := decimal.Zero
	for _, item := range items {
		line := numericToDecimal(item.UnitPrice).Mul(decimal.NewFromInt32(item.Quantity))
		total = total.Add(line)
	}

	order, err := store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
		ID:    orderID,
		Total: decimalToNumeric(total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order total: %w", err)
	}
	return order, nil
}

// resolveUnitPrice decides an item's frozen unit price exactly once, at
// add time. The takeout price applies only when the order is flagged
// takeout and the dish actually has a positive takeout price; in every
// other case the standard price wins.
func resolveUnitPrice(dish database.Dish, isTakeout bool) decimal.Decimal {
	if isTakeout {
		takeout := numericToDecimal(dish.TakeoutPrice)
		if takeout.IsPositive() {
			return takeout
		}
	}
	return numericToDecimal(dish.StandardPrice)
}
