package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	AddItem(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error)
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) (*service.ItemResult, error)
	IncrementItem(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error)
	DecrementItem(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) (database.Order, error)
	Pay(ctx context.Context, orderID uuid.UUID, paymentMethod string) (database.Order, error)
	Cancel(ctx context.Context, orderID, cancelledBy uuid.UUID) (database.AuditRecord, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOpenOrders(ctx context.Context) ([]database.Order, error)
	ListOrderItemDetails(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemDetail, error)
	ListTablesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.DiningTable, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   *ws.Hub
}

func NewOrderHandler(svc OrderServicer, store OrderStore, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.ListOpen)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/pay", h.Pay)
	r.Delete("/{id}", h.Cancel)
	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableIDs  []string `json:"table_ids"`
	IsTakeout bool     `json:"is_takeout"`
}

type addItemRequest struct {
	DishID   string `json:"dish_id"`
	Quantity int32  `json:"quantity"`
}

// updateItemRequest carries either an absolute quantity or an op
// ("increment" / "decrement"); exactly one must be set.
type updateItemRequest struct {
	Quantity *int32 `json:"quantity"`
	Op       string `json:"op"`
}

type payRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type orderResponse struct {
	ID            uuid.UUID      `json:"id"`
	CreatedBy     uuid.UUID      `json:"created_by"`
	Status        string         `json:"status"`
	IsTakeout     bool           `json:"is_takeout"`
	Total         string         `json:"total"`
	PaymentMethod *string        `json:"payment_method"`
	CreatedAt     time.Time      `json:"created_at"`
	ClosedAt      *time.Time     `json:"closed_at"`
	Tables        []tableSummary `json:"tables,omitempty"`
	Items         []itemResponse `json:"items,omitempty"`
}

type tableSummary struct {
	ID          uuid.UUID `json:"id"`
	TableNumber int32     `json:"table_number"`
}

type itemResponse struct {
	ID              uuid.UUID `json:"id"`
	DishID          uuid.UUID `json:"dish_id"`
	DishDescription string    `json:"dish_description,omitempty"`
	Quantity        int32     `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
}

// itemMutationResponse returns the mutated item together with the fresh
// order total so clients never display a stale amount.
type itemMutationResponse struct {
	Item  itemResponse  `json:"item"`
	Order orderResponse `json:"order"`
}

type auditRecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	Action         string          `json:"action"`
	OrderID        uuid.UUID       `json:"order_id"`
	CancelledBy    uuid.UUID       `json:"cancelled_by"`
	Snapshot       json.RawMessage `json:"snapshot"`
	OrderCreatedAt time.Time       `json:"order_created_at"`
	CancelledAt    time.Time       `json:"cancelled_at"`
	ElapsedMinutes int32           `json:"elapsed_minutes"`
	RiskLevel      string          `json:"risk_level"`
	Justification  *string         `json:"justification"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tableIDs := make([]uuid.UUID, len(req.TableIDs))
	for i, s := range req.TableIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
			return
		}
		tableIDs[i] = id
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		EmployeeID: claims.EmployeeID,
		TableIDs:   tableIDs,
		IsTakeout:  req.IsTakeout,
	})
	if err != nil {
		h.writeServiceError(w, "create order", err)
		return
	}

	resp := dbOrderToResponse(result.Order)
	resp.Tables = make([]tableSummary, len(result.Tables))
	for i, t := range result.Tables {
		resp.Tables[i] = tableSummary{ID: t.ID, TableNumber: t.TableNumber}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListOpen handles GET /orders. Floor and kitchen clients poll this.
func (h *OrderHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOpenOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list open orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemDetails(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	tables, err := h.store.ListTablesByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.Items = make([]itemResponse, len(items))
	for i, it := range items {
		resp.Items[i] = itemResponse{
			ID:              it.ID,
			DishID:          it.DishID,
			DishDescription: it.DishDescription,
			Quantity:        it.Quantity,
			UnitPrice:       numericToString(it.UnitPrice),
		}
	}
	resp.Tables = make([]tableSummary, len(tables))
	for i, t := range tables {
		resp.Tables[i] = tableSummary{ID: t.ID, TableNumber: t.TableNumber}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	dishID, err := uuid.Parse(req.DishID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish_id"})
		return
	}

	result, err := h.svc.AddItem(r.Context(), service.AddItemRequest{
		OrderID:  orderID,
		DishID:   dishID,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.writeServiceError(w, "add item", err)
		return
	}

	// Kitchen notification rides outside the transaction; a dead hub
	// never rolls back the committed item.
	h.broadcastTicket(result.Ticket)

	writeJSON(w, http.StatusCreated, itemMutationResponse{
		Item:  dbItemToResponse(result.Item),
		Order: dbOrderToResponse(result.Order),
	})
}

// UpdateItem handles PATCH /orders/{id}/items/{itemID}.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemForOrder(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var result *service.ItemResult
	var err error
	switch {
	case req.Quantity != nil && req.Op == "":
		result, err = h.svc.SetItemQuantity(r.Context(), itemID, *req.Quantity)
	case req.Quantity == nil && req.Op == "increment":
		result, err = h.svc.IncrementItem(r.Context(), itemID)
	case req.Quantity == nil && req.Op == "decrement":
		result, err = h.svc.DecrementItem(r.Context(), itemID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "provide either quantity or op=increment|decrement"})
		return
	}
	if err != nil {
		h.writeServiceError(w, "update item", err)
		return
	}

	writeJSON(w, http.StatusOK, itemMutationResponse{
		Item:  dbItemToResponse(result.Item),
		Order: dbOrderToResponse(result.Order),
	})
}

// RemoveItem handles DELETE /orders/{id}/items/{itemID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.itemForOrder(w, r)
	if !ok {
		return
	}

	order, err := h.svc.RemoveItem(r.Context(), itemID)
	if err != nil {
		h.writeServiceError(w, "remove item", err)
		return
	}
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Pay handles POST /orders/{id}/pay.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}

	order, err := h.svc.Pay(r.Context(), orderID, req.PaymentMethod)
	if err != nil {
		h.writeServiceError(w, "pay order", err)
		return
	}
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Cancel handles DELETE /orders/{id}. The acting employee from the
// token is recorded as the canceller.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	record, err := h.svc.Cancel(r.Context(), orderID, claims.EmployeeID)
	if err != nil {
		h.writeServiceError(w, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, dbAuditRecordToResponse(record))
}

// --- Helpers ---

// itemForOrder parses {id} and {itemID} and verifies the item belongs to
// the order in the path, so a client cannot mutate another order's item
// through a mismatched URL.
func (h *OrderHandler) itemForOrder(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return uuid.Nil, false
	}

	item, err := h.store.GetOrderItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order item not found"})
			return uuid.Nil, false
		}
		log.Printf("ERROR: get order item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return uuid.Nil, false
	}
	if item.OrderID != orderID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order item not found"})
		return uuid.Nil, false
	}
	return itemID, true
}

func (h *OrderHandler) broadcastTicket(ticket database.KitchenTicket) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"ticket_id":        ticket.ID,
		"order_id":         ticket.OrderID,
		"dish_description": ticket.DishDescription,
		"quantity":         ticket.Quantity,
		"created_at":       ticket.CreatedAt,
	})
	if err != nil {
		log.Printf("ERROR: marshal ticket event: %v", err)
		return
	}
	h.hub.Broadcast(ws.Event{Type: "kitchen.ticket", Payload: payload})
}

// writeServiceError maps sentinel service errors onto HTTP statuses.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrDishNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrMissingCanceller):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrOrderNotOpen):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		CreatedBy: o.CreatedBy,
		Status:    o.Status,
		IsTakeout: o.IsTakeout,
		Total:     numericToString(o.Total),
		CreatedAt: o.CreatedAt,
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.ClosedAt.Valid {
		resp.ClosedAt = &o.ClosedAt.Time
	}
	return resp
}

func dbItemToResponse(it database.OrderItem) itemResponse {
	return itemResponse{
		ID:        it.ID,
		DishID:    it.DishID,
		Quantity:  it.Quantity,
		UnitPrice: numericToString(it.UnitPrice),
	}
}

func dbAuditRecordToResponse(a database.AuditRecord) auditRecordResponse {
	resp := auditRecordResponse{
		ID:             a.ID,
		Action:         a.Action,
		OrderID:        a.OrderID,
		CancelledBy:    a.CancelledBy,
		Snapshot:       json.RawMessage(a.Snapshot),
		OrderCreatedAt: a.OrderCreatedAt,
		CancelledAt:    a.CancelledAt,
		ElapsedMinutes: a.ElapsedMinutes,
		RiskLevel:      a.RiskLevel,
	}
	if a.Justification.Valid {
		resp.Justification = &a.Justification.String
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
