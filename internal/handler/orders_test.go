package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comanda-pos/api/internal/auth"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	createFn      func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	addItemFn     func(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error)
	setQuantityFn func(ctx context.Context, itemID uuid.UUID, quantity int32) (*service.ItemResult, error)
	incrementFn   func(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error)
	decrementFn   func(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error)
	removeItemFn  func(ctx context.Context, itemID uuid.UUID) (database.Order, error)
	payFn         func(ctx context.Context, orderID uuid.UUID, paymentMethod string) (database.Order, error)
	cancelFn      func(ctx context.Context, orderID, cancelledBy uuid.UUID) (database.AuditRecord, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) AddItem(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error) {
	return m.addItemFn(ctx, req)
}

func (m *mockOrderService) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) (*service.ItemResult, error) {
	return m.setQuantityFn(ctx, itemID, quantity)
}

func (m *mockOrderService) IncrementItem(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error) {
	return m.incrementFn(ctx, itemID)
}

func (m *mockOrderService) DecrementItem(ctx context.Context, itemID uuid.UUID) (*service.ItemResult, error) {
	return m.decrementFn(ctx, itemID)
}

func (m *mockOrderService) RemoveItem(ctx context.Context, itemID uuid.UUID) (database.Order, error) {
	return m.removeItemFn(ctx, itemID)
}

func (m *mockOrderService) Pay(ctx context.Context, orderID uuid.UUID, paymentMethod string) (database.Order, error) {
	return m.payFn(ctx, orderID, paymentMethod)
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID, cancelledBy uuid.UUID) (database.AuditRecord, error) {
	return m.cancelFn(ctx, orderID, cancelledBy)
}

// --- Mock OrderStore ---

type mockOrderStore struct {
	getOrderFn             func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOpenOrdersFn       func(ctx context.Context) ([]database.Order, error)
	listOrderItemDetailsFn func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemDetail, error)
	listTablesByOrderFn    func(ctx context.Context, orderID uuid.UUID) ([]database.DiningTable, error)
	getOrderItemFn         func(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) ListOpenOrders(ctx context.Context) ([]database.Order, error) {
	if m.listOpenOrdersFn != nil {
		return m.listOpenOrdersFn(ctx)
	}
	return []database.Order{}, nil
}

func (m *mockOrderStore) ListOrderItemDetails(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemDetail, error) {
	if m.listOrderItemDetailsFn != nil {
		return m.listOrderItemDetailsFn(ctx, orderID)
	}
	return []database.OrderItemDetail{}, nil
}

func (m *mockOrderStore) ListTablesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.DiningTable, error) {
	if m.listTablesByOrderFn != nil {
		return m.listTablesByOrderFn(ctx, orderID)
	}
	return []database.DiningTable{}, nil
}

func (m *mockOrderStore) GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error) {
	if m.getOrderItemFn != nil {
		return m.getOrderItemFn(ctx, id)
	}
	return database.OrderItem{}, pgx.ErrNoRows
}

// --- Test helpers ---

const testJWTSecret = "test-secret-for-orders"

func setupOrderRouter(svc *mockOrderService, store *mockOrderStore) *chi.Mux {
	h := handler.NewOrderHandler(svc, store, nil)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/orders", h.RegisterRoutes)
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.EmployeeID, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func waiterClaims() *auth.Claims {
	return &auth.Claims{EmployeeID: uuid.New(), Role: enum.RoleWaiter}
}

func testNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

func testOrder(t *testing.T, createdBy uuid.UUID, total string) database.Order {
	t.Helper()
	return database.Order{
		ID:        uuid.New(),
		CreatedBy: createdBy,
		Status:    enum.OrderStatusOpen,
		Total:     testNumeric(t, total),
		CreatedAt: time.Now(),
	}
}

// --- Create ---

func TestOrderCreate_HappyPath(t *testing.T) {
	claims := waiterClaims()
	tableID := uuid.New()

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if req.EmployeeID != claims.EmployeeID {
				t.Errorf("employee_id: got %v, want %v", req.EmployeeID, claims.EmployeeID)
			}
			if len(req.TableIDs) != 1 || req.TableIDs[0] != tableID {
				t.Errorf("table_ids: got %v, want [%v]", req.TableIDs, tableID)
			}
			order := testOrder(t, claims.EmployeeID, "0.00")
			return &service.CreateOrderResult{
				Order:  order,
				Tables: []database.DiningTable{{ID: tableID, TableNumber: 4, Occupied: true}},
			}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_ids": []string{tableID.String()},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "OPEN" {
		t.Errorf("status: got %v, want OPEN", resp["status"])
	}
	if resp["total"] != "0.00" {
		t.Errorf("total: got %v, want 0.00", resp["total"])
	}
	tables, ok := resp["tables"].([]interface{})
	if !ok || len(tables) != 1 {
		t.Fatalf("tables: got %v, want one entry", resp["tables"])
	}
	if tables[0].(map[string]interface{})["table_number"] != float64(4) {
		t.Errorf("table_number: got %v, want 4", tables[0])
	}
}

func TestOrderCreate_OccupiedTable(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrTableOccupied
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_ids": []string{uuid.New().String()},
	}, waiterClaims())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderCreate_InvalidTableID(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_ids": []string{"not-a-uuid"},
	}, waiterClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCreate_NoAuth(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})

	req := httptest.NewRequest("POST", "/orders", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Get / List ---

func TestOrderGet_HappyPath(t *testing.T) {
	claims := waiterClaims()
	order := testOrder(t, claims.EmployeeID, "27.50")

	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			if id != order.ID {
				t.Errorf("order id: got %v, want %v", id, order.ID)
			}
			return order, nil
		},
		listOrderItemDetailsFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItemDetail, error) {
			return []database.OrderItemDetail{
				{
					ID:              uuid.New(),
					OrderID:         order.ID,
					DishID:          uuid.New(),
					Quantity:        2,
					UnitPrice:       testNumeric(t, "5.00"),
					DishDescription: "Grilled salmon",
				},
			}, nil
		},
		listTablesByOrderFn: func(ctx context.Context, orderID uuid.UUID) ([]database.DiningTable, error) {
			return []database.DiningTable{{ID: uuid.New(), TableNumber: 7, Occupied: true}}, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["total"] != "27.50" {
		t.Errorf("total: got %v, want 27.50", resp["total"])
	}

	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("items count: got %d, want 1", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["dish_description"] != "Grilled salmon" {
		t.Errorf("dish_description: got %v", item["dish_description"])
	}
	if item["unit_price"] != "5.00" {
		t.Errorf("unit_price: got %v, want 5.00", item["unit_price"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.New().String(), nil, waiterClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderList_Open(t *testing.T) {
	claims := waiterClaims()
	store := &mockOrderStore{
		listOpenOrdersFn: func(ctx context.Context) ([]database.Order, error) {
			return []database.Order{
				testOrder(t, claims.EmployeeID, "15.00"),
				testOrder(t, claims.EmployeeID, "8.20"),
			}, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/orders", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("orders count: got %d, want 2", len(resp))
	}
}

// --- AddItem ---

func TestOrderAddItem_HappyPath(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	dishID := uuid.New()

	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error) {
			if req.OrderID != orderID {
				t.Errorf("order_id: got %v, want %v", req.OrderID, orderID)
			}
			if req.DishID != dishID {
				t.Errorf("dish_id: got %v, want %v", req.DishID, dishID)
			}
			if req.Quantity != 3 {
				t.Errorf("quantity: got %d, want 3", req.Quantity)
			}
			order := testOrder(t, claims.EmployeeID, "15.00")
			order.ID = orderID
			return &service.AddItemResult{
				ItemResult: service.ItemResult{
					Item: database.OrderItem{
						ID:        uuid.New(),
						OrderID:   orderID,
						DishID:    dishID,
						Quantity:  3,
						UnitPrice: testNumeric(t, "5.00"),
					},
					Order: order,
				},
				Ticket: database.KitchenTicket{
					ID:              uuid.New(),
					OrderID:         orderID,
					DishDescription: "Grilled salmon",
					Quantity:        3,
					CreatedAt:       time.Now(),
				},
			}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+orderID.String()+"/items", map[string]interface{}{
		"dish_id":  dishID.String(),
		"quantity": 3,
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	item := resp["item"].(map[string]interface{})
	if item["unit_price"] != "5.00" {
		t.Errorf("unit_price: got %v, want 5.00", item["unit_price"])
	}
	order := resp["order"].(map[string]interface{})
	if order["total"] != "15.00" {
		t.Errorf("order total: got %v, want 15.00", order["total"])
	}
}

func TestOrderAddItem_InvalidQuantity(t *testing.T) {
	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error) {
			return nil, service.ErrInvalidQuantity
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/items", map[string]interface{}{
		"dish_id":  uuid.New().String(),
		"quantity": 0,
	}, waiterClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderAddItem_ClosedOrder(t *testing.T) {
	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error) {
			return nil, service.ErrOrderNotOpen
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/items", map[string]interface{}{
		"dish_id":  uuid.New().String(),
		"quantity": 1,
	}, waiterClaims())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderAddItem_DishNotFound(t *testing.T) {
	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (*service.AddItemResult, error) {
			return nil, service.ErrDishNotFound
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/items", map[string]interface{}{
		"dish_id":  uuid.New().String(),
		"quantity": 1,
	}, waiterClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- UpdateItem ---

func itemStore(t *testing.T, orderID, itemID uuid.UUID) *mockOrderStore {
	t.Helper()
	return &mockOrderStore{
		getOrderItemFn: func(ctx context.Context, id uuid.UUID) (database.OrderItem, error) {
			if id != itemID {
				return database.OrderItem{}, pgx.ErrNoRows
			}
			return database.OrderItem{
				ID:        itemID,
				OrderID:   orderID,
				DishID:    uuid.New(),
				Quantity:  2,
				UnitPrice: testNumeric(t, "5.00"),
			}, nil
		},
	}
}

func TestOrderUpdateItem_SetQuantity(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	itemID := uuid.New()

	svc := &mockOrderService{
		setQuantityFn: func(ctx context.Context, id uuid.UUID, quantity int32) (*service.ItemResult, error) {
			if id != itemID {
				t.Errorf("item id: got %v, want %v", id, itemID)
			}
			if quantity != 5 {
				t.Errorf("quantity: got %d, want 5", quantity)
			}
			order := testOrder(t, claims.EmployeeID, "25.00")
			order.ID = orderID
			return &service.ItemResult{
				Item:  database.OrderItem{ID: itemID, OrderID: orderID, Quantity: 5, UnitPrice: testNumeric(t, "5.00")},
				Order: order,
			}, nil
		},
	}

	router := setupOrderRouter(svc, itemStore(t, orderID, itemID))
	rr := doAuthRequest(t, router, "PATCH", "/orders/"+orderID.String()+"/items/"+itemID.String(), map[string]interface{}{
		"quantity": 5,
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["order"].(map[string]interface{})["total"] != "25.00" {
		t.Errorf("total: got %v, want 25.00", resp["order"])
	}
}

func TestOrderUpdateItem_Increment(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	itemID := uuid.New()

	called := false
	svc := &mockOrderService{
		incrementFn: func(ctx context.Context, id uuid.UUID) (*service.ItemResult, error) {
			called = true
			order := testOrder(t, claims.EmployeeID, "15.00")
			order.ID = orderID
			return &service.ItemResult{
				Item:  database.OrderItem{ID: itemID, OrderID: orderID, Quantity: 3, UnitPrice: testNumeric(t, "5.00")},
				Order: order,
			}, nil
		},
	}

	router := setupOrderRouter(svc, itemStore(t, orderID, itemID))
	rr := doAuthRequest(t, router, "PATCH", "/orders/"+orderID.String()+"/items/"+itemID.String(), map[string]interface{}{
		"op": "increment",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !called {
		t.Error("IncrementItem was not called")
	}
}

func TestOrderUpdateItem_QuantityAndOpRejected(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()

	router := setupOrderRouter(&mockOrderService{}, itemStore(t, orderID, itemID))
	rr := doAuthRequest(t, router, "PATCH", "/orders/"+orderID.String()+"/items/"+itemID.String(), map[string]interface{}{
		"quantity": 5,
		"op":       "increment",
	}, waiterClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderUpdateItem_WrongOrder(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()

	// Item exists but belongs to a different order than the URL says.
	router := setupOrderRouter(&mockOrderService{}, itemStore(t, uuid.New(), itemID))
	rr := doAuthRequest(t, router, "PATCH", "/orders/"+orderID.String()+"/items/"+itemID.String(), map[string]interface{}{
		"op": "increment",
	}, waiterClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- RemoveItem ---

func TestOrderRemoveItem_HappyPath(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	itemID := uuid.New()

	svc := &mockOrderService{
		removeItemFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			if id != itemID {
				t.Errorf("item id: got %v, want %v", id, itemID)
			}
			order := testOrder(t, claims.EmployeeID, "10.00")
			order.ID = orderID
			return order, nil
		},
	}

	router := setupOrderRouter(svc, itemStore(t, orderID, itemID))
	rr := doAuthRequest(t, router, "DELETE", "/orders/"+orderID.String()+"/items/"+itemID.String(), nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["total"] != "10.00" {
		t.Errorf("total: got %v, want 10.00", resp["total"])
	}
}

// --- Pay ---

func TestOrderPay_HappyPath(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	now := time.Now()

	svc := &mockOrderService{
		payFn: func(ctx context.Context, id uuid.UUID, paymentMethod string) (database.Order, error) {
			if paymentMethod != enum.PaymentMethodCash {
				t.Errorf("payment method: got %q, want %q", paymentMethod, enum.PaymentMethodCash)
			}
			order := testOrder(t, claims.EmployeeID, "15.00")
			order.ID = id
			order.Status = enum.OrderStatusPaid
			order.PaymentMethod = pgtype.Text{String: paymentMethod, Valid: true}
			order.ClosedAt = pgtype.Timestamptz{Time: now, Valid: true}
			return order, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+orderID.String()+"/pay", map[string]interface{}{
		"payment_method": "CASH",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "PAID" {
		t.Errorf("status: got %v, want PAID", resp["status"])
	}
	if resp["payment_method"] != "CASH" {
		t.Errorf("payment_method: got %v, want CASH", resp["payment_method"])
	}
	if resp["closed_at"] == nil {
		t.Error("closed_at missing")
	}
}

func TestOrderPay_MissingMethod(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/pay", map[string]interface{}{}, waiterClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderPay_InvalidMethod(t *testing.T) {
	svc := &mockOrderService{
		payFn: func(ctx context.Context, id uuid.UUID, paymentMethod string) (database.Order, error) {
			return database.Order{}, service.ErrInvalidPaymentMethod
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/pay", map[string]interface{}{
		"payment_method": "BARTER",
	}, waiterClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderPay_AlreadyClosed(t *testing.T) {
	svc := &mockOrderService{
		payFn: func(ctx context.Context, id uuid.UUID, paymentMethod string) (database.Order, error) {
			return database.Order{}, service.ErrOrderNotOpen
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders/"+uuid.New().String()+"/pay", map[string]interface{}{
		"payment_method": "CASH",
	}, waiterClaims())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Cancel ---

func TestOrderCancel_HappyPath(t *testing.T) {
	claims := waiterClaims()
	orderID := uuid.New()
	now := time.Now()

	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, id, cancelledBy uuid.UUID) (database.AuditRecord, error) {
			if id != orderID {
				t.Errorf("order id: got %v, want %v", id, orderID)
			}
			if cancelledBy != claims.EmployeeID {
				t.Errorf("cancelled_by: got %v, want %v", cancelledBy, claims.EmployeeID)
			}
			return database.AuditRecord{
				ID:             uuid.New(),
				Action:         enum.AuditActionOrderCancelled,
				OrderID:        id,
				CancelledBy:    cancelledBy,
				Snapshot:       []byte(`{"total":"15.00"}`),
				OrderCreatedAt: now.Add(-45 * time.Minute),
				CancelledAt:    now,
				ElapsedMinutes: 45,
				RiskLevel:      enum.RiskLevelHigh,
			}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "DELETE", "/orders/"+orderID.String(), nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["risk_level"] != "HIGH" {
		t.Errorf("risk_level: got %v, want HIGH", resp["risk_level"])
	}
	if resp["elapsed_minutes"] != float64(45) {
		t.Errorf("elapsed_minutes: got %v, want 45", resp["elapsed_minutes"])
	}
	snapshot, ok := resp["snapshot"].(map[string]interface{})
	if !ok {
		t.Fatalf("snapshot not embedded as JSON: %v", resp["snapshot"])
	}
	if snapshot["total"] != "15.00" {
		t.Errorf("snapshot total: got %v, want 15.00", snapshot["total"])
	}
}

func TestOrderCancel_NotFound(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, id, cancelledBy uuid.UUID) (database.AuditRecord, error) {
			return database.AuditRecord{}, service.ErrOrderNotFound
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "DELETE", "/orders/"+uuid.New().String(), nil, waiterClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderCancel_AlreadyPaid(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, id, cancelledBy uuid.UUID) (database.AuditRecord, error) {
			return database.AuditRecord{}, service.ErrOrderNotOpen
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "DELETE", "/orders/"+uuid.New().String(), nil, waiterClaims())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}
