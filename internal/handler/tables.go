package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	CreateDiningTable(ctx context.Context, tableNumber int32) (database.DiningTable, error)
	GetDiningTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	ListDiningTables(ctx context.Context) ([]database.DiningTable, error)
	GetOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	store TableStore
}

func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}/order", h.GetOrder)
}

// --- Request / Response types ---

type createTableRequest struct {
	TableNumber int32 `json:"table_number"`
}

type tableResponse struct {
	ID          uuid.UUID `json:"id"`
	TableNumber int32     `json:"table_number"`
	Occupied    bool      `json:"occupied"`
}

// --- Handlers ---

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TableNumber < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number must be positive"})
		return
	}

	table, err := h.store.CreateDiningTable(r.Context(), req.TableNumber)
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbTableToResponse(table))
}

// List handles GET /tables. The floor map view.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListDiningTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = dbTableToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder handles GET /tables/{id}/order, resolving the open order
// currently seated at a table. A free table yields 404.
func (h *TableHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	if _, err := h.store.GetDiningTable(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	order, err := h.store.GetOpenOrderForTable(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no open order for table"})
			return
		}
		log.Printf("ERROR: get order for table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// --- Helpers ---

func dbTableToResponse(t database.DiningTable) tableResponse {
	return tableResponse{ID: t.ID, TableNumber: t.TableNumber, Occupied: t.Occupied}
}
