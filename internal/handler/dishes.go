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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DishStore defines the database methods needed by dish handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DishStore interface {
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	ListDishes(ctx context.Context) ([]database.Dish, error)
	UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) error
}

// DishHandler handles dish catalog endpoints.
type DishHandler struct {
	store DishStore
}

func NewDishHandler(store DishStore) *DishHandler {
	return &DishHandler{store: store}
}

// RegisterRoutes registers dish endpoints on the given Chi router.
func (h *DishHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type dishRequest struct {
	Description   string `json:"description"`
	StandardPrice string `json:"standard_price"`
	TakeoutPrice  string `json:"takeout_price"`
}

type dishResponse struct {
	ID            uuid.UUID `json:"id"`
	Description   string    `json:"description"`
	StandardPrice string    `json:"standard_price"`
	TakeoutPrice  string    `json:"takeout_price"`
}

// parsePrices validates the request and converts its money strings.
// An empty takeout_price means the dish has no takeout discount and is
// stored as zero.
func (req dishRequest) parsePrices() (standard, takeout pgtype.Numeric, err error) {
	if req.Description == "" {
		return standard, takeout, errors.New("description is required")
	}
	std, err := decimal.NewFromString(req.StandardPrice)
	if err != nil || std.IsNegative() {
		return standard, takeout, errors.New("standard_price must be a non-negative decimal")
	}
	tko := decimal.Zero
	if req.TakeoutPrice != "" {
		tko, err = decimal.NewFromString(req.TakeoutPrice)
		if err != nil || tko.IsNegative() {
			return standard, takeout, errors.New("takeout_price must be a non-negative decimal")
		}
	}

	standard, err = decimalToNumeric(std)
	if err != nil {
		return standard, takeout, err
	}
	takeout, err = decimalToNumeric(tko)
	return standard, takeout, err
}

// --- Handlers ---

// Create handles POST /dishes.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	standard, takeout, err := req.parsePrices()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		Description:   req.Description,
		StandardPrice: standard,
		TakeoutPrice:  takeout,
	})
	if err != nil {
		log.Printf("ERROR: create dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dbDishToResponse(dish))
}

// List handles GET /dishes.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.store.ListDishes(r.Context())
	if err != nil {
		log.Printf("ERROR: list dishes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = dbDishToResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /dishes/{id}.
func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}
	dish, err := h.store.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: get dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbDishToResponse(dish))
}

// Update handles PUT /dishes/{id}.
// Price edits affect future orders only; existing line items keep the
// price frozen at the time they were added.
func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	standard, takeout, err := req.parsePrices()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	dish, err := h.store.UpdateDish(r.Context(), database.UpdateDishParams{
		ID:            id,
		Description:   req.Description,
		StandardPrice: standard,
		TakeoutPrice:  takeout,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: update dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbDishToResponse(dish))
}

// Delete handles DELETE /dishes/{id}.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}
	if err := h.store.DeleteDish(r.Context(), id); err != nil {
		log.Printf("ERROR: delete dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func dbDishToResponse(d database.Dish) dishResponse {
	return dishResponse{
		ID:            d.ID,
		Description:   d.Description,
		StandardPrice: numericToString(d.StandardPrice),
		TakeoutPrice:  numericToString(d.TakeoutPrice),
	}
}

func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	err := n.Scan(d.String())
	return n, err
}
