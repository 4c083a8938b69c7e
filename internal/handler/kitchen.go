package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultTicketLimit = 50

// KitchenStore defines the database methods needed by kitchen handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type KitchenStore interface {
	ListRecentKitchenTickets(ctx context.Context, limit int32) ([]database.KitchenTicket, error)
}

// KitchenHandler serves the kitchen display: a websocket feed of new
// tickets plus a backlog endpoint for reconnecting displays.
type KitchenHandler struct {
	store KitchenStore
	hub   *ws.Hub
}

func NewKitchenHandler(store KitchenStore, hub *ws.Hub) *KitchenHandler {
	return &KitchenHandler{store: store, hub: hub}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tickets", h.ListTickets)
	r.Get("/ws", h.Serve)
}

type ticketResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	DishDescription string    `json:"dish_description"`
	Quantity        int32     `json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListTickets handles GET /kitchen/tickets. Displays call this on
// startup to backfill anything missed while disconnected.
func (h *KitchenHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultTicketLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	tickets, err := h.store.ListRecentKitchenTickets(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: list kitchen tickets: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = ticketResponse{
			ID:              t.ID,
			OrderID:         t.OrderID,
			DishDescription: t.DishDescription,
			Quantity:        t.Quantity,
			CreatedAt:       t.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Serve handles GET /kitchen/ws, upgrading to a websocket.
func (h *KitchenHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}
