package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditStore defines the database methods needed by audit handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuditStore interface {
	ListAuditRecords(ctx context.Context, arg database.ListAuditRecordsParams) ([]database.AuditRecord, error)
	GetAuditRecord(ctx context.Context, id uuid.UUID) (database.AuditRecord, error)
}

// AuditHandler handles cancellation audit endpoints. Manager only.
type AuditHandler struct {
	store AuditStore
}

func NewAuditHandler(store AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// RegisterRoutes registers audit endpoints on the given Chi router.
func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// List handles GET /audit-records with optional filters:
// start_date, end_date (RFC 3339), risk_level, cancelled_by, limit, offset.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListAuditRecordsParams{
		Limit: defaultAuditPageSize,
	}
	q := r.URL.Query()

	if s := q.Get("start_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be RFC 3339"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := q.Get("end_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be RFC 3339"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := q.Get("risk_level"); s != "" {
		if s != enum.RiskLevelLow && s != enum.RiskLevelMedium && s != enum.RiskLevelHigh {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid risk_level"})
			return
		}
		params.RiskLevel = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("cancelled_by"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cancelled_by"})
			return
		}
		params.CancelledBy = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxAuditPageSize {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		params.Limit = int32(n)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	records, err := h.store.ListAuditRecords(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list audit records: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]auditRecordResponse, len(records))
	for i, rec := range records {
		resp[i] = dbAuditRecordToResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /audit-records/{id}.
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid audit record ID"})
		return
	}

	record, err := h.store.GetAuditRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "audit record not found"})
			return
		}
		log.Printf("ERROR: get audit record: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbAuditRecordToResponse(record))
}
