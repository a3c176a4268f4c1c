package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

const defaultHistoryLimit = 50

// HealthFunc reports whether a dependency of the service is reachable.
type HealthFunc func(ctx context.Context) error

type Handler struct {
	attendant   *parking.InstrumentedAttendant
	serviceName string
	healthCheck HealthFunc
}

// NewHandler builds the API handlers. healthCheck may be nil when the
// ledger has no external dependency.
func NewHandler(attendant *parking.InstrumentedAttendant, serviceName string, healthCheck HealthFunc) *Handler {
	return &Handler{
		attendant:   attendant,
		serviceName: serviceName,
		healthCheck: healthCheck,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			logging.Warn(r.Context()).Err(err).Msg("health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "unhealthy",
				Service: h.serviceName,
				Meta:    extractMeta(r.Context()),
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) RegisterEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := parking.ParseCategory(req.Category)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Category must be car or motorcycle")
		return
	}

	vehicle, err := parking.NewVehicle(req.Plate, category, req.EngineDisplacement)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.attendant.Enter(ctx, vehicle)
	if err != nil {
		h.writeParkingError(w, r, err)
		return
	}

	WriteSuccessStatus(ctx, w, http.StatusCreated, "Entry registered", toRecordResponse(rec))
}

func (h *Handler) RegisterExit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	rec, err := h.attendant.Exit(ctx, req.Plate)
	if err != nil {
		h.writeParkingError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Exit registered", toRecordResponse(rec))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.attendant.Status(ctx)
	if err != nil {
		h.writeParkingError(w, r, err)
		return
	}

	response := StatusResponse{
		Vehicles: toRecordResponses(status.Active),
	}
	for _, cs := range status.Categories {
		response.Categories = append(response.Categories, CategoryStatusResponse{
			Category:  cs.Category.String(),
			Occupied:  cs.Occupied,
			Limit:     cs.Limit,
			Available: cs.Available,
		})
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) FindVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	rec, amount, err := h.attendant.Quote(ctx, plate)
	if err != nil {
		h.writeParkingError(w, r, err)
		return
	}

	response := toRecordResponse(rec)
	response.AmountDue = &amount

	WriteSuccess(ctx, w, "Vehicle found", response)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(ctx, w, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.attendant.History(ctx, limit)
	if err != nil {
		h.writeParkingError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "History retrieved successfully", toRecordResponses(records))
}

func (h *Handler) writeParkingError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var restriction *parking.RestrictionError
	var capacity *parking.CapacityError
	var interval *parking.InvalidIntervalError

	switch {
	case errors.As(err, &restriction):
		WriteError(ctx, w, http.StatusForbidden, restriction.Message)
	case errors.As(err, &capacity):
		WriteError(ctx, w, http.StatusConflict, capacity.Message)
	case errors.Is(err, parking.ErrAlreadyParked):
		WriteError(ctx, w, http.StatusConflict, "Vehicle is already parked")
	case errors.Is(err, parking.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
	case errors.As(err, &interval):
		WriteError(ctx, w, http.StatusUnprocessableEntity, interval.Error())
	default:
		logging.Error(ctx).Err(err).Str("path", r.URL.Path).Msg("parking operation failed")
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
