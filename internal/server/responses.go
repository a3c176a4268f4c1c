package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type EntryRequest struct {
	Plate              string `json:"plate"`
	Category           string `json:"category"`
	EngineDisplacement int    `json:"engine_displacement"`
}

type ExitRequest struct {
	Plate string `json:"plate"`
}

type RecordResponse struct {
	ID                 string     `json:"id"`
	Plate              string     `json:"plate"`
	Category           string     `json:"category"`
	EngineDisplacement int        `json:"engine_displacement,omitempty"`
	EntryTime          time.Time  `json:"entry_time"`
	ExitTime           *time.Time `json:"exit_time,omitempty"`
	AmountCharged      *int64     `json:"amount_charged,omitempty"`
	AmountDue          *int64     `json:"amount_due,omitempty"`
}

type CategoryStatusResponse struct {
	Category  string `json:"category"`
	Occupied  int    `json:"occupied"`
	Limit     int    `json:"limit"`
	Available int    `json:"available"`
}

type StatusResponse struct {
	Categories []CategoryStatusResponse `json:"categories"`
	Vehicles   []RecordResponse         `json:"vehicles"`
}

func toRecordResponse(rec *parking.SlotRecord) RecordResponse {
	return RecordResponse{
		ID:                 rec.ID.String(),
		Plate:              rec.Vehicle.Plate(),
		Category:           rec.Vehicle.Category().String(),
		EngineDisplacement: rec.Vehicle.EngineDisplacement(),
		EntryTime:          rec.EntryTime,
		ExitTime:           rec.ExitTime,
		AmountCharged:      rec.AmountCharged,
	}
}

func toRecordResponses(records []*parking.SlotRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	meta.RequestID = logging.RequestID(ctx)

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(ctx, w, http.StatusOK, message, data)
}

func WriteSuccessStatus(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
