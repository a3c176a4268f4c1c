package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port string, attendant *parking.InstrumentedAttendant, serviceName string, healthCheck HealthFunc) *Server {
	handler := NewHandler(attendant, serviceName, healthCheck)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler, attendant),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler, attendant *parking.InstrumentedAttendant) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	// Tracing wraps logging so the access log carries the request span.
	r.Use(TracingMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(newRegistry(attendant.Attendant), promhttp.HandlerOpts{}))

	r.Route("/api/parking", func(r chi.Router) {
		r.Post("/entries", handler.RegisterEntry)
		r.Post("/exits", handler.RegisterExit)
		r.Get("/status", handler.GetStatus)
		r.Get("/history", handler.GetHistory)
		r.Get("/vehicles/{plate}", handler.FindVehicle)
	})

	return r
}

func (s *Server) Start() error {
	logging.Logger().Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logger().Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
