// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/ninelmnts/leadintake/internal/app"
	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
)

// maxBodyBytes bounds a lead submission body.
const maxBodyBytes = 1 << 20

// LeadService is what the HTTP layer needs from the fan-out service.
type LeadService interface {
	Submit(ctx context.Context, l lead.Lead) service.Report
	Relay(ctx context.Context, l lead.Lead) (service.RelayResult, error)
}

// Server wires HTTP routes for the lead API.
type Server struct {
	healthHandler *HealthHandler
	leadHandler   *LeadHandler
	relayHandler  *RelayHandler
	corsOrigin    string
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigin enables CORS for origin. Empty leaves CORS off.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(svc LeadService, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.leadHandler = NewLeadHandler(svc, s.logger)
	s.relayHandler = NewRelayHandler(svc, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.wrap(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/ai-empire-lead", s.wrap(s.relayHandler.HandleRelay, "relay"))
	mux.HandleFunc("/ai-empire-lead-submission", s.wrap(s.leadHandler.HandleSubmit, "submit"))
	// "/" matches every unregistered path; the handler itself 404s anything but the root.
	mux.HandleFunc("/", s.wrap(s.leadHandler.HandleRoot, "submit"))
}

// wrap applies the middleware chain shared by every route.
func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	h = MetricsMiddleware(h, endpoint)
	h = RequestIDMiddleware(h)
	if s.corsOrigin != "" {
		h = CORSMiddleware(h, s.corsOrigin)
	}
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = publicMessage(err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
