package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/itemservice/pkg/httputil"
	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

// Server represents our API server
type Server struct {
	store    storage.ItemReader
	router   *mux.Router
	registry *observability.Registry
	health   *observability.HealthChecker
	logger   *observability.Logger
	handler  http.Handler

	serviceName    string
	tracerProvider trace.TracerProvider
}

// Option configures a Server
type Option func(*Server)

// WithServiceName sets the value of the service response header
func WithServiceName(name string) Option {
	return func(s *Server) {
		s.serviceName = name
	}
}

// WithTracerProvider overrides the global tracer provider for request spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// NewServer creates a new API server. registry must come from observability.NewHTTPRegistry.
func NewServer(store storage.ItemReader, registry *observability.Registry, health *observability.HealthChecker, logger *observability.Logger, opts ...Option) *Server {
	s := &Server{
		store:       store,
		router:      mux.NewRouter(),
		registry:    registry,
		health:      health,
		logger:      logger,
		serviceName: observability.DefaultServiceName,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = s.middleware()(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Probes
	s.router.HandleFunc(observability.HealthPath, s.health.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc(observability.ReadinessPath, s.health.Readiness).Methods(http.MethodGet)

	// Exposition
	s.router.HandleFunc(observability.MetricsPath, s.metrics).Methods(http.MethodGet)

	// Item routes
	s.router.HandleFunc("/api/item/{id}", s.getItem).Methods(http.MethodGet)
}

// middleware orders the stack outermost first. Recovery sits inside the
// instrumentation so a recovered panic is counted as a 500.
func (s *Server) middleware() func(http.Handler) http.Handler {
	instrument := []observability.MiddlewareOption{
		observability.WithRouteResolver(observability.MuxRouteResolver(s.router)),
		observability.WithExemptPaths(observability.ReadinessPath),
		observability.WithServiceHeader(observability.DefaultServiceHeader, s.serviceName),
	}
	if s.tracerProvider != nil {
		instrument = append(instrument, observability.WithTracerProvider(s.tracerProvider))
	}

	return httputil.Chain(
		observability.HTTPMiddleware(s.registry, instrument...),
		httputil.RequestIDMiddleware(s.logger),
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
	)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the route table
func (s *Server) Router() *mux.Router {
	return s.router
}
