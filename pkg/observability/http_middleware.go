package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultServiceHeader is the response header identifying the implementation
	DefaultServiceHeader = "X-Service"
	// DefaultServiceName is the value written to DefaultServiceHeader
	DefaultServiceName = "itemservice"

	// HealthPath and MetricsPath are never instrumented
	HealthPath  = "/health"
	MetricsPath = "/metrics"

	tracerName = "github.com/platinummonkey/itemservice/pkg/observability"
	spanName   = "http_request"
)

// RouteResolver returns the route template that matches r, if any
type RouteResolver func(r *http.Request) (template string, ok bool)

// MuxRouteResolver resolves templates from a gorilla/mux router without dispatching.
// Unmatched requests and method mismatches report ok=false.
func MuxRouteResolver(router *mux.Router) RouteResolver {
	return func(r *http.Request) (string, bool) {
		var match mux.RouteMatch
		if !router.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
			return "", false
		}

		template, err := match.Route.GetPathTemplate()
		if err != nil {
			return "", false
		}
		return template, true
	}
}

type middlewareConfig struct {
	resolver       RouteResolver
	exempt         map[string]struct{}
	headerName     string
	headerValue    string
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
}

// MiddlewareOption configures HTTPMiddleware
type MiddlewareOption func(*middlewareConfig)

// WithRouteResolver sets how the path label is derived
func WithRouteResolver(resolver RouteResolver) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.resolver = resolver
	}
}

// WithExemptPaths adds path labels that bypass instrumentation
func WithExemptPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, p := range paths {
			c.exempt[p] = struct{}{}
		}
	}
}

// WithServiceHeader sets the static identifying response header
func WithServiceHeader(name, value string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.headerName = name
		c.headerValue = value
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.tracerProvider = tp
	}
}

// WithPropagator overrides the global text map propagator used to join incoming traces
func WithPropagator(p propagation.TextMapPropagator) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.propagator = p
	}
}

// HTTPMiddleware instruments every request with a trace span, the request counter,
// the latency histogram and the in-flight gauge of a registry built by NewHTTPRegistry.
//
// The path label is the route template when the resolver knows one and the literal
// request path otherwise. Requests whose path label is exempt (HealthPath and
// MetricsPath by default) are passed through without metrics or spans. The service
// header is set on every response.
func HTTPMiddleware(registry *Registry, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		exempt: map[string]struct{}{
			HealthPath:  {},
			MetricsPath: {},
		},
		headerName:  DefaultServiceHeader,
		headerValue: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.propagator == nil {
		cfg.propagator = otel.GetTextMapPropagator()
	}
	tracer := cfg.tracerProvider.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.headerName != "" {
				w.Header().Set(cfg.headerName, cfg.headerValue)
			}

			method := strings.ToUpper(r.Method)
			path := r.URL.Path
			if cfg.resolver != nil {
				if template, ok := cfg.resolver(r); ok {
					path = template
				}
			}

			if _, skip := cfg.exempt[path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			registry.AddGauge(RequestsInProgressFamily, 1, path)
			defer registry.AddGauge(RequestsInProgressFamily, -1, path)

			ctx := cfg.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", method),
					attribute.String("url.full", r.RequestURI),
				),
			)
			defer span.End()

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r.WithContext(ctx))

			elapsed := time.Since(start).Seconds()
			code := strconv.Itoa(rw.statusCode)

			registry.IncrementCounter(RequestsTotalFamily, method, path, code)
			registry.ObserveHistogram(RequestDurationFamily, elapsed, method, path, code)

			span.SetAttributes(
				attribute.String("http.route", path),
				attribute.Int("http.response.status_code", rw.statusCode),
			)
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
