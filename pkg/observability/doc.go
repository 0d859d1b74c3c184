// Package observability provides request metrics, tracing, structured logging,
// health probes and graceful shutdown for the item service.
//
// # Request metrics
//
// Registry holds labelled counter, histogram and gauge families and renders them
// in the Prometheus text exposition format. HTTPMiddleware records three families
// per request:
//
//	requests_total{method,path,code}
//	request_duration_seconds{method,path,code}
//	requests_in_progress{path}
//
// The path label is the matched route template, so /api/item/1 and /api/item/42
// share the series path="/api/item/{id}". Requests for /health and /metrics are
// not instrumented.
//
//	registry := observability.NewHTTPRegistry()
//	handler := observability.HTTPMiddleware(registry,
//		observability.WithRouteResolver(observability.MuxRouteResolver(router)),
//	)(router)
//
// # Tracing and OTLP export
//
// InitOTel installs the W3C propagator and, when enabled, OTLP/gRPC trace and
// metric exporters. StoreMetrics records database and cache instruments on the
// installed meter provider.
//
// # Logging
//
// Logger writes JSON lines through logrus. FromContext returns the request logger
// with request_id, trace_id and span_id attached.
package observability
