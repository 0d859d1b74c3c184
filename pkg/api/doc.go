// Package api provides the HTTP server for the item service.
//
// # Routes
//
//	GET /health          liveness, plain "ok"
//	GET /health/ready    readiness, JSON dependency report
//	GET /metrics         Prometheus text exposition
//	GET /api/item/{id}   one item as {"id": 1, "name": "widget"}
//
// Every request passes through observability.HTTPMiddleware, then request ID
// assignment, request logging and panic recovery. The probes and /metrics are
// exempt from request metrics and spans.
//
// # Errors
//
// Error bodies are {"error": "<message>"}. A non-positive or non-numeric id is
// 400, an unknown id is 404, and a store failure is 500 with "DB error: <cause>".
//
// # Usage
//
//	registry := observability.NewHTTPRegistry()
//	health := observability.NewHealthChecker(db, nil, version)
//	server := api.NewServer(store, registry, health, logger, api.WithServiceName("itemservice"))
//	http.ListenAndServe(":8080", server)
package api
