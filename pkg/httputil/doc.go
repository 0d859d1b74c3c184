// Package httputil provides JSON response helpers, path parameter parsing and
// the request ID, logging and recovery middleware.
//
// Error bodies are always {"error": "<message>"}. WriteError derives the status
// code from the apperror kind:
//
//	id, err := httputil.ParsePositiveInt32(r, "id")
//	if err != nil {
//		httputil.WriteError(w, apperror.Validation("id must be a positive integer"))
//		return
//	}
//
// Middleware compose with Chain, outermost first:
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//	)(router)
package httputil
