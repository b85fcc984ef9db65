// Package httputil provides HTTP utilities for standardized request and
// response handling.
//
// # Overview
//
// This package offers helpers for JSON encoding/decoding, error responses,
// path parameter parsing, and the common middleware the API server installs
// on every route.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//	httputil.WriteBadRequest(w, "name is required")
//
// # Request Parsing
//
//	var req addMembersRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // error response already written
//	}
//	id, ok := httputil.PathVarOrError(w, r, "id")
//
// # Middleware
//
//	router.Use(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// # Related Packages
//
//   - pkg/api: route handlers built on these helpers
package httputil
