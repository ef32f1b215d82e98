package errors

import "net/http"

const (
	CodeNotInitialized   = "NOT_INITIALIZED"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeSegmentNotFound  = "SEGMENT_NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeEncodingError    = "ENCODING_ERROR"
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodeUploadFailure    = "UPLOAD_FAILURE"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
)

var (
	ErrNotInitialized = New(
		CodeNotInitialized,
		"Route store is not configured or unreachable",
		http.StatusServiceUnavailable,
	)

	ErrRouteNotFound = New(
		CodeRouteNotFound,
		"Route not found",
		http.StatusNotFound,
	)

	ErrSegmentNotFound = New(
		CodeSegmentNotFound,
		"Segment not found",
		http.StatusNotFound,
	)

	ErrPermissionDenied = New(
		CodePermissionDenied,
		"Route belongs to another user",
		http.StatusForbidden,
	)

	ErrEncodingError = New(
		CodeEncodingError,
		"Malformed geometry or fragment",
		http.StatusUnprocessableEntity,
	)

	ErrSchemaMismatch = New(
		CodeSchemaMismatch,
		"Stored document does not match the expected schema",
		http.StatusUnprocessableEntity,
	)

	ErrUploadFailure = New(
		CodeUploadFailure,
		"Media upload failed",
		http.StatusBadGateway,
	)

	ErrInvalidRequest = New(
		CodeInvalidRequest,
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Missing or invalid credentials",
		http.StatusUnauthorized,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
