package models

import "errors"

// Application-wide standard errors. Handlers map these to HTTP status codes
// at the boundary; everything below the handlers wraps them with %w.
var (
	ErrValidation       = errors.New("invalid input data")          // 400
	ErrUnauthorized     = errors.New("unauthorized")                // 401
	ErrNotFound         = errors.New("resource not found")          // 404
	ErrConflict         = errors.New("resource conflict")           // 409
	ErrMethodNotAllowed = errors.New("method not allowed")          // 405
	ErrProvider         = errors.New("upstream provider call failed")
	ErrMalformedOutput  = errors.New("model output is not valid JSON")
	ErrPersistence      = errors.New("database operation failed")
)
