package models

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP status codes; nothing below the handlers knows about HTTP.
var (
	// ErrNotFound means the task id resolves to no record at all. It is
	// checked before any role derivation.
	ErrNotFound = errors.New("task not found")

	// ErrForbidden means the record exists but the caller's role does not
	// permit the requested operation.
	ErrForbidden = errors.New("access forbidden: insufficient permissions")

	// ErrStoreUnavailable means a store transaction could not complete.
	// Pending-assignment resolution treats this as retryable: the login
	// flow proceeds and the binding stays pending for a later attempt.
	ErrStoreUnavailable = errors.New("task store unavailable")

	// ErrUnauthorized means the caller presented no valid identity.
	ErrUnauthorized = errors.New("unauthorized")
)
