// Package common defines shared constants and sentinel errors used across
// the storage, service and transport layers of oneiromind. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// A requested action is not valid in the session's current phase.
	ErrorInvalidTransition = errors.New("invalid transition")

	// An external AI collaborator failed or timed out.
	ErrorCollaborator = errors.New("collaborator failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
