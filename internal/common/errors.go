// Package common defines shared constants and sentinel errors used across
// picstore components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Submission-level errors.
	ErrorSubmissionAborted = errors.New("submission aborted")
	ErrorOwnerProvisioning = errors.New("owner provisioning failed")
)
