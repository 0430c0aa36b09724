// Package common defines shared constants and sentinel errors used across
// the mediashelf server layers. Callers should use errors.Is to match these
// values; services wrap them with %w to attach detail.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors. ErrorInternal is the only text a client sees
	// for a failure that is none of the other kinds.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrInvalidCredentials is returned by login for both an unknown email
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
