package common

import "errors"

// Callers should use errors.Is to match these values; lower layers wrap them
// with additional context.
var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrDecryption marks a ciphertext that could not be reversed. It is a
	// data-integrity failure and is never retried.
	ErrDecryption = errors.New("decryption failed")

	// Recovery flow errors.
	ErrOTPInvalid = errors.New("otp invalid")
	ErrOTPExpired = errors.New("otp expired")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
