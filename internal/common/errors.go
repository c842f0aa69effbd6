// Package common defines shared constants and sentinel errors used across
// the vault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrorDuplicateUsername = errors.New("username already taken")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors surfaced to the caller as clean rejections.
	ErrorInvalidUpload  = errors.New("invalid upload")
	ErrorBadCredential  = errors.New("bad credential")
	ErrorNoFaceDetected = errors.New("no face detected")
	ErrorFaceMismatch   = errors.New("face mismatch")

	// Cipher errors. Decrypt fails closed: a tampered or foreign ciphertext
	// yields ErrorIntegrity, never partially decrypted data.
	ErrorIntegrity = errors.New("ciphertext integrity check failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
