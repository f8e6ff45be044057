// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across token/service/repo layers.
var (
	// ErrInvalidToken indicates an opaque token that could not be decrypted
	// or fails the cipher's integrity check.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMalformedToken indicates a decrypted payload with the wrong field count.
	ErrMalformedToken = errors.New("malformed token")

	// ErrExpired indicates a token presented after its embedded expiry.
	ErrExpired = errors.New("token expired")

	// ErrInvalidSignature indicates a MAC mismatch on a signed token. Mapped to
	// the same client-facing response as ErrInvalidToken but logged distinctly
	// for audit.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (duplicate
	// attendance row, repeated video-watched marking).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoEnrollment indicates the scanning student belongs to no class at all.
	ErrNoEnrollment = errors.New("no class enrollment")

	// ErrConfiguration indicates missing operator configuration (a step without
	// a configured time window). Fatal for the request; never surfaced as a
	// normal workflow outcome.
	ErrConfiguration = errors.New("configuration error")
)
