// Package mangadex implements the resilient client for the upstream MangaDex
// REST catalog: a shared token-bucket gate on outbound requests, capped
// exponential retry with a wall-clock budget, and a self-renewing credential
// pair for the identity endpoint.
//
// This file centralizes the upstream error taxonomy. The transient/permanent
// distinction used to drive retries is internal to this package; callers only
// ever see one of the kinds below.
package mangadex

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited indicates the upstream answered 429.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrTemporarilyBanned indicates the upstream answered 403, which it uses
	// as a temporary abuse-cooldown signal rather than an authorization error.
	ErrTemporarilyBanned = errors.New("upstream temporarily refusing requests")

	// ErrAuthenticationFailed indicates the identity endpoint rejected the
	// configured credentials.
	ErrAuthenticationFailed = errors.New("upstream authentication failed")

	// ErrInvalidResponse indicates a response body that did not match the
	// expected schema.
	ErrInvalidResponse = errors.New("invalid upstream response format")

	// ErrNotFound indicates logical absence, e.g. a required relationship
	// missing from an otherwise well-formed upstream object.
	ErrNotFound = errors.New("not found")
)

// NetworkError wraps a transport-level failure (connection refused, timeout,
// TLS, DNS). Always treated as transient by the retry engine.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError carries any other non-success status together with the
// response body. It is permanent: the same request would fail the same way.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error: HTTP %d: %s", e.Status, e.Body)
}
