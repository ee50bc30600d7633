// Package handlers defines HTTP-layer error codes and the translation from
// service-level errors to HTTP responses.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic error handling, supplemented by human-readable messages.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/mangadex"
	"github.com/denshikawa/go-manga-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeUpstreamFailed   = "upstream_failed"
	ErrCodeUpstreamBanned   = "upstream_unavailable"
	ErrCodeNoPages          = "no_pages"
	ErrCodeWeakPassword     = "weak_password"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failFromError maps a service or upstream error onto the HTTP envelope.
// Unrecognized errors become opaque 500s so internals never leak.
func failFromError(c *gin.Context, err error) {
	var upstream *mangadex.UpstreamError

	switch {
	// Account and token errors.
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
	case errors.Is(err, services.ErrWeakPassword):
		fail(c, http.StatusBadRequest, ErrCodeWeakPassword, "password does not meet the minimum length")
	case errors.Is(err, services.ErrTokenExpired):
		fail(c, http.StatusUnauthorized, ErrCodeTokenExpired, "token expired")
	case errors.Is(err, services.ErrTokenRevoked), errors.Is(err, services.ErrTokenInvalid):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "token invalid or revoked")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")

	// Catalog and library errors.
	case errors.Is(err, services.ErrNoPages):
		fail(c, http.StatusNotFound, ErrCodeNoPages, "chapter has no pages available")
	case errors.Is(err, services.ErrChapterNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chapter not found in this manga")
	case errors.Is(err, services.ErrProgressNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no reading progress recorded")

	// Upstream errors, mirrored onto gateway statuses.
	case errors.Is(err, mangadex.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "upstream rate limit exceeded, try again shortly")
	case errors.Is(err, mangadex.ErrTemporarilyBanned):
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamBanned, "upstream temporarily refusing requests")
	case errors.Is(err, mangadex.ErrAuthenticationFailed):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream authentication failed")
	case errors.Is(err, mangadex.ErrInvalidResponse):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream returned an unreadable response")
	case errors.Is(err, mangadex.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found upstream")
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found upstream")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream request failed")
	case isNetworkError(err):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "upstream unreachable")

	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func isNetworkError(err error) bool {
	var ne *mangadex.NetworkError
	return errors.As(err, &ne)
}
