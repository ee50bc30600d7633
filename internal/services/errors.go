// Package services defines the business logic for the manga catalog, user
// accounts, and per-user library state. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrInvalidCredentials is returned when a login attempt presents an
	// unknown email or a wrong password. Deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when registering with a username that is
	// already in use.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrWeakPassword is returned when a password does not meet the minimum
	// length requirement.
	ErrWeakPassword = errors.New("password too weak")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Token-related errors.
var (
	// ErrTokenInvalid is returned for tokens that were never issued or fail
	// signature/shape validation.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked is returned for refresh tokens that were rotated away
	// or explicitly revoked by logout.
	ErrTokenRevoked = errors.New("token revoked")
)

// Catalog and library errors.
var (
	// ErrNoPages is returned when a chapter has no readable pages: hosted
	// externally, zero pages, or an empty image manifest.
	ErrNoPages = errors.New("chapter has no pages available")

	// ErrChapterNotFound indicates the chapter does not appear in its
	// manga's chapter list for the requested language.
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrProgressNotFound indicates the user has no recorded position for
	// the manga.
	ErrProgressNotFound = errors.New("reading progress not found")
)
