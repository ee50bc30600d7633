// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the account-scoped
// routes. Token verification itself lives in the auth service; this layer
// only extracts the header, delegates, and stores the resulting identity in
// the Gin context for handlers and the rate limiter.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/services"
)

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	VerifyAccess(token string) (*services.AccessClaims, error)
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// Authorization: Bearer token. On success it stores userID, userEmail,
// userName, and userRole in the Gin context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			msg := "invalid access token"
			if errors.Is(err, services.ErrTokenExpired) {
				msg = "access token expired"
			}
			unauthorized(c, msg)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("userName", claims.Username)
		c.Set("userRole", claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" when the request did not
// pass RequireAuth.
func UserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
