// Package services – AuthService
//
// This file implements AuthService, which owns account registration, login,
// and the refresh-token lifecycle. Access tokens are short-lived HS256 JWTs;
// refresh tokens are opaque random values stored only as SHA-256 hashes and
// rotated on every use, so a leaked database never yields a usable token and
// a replayed refresh token is detected as revoked.

package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// AccessClaims is the validated payload of an access token.
type AccessClaims struct {
	UserID   string
	Email    string
	Username string
	Role     string
}

// AuthService coordinates account and token persistence.
type AuthService struct {
	DB *gorm.DB

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PasswordMinLen  int

	// Now is injectable for deterministic expiry tests.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Register creates an account. Email and username collisions surface as
// distinct errors so the handler can point at the offending field.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	if utf8.RuneCountInString(password) < s.PasswordMinLen {
		return nil, ErrWeakPassword
	}

	if existing, err := repo.GetUserByEmail(s.DB.WithContext(ctx), email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := repo.GetUserByUsername(s.DB.WithContext(ctx), username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return repo.CreateUser(s.DB.WithContext(ctx), email, username, string(hash))
}

// Login verifies the password and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	user, err := repo.GetUserByEmail(s.DB.WithContext(ctx), email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issuePair(ctx, user)
}

// Refresh validates a presented refresh token and rotates it: the old token
// is revoked and a fresh pair is issued. A token that was already rotated or
// logged out comes back as ErrTokenRevoked, which a client should treat as a
// forced re-login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Refresh")
	defer span.End()

	row, err := repo.GetRefreshTokenByHash(s.DB.WithContext(ctx), hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrTokenInvalid
	}
	if row.RevokedAt != nil {
		return nil, ErrTokenRevoked
	}
	if !s.now().Before(row.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := repo.GetUser(s.DB.WithContext(ctx), row.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if err := repo.RevokeRefreshToken(s.DB.WithContext(ctx), row.ID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token. Unknown tokens are rejected so
// a client bug (sending the access token here) is visible.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Logout")
	defer span.End()

	row, err := repo.GetRefreshTokenByHash(s.DB.WithContext(ctx), hashToken(refreshToken))
	if err != nil {
		return err
	}
	if row == nil {
		return ErrTokenInvalid
	}
	return repo.RevokeRefreshToken(s.DB.WithContext(ctx), row.ID)
}

// GetUser fetches the account behind a validated access token.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := repo.GetUser(s.DB.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// VerifyAccess parses and validates an access token, returning its claims.
func (s *AuthService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.JWTSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrTokenInvalid
	}
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return &AccessClaims{UserID: sub, Email: email, Username: username, Role: role}, nil
}

// issuePair mints an access JWT and stores the hash of a fresh opaque
// refresh token.
func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.AccessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateRefreshToken(s.DB.WithContext(ctx), user.ID, hashToken(refresh), now.Add(s.RefreshTokenTTL)); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
