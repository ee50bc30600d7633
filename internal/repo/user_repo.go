// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user accounts
// and refresh tokens.
package repo

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denshikawa/go-manga-backend/internal/domain"
)

// CreateUser inserts a new account row.
func CreateUser(db *gorm.DB, email, username, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "user",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	return u, db.Create(u).Error
}

// GetUserByEmail fetches a user by email, returning (nil, nil) on a miss.
func GetUserByEmail(db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by username, returning (nil, nil) on a miss.
func GetUserByUsername(db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by ID.
func GetUser(db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateRefreshToken records an issued refresh token by its hash.
func CreateRefreshToken(db *gorm.DB, userID, tokenHash string, expiresAt time.Time) (*domain.RefreshToken, error) {
	rt := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	return rt, db.Create(rt).Error
}

// GetRefreshTokenByHash fetches a refresh token row by hash, returning
// (nil, nil) when no such token was ever issued.
func GetRefreshTokenByHash(db *gorm.DB, tokenHash string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := db.Where("token_hash = ?", tokenHash).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks one token as revoked. Idempotent.
func RevokeRefreshToken(db *gorm.DB, id string) error {
	now := time.Now().UTC()
	return db.Model(&domain.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}

// RevokeUserRefreshTokens revokes every live token a user holds.
func RevokeUserRefreshTokens(db *gorm.DB, userID string) error {
	now := time.Now().UTC()
	return db.Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}
