// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-user
// library state: bookmarks, reading progress, and reading history.
package repo

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denshikawa/go-manga-backend/internal/domain"
)

// AddBookmark saves a manga for a user. Saving twice is a no-op.
func AddBookmark(db *gorm.DB, userID, mangaMangadexID string) error {
	b := &domain.Bookmark{
		ID:              uuid.NewString(),
		UserID:          userID,
		MangaMangadexID: mangaMangadexID,
		CreatedAt:       time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_mangadex_id"}},
		DoNothing: true,
	}).Create(b).Error
}

// RemoveBookmark deletes a saved manga. Removing a bookmark that does not
// exist is a no-op.
func RemoveBookmark(db *gorm.DB, userID, mangaMangadexID string) error {
	return db.
		Where("user_id = ? AND manga_mangadex_id = ?", userID, mangaMangadexID).
		Delete(&domain.Bookmark{}).Error
}

// ListBookmarks returns a user's saved manga, newest first.
func ListBookmarks(db *gorm.DB, userID string) ([]domain.Bookmark, error) {
	var out []domain.Bookmark
	err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// UpsertProgress writes the last read position for (user, manga), overwriting
// any previous position.
func UpsertProgress(db *gorm.DB, userID, mangaMangadexID, chapterMangadexID string, pageNumber int) error {
	p := &domain.ReadingProgress{
		ID:                uuid.NewString(),
		UserID:            userID,
		MangaMangadexID:   mangaMangadexID,
		ChapterMangadexID: chapterMangadexID,
		PageNumber:        pageNumber,
		UpdatedAt:         time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_mangadex_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chapter_mangadex_id", "page_number", "updated_at"}),
	}).Create(p).Error
}

// GetProgress fetches the last read position for (user, manga), returning
// (nil, nil) when the user has not started the manga.
func GetProgress(db *gorm.DB, userID, mangaMangadexID string) (*domain.ReadingProgress, error) {
	var p domain.ReadingProgress
	err := db.Where("user_id = ? AND manga_mangadex_id = ?", userID, mangaMangadexID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProgress returns every reading position a user holds, most recently
// updated first.
func ListProgress(db *gorm.DB, userID string) ([]domain.ReadingProgress, error) {
	var out []domain.ReadingProgress
	err := db.Where("user_id = ?", userID).Order("updated_at DESC, id DESC").Find(&out).Error
	return out, err
}

// AppendHistory records one read chapter in the append-only history log.
func AppendHistory(db *gorm.DB, userID, mangaMangadexID, chapterMangadexID string) error {
	h := &domain.ReadingHistory{
		ID:                uuid.NewString(),
		UserID:            userID,
		MangaMangadexID:   mangaMangadexID,
		ChapterMangadexID: chapterMangadexID,
		ReadAt:            time.Now().UTC(),
	}
	return db.Create(h).Error
}

// CountHistory returns the total number of history entries for a user.
func CountHistory(db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.Model(&domain.ReadingHistory{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

// ListHistoryPage returns a page of a user's history, most recent first.
func ListHistoryPage(db *gorm.DB, userID string, offset, limit int) ([]domain.ReadingHistory, error) {
	var out []domain.ReadingHistory
	err := db.
		Where("user_id = ?", userID).
		Order("read_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
