// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the upstream
// catalog cache tables.
package repo

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denshikawa/go-manga-backend/internal/domain"
)

// GetMangaCache fetches the cached row for one upstream manga. A missing row
// is not an error: callers treat (nil, nil) as a cache miss.
func GetMangaCache(db *gorm.DB, mangadexID string) (*domain.MangaCache, error) {
	var row domain.MangaCache
	err := db.Where("mangadex_id = ?", mangadexID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertMangaCache writes one manga row, inserting or fully overwriting on the
// upstream identifier. CachedAt is reset so the row counts as fresh.
func UpsertMangaCache(db *gorm.DB, row *domain.MangaCache) error {
	row.ID = uuid.NewString()
	row.CachedAt = time.Now().UTC()
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mangadex_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "alt_titles", "description", "cover_url", "status",
			"year", "content_rating", "tags", "author_names", "artist_names",
			"cached_at",
		}),
	}).Create(row).Error
}

// ListChapterCache returns every cached chapter of a manga in one language,
// ordered by numeric chapter value. Chapter numbers are stored as text, so the
// CAST keeps "2" before "10".
func ListChapterCache(db *gorm.DB, mangaMangadexID, language string) ([]domain.ChapterCache, error) {
	var out []domain.ChapterCache
	err := db.
		Where("manga_mangadex_id = ? AND language = ?", mangaMangadexID, language).
		Order("CAST(chapter_number AS REAL) ASC, chapter_number ASC").
		Find(&out).Error
	return out, err
}

// PruneChapterCache deletes cached chapters of one manga/language pair whose
// upstream identifier is absent from keep. Called after a full feed refresh so
// delisted chapters do not linger. An empty keep clears the whole set.
func PruneChapterCache(db *gorm.DB, mangaMangadexID, language string, keep []string) error {
	q := db.Where("manga_mangadex_id = ? AND language = ?", mangaMangadexID, language)
	if len(keep) > 0 {
		q = q.Where("mangadex_id NOT IN ?", keep)
	}
	return q.Delete(&domain.ChapterCache{}).Error
}

// GetChapterCache fetches one cached chapter by its upstream identifier,
// returning (nil, nil) on a miss.
func GetChapterCache(db *gorm.DB, mangadexID string) (*domain.ChapterCache, error) {
	var row domain.ChapterCache
	err := db.Where("mangadex_id = ?", mangadexID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertChapterCache writes one chapter row, inserting or fully overwriting on
// the upstream identifier, resetting CachedAt.
func UpsertChapterCache(db *gorm.DB, row *domain.ChapterCache) error {
	row.ID = uuid.NewString()
	row.CachedAt = time.Now().UTC()
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mangadex_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"manga_mangadex_id", "chapter_number", "volume", "title", "language",
			"scanlation_group_id", "scanlation_group_name", "page_count",
			"published_at", "cached_at",
		}),
	}).Create(row).Error
}
