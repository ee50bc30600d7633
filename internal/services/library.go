// Package services – LibraryService
//
// This file implements LibraryService, the per-user reading state on top of
// the catalog: bookmarks, a single reading position per manga, and an
// append-only history log. Bookmark listings are enriched from the manga
// cache when a row exists, without triggering upstream fetches.

package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/manga"
	"github.com/denshikawa/go-manga-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BookmarkEntry is a saved manga with whatever the cache knows about it.
// Manga is nil when the title was never fetched through the catalog.
type BookmarkEntry struct {
	MangaMangadexID string       `json:"manga_mangadex_id"`
	CreatedAt       string       `json:"created_at"`
	Manga           *manga.Manga `json:"manga,omitempty"`
}

// LibraryService coordinates per-user reading state.
type LibraryService struct {
	DB *gorm.DB
}

// AddBookmark saves a manga for the user. Idempotent.
func (s *LibraryService) AddBookmark(ctx context.Context, userID, mangaID string) error {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "AddBookmark",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("manga.id", mangaID)),
	)
	defer span.End()

	return repo.AddBookmark(s.DB.WithContext(ctx), userID, mangaID)
}

// RemoveBookmark drops a saved manga. Idempotent.
func (s *LibraryService) RemoveBookmark(ctx context.Context, userID, mangaID string) error {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "RemoveBookmark",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("manga.id", mangaID)),
	)
	defer span.End()

	return repo.RemoveBookmark(s.DB.WithContext(ctx), userID, mangaID)
}

// ListBookmarks returns the user's saved manga, newest first, enriched from
// the local cache only.
func (s *LibraryService) ListBookmarks(ctx context.Context, userID string) ([]BookmarkEntry, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "ListBookmarks",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	rows, err := repo.ListBookmarks(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	out := make([]BookmarkEntry, 0, len(rows))
	for _, b := range rows {
		entry := BookmarkEntry{
			MangaMangadexID: b.MangaMangadexID,
			CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
		}
		cached, err := repo.GetMangaCache(s.DB.WithContext(ctx), b.MangaMangadexID)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			m := manga.FromMangaRow(*cached)
			entry.Manga = &m
		}
		out = append(out, entry)
	}
	return out, nil
}

// UpdateProgress records the user's position in a manga and appends a
// history entry for the chapter.
func (s *LibraryService) UpdateProgress(ctx context.Context, userID, mangaID, chapterID string, page int) error {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "UpdateProgress",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("manga.id", mangaID),
			attribute.String("chapter.id", chapterID),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpsertProgress(tx, userID, mangaID, chapterID, page); err != nil {
			return err
		}
		return repo.AppendHistory(tx, userID, mangaID, chapterID)
	})
}

// GetProgress returns the user's position in a manga.
func (s *LibraryService) GetProgress(ctx context.Context, userID, mangaID string) (*domain.ReadingProgress, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "GetProgress",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("manga.id", mangaID)),
	)
	defer span.End()

	p, err := repo.GetProgress(s.DB.WithContext(ctx), userID, mangaID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProgressNotFound
	}
	return p, nil
}

// ListProgress returns every reading position the user holds, most recently
// updated first.
func (s *LibraryService) ListProgress(ctx context.Context, userID string) ([]domain.ReadingProgress, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "ListProgress",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.ListProgress(s.DB.WithContext(ctx), userID)
}

// MarkRead appends a history entry for a chapter without touching the
// per-manga position. Callers resolve and validate the chapter first.
func (s *LibraryService) MarkRead(ctx context.Context, userID, mangaID, chapterID string) error {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("chapter.id", chapterID),
		),
	)
	defer span.End()

	return repo.AppendHistory(s.DB.WithContext(ctx), userID, mangaID, chapterID)
}

// HistoryPage returns one page of the user's reading history, most recent
// first, together with the total entry count.
func (s *LibraryService) HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ReadingHistory, int64, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "HistoryPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountHistory(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ReadingHistory{}, 0, nil
	}
	items, err := repo.ListHistoryPage(s.DB.WithContext(ctx), userID, offset, pageSize)
	return items, total, err
}
