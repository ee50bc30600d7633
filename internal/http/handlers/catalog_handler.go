// Catalog HTTP handlers.
//
// This file exposes REST endpoints for the manga catalog:
//   - GET /manga/search            (title search, paginated)
//   - GET /manga/popular           (by follower count, paginated)
//   - GET /manga/latest            (by latest upload, paginated)
//   - GET /manga/:id               (full detail, cache-aside)
//   - GET /manga/:id/chapters      (full chapter list for a language)
//   - GET /chapters/:id            (chapter detail)
//   - GET /chapters/:id/pages      (live page manifest)
//   - GET /chapters/:id/navigation (prev/next within the manga)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/denshikawa/go-manga-backend/internal/manga"
	"github.com/denshikawa/go-manga-backend/internal/utils"
)

// defaultLanguage is used when a chapter listing does not specify one.
const defaultLanguage = "en"

// normalizeLang validates a translated-language query value as a BCP 47 tag.
// The catalog upstream expects lowercase forms like "en" or "pt-br", so the
// raw value is lowercased rather than canonicalized.
func normalizeLang(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return defaultLanguage, true
	}
	if _, err := language.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}

// CatalogService defines the catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogService interface {
	Search(ctx context.Context, title string, limit, offset int) (manga.SummaryPage, error)
	Popular(ctx context.Context, limit, offset int) (manga.SummaryPage, error)
	Latest(ctx context.Context, limit, offset int) (manga.SummaryPage, error)
	GetManga(ctx context.Context, mangadexID string) (manga.Manga, error)
	GetChapters(ctx context.Context, mangadexID, lang string) ([]manga.Chapter, error)
	GetChapter(ctx context.Context, chapterID string) (manga.Chapter, error)
	GetChapterPages(ctx context.Context, chapterID string) (manga.ChapterPages, error)
	GetNavigation(ctx context.Context, mangadexID, chapterID, lang string) (manga.Navigation, error)
}

// SearchManga handles GET /manga/search?q=...&limit=&offset=.
func (h *Handlers) SearchManga(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 20)
	offset := utils.AtoiDefault(c.Query("offset"), 0)

	page, err := h.catalogSvc.Search(c.Request.Context(), q, limit, offset)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// PopularManga handles GET /manga/popular.
func (h *Handlers) PopularManga(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 20)
	offset := utils.AtoiDefault(c.Query("offset"), 0)

	page, err := h.catalogSvc.Popular(c.Request.Context(), limit, offset)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// LatestManga handles GET /manga/latest.
func (h *Handlers) LatestManga(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 20)
	offset := utils.AtoiDefault(c.Query("offset"), 0)

	page, err := h.catalogSvc.Latest(c.Request.Context(), limit, offset)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// GetManga handles GET /manga/:id.
func (h *Handlers) GetManga(c *gin.Context) {
	id := c.Param("id")
	m, err := h.catalogSvc.GetManga(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// ListChapters handles GET /manga/:id/chapters?lang=.
func (h *Handlers) ListChapters(c *gin.Context) {
	id := c.Param("id")
	lang, valid := normalizeLang(c.Query("lang"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lang must be a valid language tag")
		return
	}

	chapters, err := h.catalogSvc.GetChapters(c.Request.Context(), id, lang)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"manga_id": id,
		"language": lang,
		"total":    len(chapters),
		"chapters": chapters,
	})
}

// GetChapter handles GET /chapters/:id.
func (h *Handlers) GetChapter(c *gin.Context) {
	ch, err := h.catalogSvc.GetChapter(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, ch)
}

// GetChapterPages handles GET /chapters/:id/pages.
func (h *Handlers) GetChapterPages(c *gin.Context) {
	pages, err := h.catalogSvc.GetChapterPages(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, pages)
}

// GetChapterNavigation handles GET /chapters/:id/navigation?manga_id=&lang=.
func (h *Handlers) GetChapterNavigation(c *gin.Context) {
	mangaID := strings.TrimSpace(c.Query("manga_id"))
	if mangaID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter manga_id is required")
		return
	}
	lang, valid := normalizeLang(c.Query("lang"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lang must be a valid language tag")
		return
	}

	nav, err := h.catalogSvc.GetNavigation(c.Request.Context(), mangaID, c.Param("id"), lang)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, nav)
}
