// Library HTTP handlers (all authenticated).
//
// This file exposes REST endpoints for the per-user reading state:
//   - PUT    /users/me/bookmarks/:mangaId
//   - DELETE /users/me/bookmarks/:mangaId
//   - GET    /users/me/bookmarks
//   - PUT    /users/me/progress/:mangaId
//   - GET    /users/me/progress/:mangaId
//   - GET    /users/me/progress
//   - POST   /users/me/history/:chapterId (mark a chapter read)
//   - GET    /users/me/history            (paginated, most recent first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/http/middleware"
	"github.com/denshikawa/go-manga-backend/internal/utils"
)

// UpdateProgressRequest is the JSON payload for recording a read position.
type UpdateProgressRequest struct {
	ChapterID  string `json:"chapter_id" binding:"required"`
	PageNumber int    `json:"page_number"`
}

// HistoryResponse wraps a page of reading history with pagination metadata.
type HistoryResponse struct {
	History    []domain.ReadingHistory `json:"history"`
	Pagination Pagination              `json:"pagination"`
}

// AddBookmark handles PUT /users/me/bookmarks/:mangaId.
func (h *Handlers) AddBookmark(c *gin.Context) {
	if err := h.librarySvc.AddBookmark(c.Request.Context(), middleware.UserID(c), c.Param("mangaId")); err != nil {
		failFromError(c, err)
		return
	}
	noContent(c)
}

// RemoveBookmark handles DELETE /users/me/bookmarks/:mangaId.
func (h *Handlers) RemoveBookmark(c *gin.Context) {
	if err := h.librarySvc.RemoveBookmark(c.Request.Context(), middleware.UserID(c), c.Param("mangaId")); err != nil {
		failFromError(c, err)
		return
	}
	noContent(c)
}

// ListBookmarks handles GET /users/me/bookmarks.
func (h *Handlers) ListBookmarks(c *gin.Context) {
	entries, err := h.librarySvc.ListBookmarks(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"bookmarks": entries, "total": len(entries)})
}

// UpdateProgress handles PUT /users/me/progress/:mangaId.
func (h *Handlers) UpdateProgress(c *gin.Context) {
	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chapter_id is required")
		return
	}

	err := h.librarySvc.UpdateProgress(c.Request.Context(), middleware.UserID(c), c.Param("mangaId"), req.ChapterID, req.PageNumber)
	if err != nil {
		failFromError(c, err)
		return
	}
	noContent(c)
}

// GetProgress handles GET /users/me/progress/:mangaId.
func (h *Handlers) GetProgress(c *gin.Context) {
	p, err := h.librarySvc.GetProgress(c.Request.Context(), middleware.UserID(c), c.Param("mangaId"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListProgress handles GET /users/me/progress.
func (h *Handlers) ListProgress(c *gin.Context) {
	entries, err := h.librarySvc.ListProgress(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"progress": entries, "total": len(entries)})
}

// MarkChapterRead handles POST /users/me/history/:chapterId. The chapter is
// resolved through the catalog first so unknown IDs surface as 404 instead of
// polluting the history log.
func (h *Handlers) MarkChapterRead(c *gin.Context) {
	chapterID := c.Param("chapterId")
	ch, err := h.catalogSvc.GetChapter(c.Request.Context(), chapterID)
	if err != nil {
		failFromError(c, err)
		return
	}

	if err := h.librarySvc.MarkRead(c.Request.Context(), middleware.UserID(c), ch.MangaMangadexID, ch.MangadexID); err != nil {
		failFromError(c, err)
		return
	}
	noContent(c)
}

// GetHistory handles GET /users/me/history?page=&page_size=.
func (h *Handlers) GetHistory(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	page, pageSize = utils.ClampPage(page, pageSize, 20, 100)

	items, total, err := h.librarySvc.HistoryPage(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromError(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, HistoryResponse{
		History: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
