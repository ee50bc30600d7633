package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/http/middleware"
	"github.com/denshikawa/go-manga-backend/internal/manga"
	"github.com/denshikawa/go-manga-backend/internal/services"
)

// Flexible library service stub; unset hooks return benign defaults.
type stubLibrarySvc struct {
	addBookmark    func(ctx context.Context, userID, mangaID string) error
	removeBookmark func(ctx context.Context, userID, mangaID string) error
	listBookmarks  func(ctx context.Context, userID string) ([]services.BookmarkEntry, error)
	updateProgress func(ctx context.Context, userID, mangaID, chapterID string, page int) error
	getProgress    func(ctx context.Context, userID, mangaID string) (*domain.ReadingProgress, error)
	listProgress   func(ctx context.Context, userID string) ([]domain.ReadingProgress, error)
	markRead       func(ctx context.Context, userID, mangaID, chapterID string) error
	historyPage    func(ctx context.Context, userID string, page, pageSize int) ([]domain.ReadingHistory, int64, error)
}

func (s stubLibrarySvc) AddBookmark(ctx context.Context, userID, mangaID string) error {
	if s.addBookmark != nil {
		return s.addBookmark(ctx, userID, mangaID)
	}
	return nil
}

func (s stubLibrarySvc) RemoveBookmark(ctx context.Context, userID, mangaID string) error {
	if s.removeBookmark != nil {
		return s.removeBookmark(ctx, userID, mangaID)
	}
	return nil
}

func (s stubLibrarySvc) ListBookmarks(ctx context.Context, userID string) ([]services.BookmarkEntry, error) {
	if s.listBookmarks != nil {
		return s.listBookmarks(ctx, userID)
	}
	return nil, nil
}

func (s stubLibrarySvc) UpdateProgress(ctx context.Context, userID, mangaID, chapterID string, page int) error {
	if s.updateProgress != nil {
		return s.updateProgress(ctx, userID, mangaID, chapterID, page)
	}
	return nil
}

func (s stubLibrarySvc) GetProgress(ctx context.Context, userID, mangaID string) (*domain.ReadingProgress, error) {
	if s.getProgress != nil {
		return s.getProgress(ctx, userID, mangaID)
	}
	return &domain.ReadingProgress{UserID: userID, MangaMangadexID: mangaID}, nil
}

func (s stubLibrarySvc) ListProgress(ctx context.Context, userID string) ([]domain.ReadingProgress, error) {
	if s.listProgress != nil {
		return s.listProgress(ctx, userID)
	}
	return nil, nil
}

func (s stubLibrarySvc) MarkRead(ctx context.Context, userID, mangaID, chapterID string) error {
	if s.markRead != nil {
		return s.markRead(ctx, userID, mangaID, chapterID)
	}
	return nil
}

func (s stubLibrarySvc) HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ReadingHistory, int64, error) {
	if s.historyPage != nil {
		return s.historyPage(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

// stubVerifier accepts the single token "good" as user u1.
type stubVerifier struct{}

func (stubVerifier) VerifyAccess(token string) (*services.AccessClaims, error) {
	if token == "good" {
		return &services.AccessClaims{UserID: "u1", Role: "user"}, nil
	}
	return nil, services.ErrTokenInvalid
}

func newLibraryRouter(svc LibraryService) *gin.Engine {
	return newLibraryRouterWithCatalog(svc, stubCatalogSvc{})
}

func newLibraryRouterWithCatalog(svc LibraryService, catalog CatalogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(catalog, nil, svc, nil)
	r := gin.New()
	me := r.Group("/users/me", middleware.RequireAuth(stubVerifier{}))
	me.GET("/bookmarks", h.ListBookmarks)
	me.PUT("/bookmarks/:mangaId", h.AddBookmark)
	me.DELETE("/bookmarks/:mangaId", h.RemoveBookmark)
	me.GET("/progress", h.ListProgress)
	me.GET("/progress/:mangaId", h.GetProgress)
	me.PUT("/progress/:mangaId", h.UpdateProgress)
	me.GET("/history", h.GetHistory)
	me.POST("/history/:chapterId", h.MarkChapterRead)
	return r
}

func doAuthed(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	return w
}

func TestLibrary_RequiresAuth(t *testing.T) {
	r := newLibraryRouter(stubLibrarySvc{})

	// No token.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me/bookmarks", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token -> %d; want 401", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatal("missing WWW-Authenticate header")
	}

	// Bad token.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer forged")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token -> %d; want 401", w.Code)
	}
}

func TestBookmarks_Flow(t *testing.T) {
	var addedUser, addedManga string
	r := newLibraryRouter(stubLibrarySvc{
		addBookmark: func(_ context.Context, userID, mangaID string) error {
			addedUser, addedManga = userID, mangaID
			return nil
		},
		listBookmarks: func(_ context.Context, userID string) ([]services.BookmarkEntry, error) {
			return []services.BookmarkEntry{{MangaMangadexID: "m1"}}, nil
		},
	})

	if w := doAuthed(r, http.MethodPut, "/users/me/bookmarks/m1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("add -> %d; want 204", w.Code)
	}
	if addedUser != "u1" || addedManga != "m1" {
		t.Fatalf("add args = (%q, %q)", addedUser, addedManga)
	}

	w := doAuthed(r, http.MethodGet, "/users/me/bookmarks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var resp struct {
		Bookmarks []services.BookmarkEntry `json:"bookmarks"`
		Total     int                      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Bookmarks) != 1 || resp.Bookmarks[0].MangaMangadexID != "m1" {
		t.Fatalf("unexpected list: %+v", resp)
	}

	if w := doAuthed(r, http.MethodDelete, "/users/me/bookmarks/m1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("remove -> %d; want 204", w.Code)
	}
}

func TestProgress_Flow(t *testing.T) {
	r := newLibraryRouter(stubLibrarySvc{
		getProgress: func(context.Context, string, string) (*domain.ReadingProgress, error) {
			return nil, services.ErrProgressNotFound
		},
	})

	if w := doAuthed(r, http.MethodGet, "/users/me/progress/m1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("no progress -> %d; want 404", w.Code)
	}

	// chapter_id is mandatory.
	if w := doAuthed(r, http.MethodPut, "/users/me/progress/m1", `{"page_number":4}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing chapter_id -> %d; want 400", w.Code)
	}

	var gotChapter string
	var gotPage int
	r = newLibraryRouter(stubLibrarySvc{
		updateProgress: func(_ context.Context, _, _, chapterID string, page int) error {
			gotChapter, gotPage = chapterID, page
			return nil
		},
	})
	if w := doAuthed(r, http.MethodPut, "/users/me/progress/m1", `{"chapter_id":"c9","page_number":4}`); w.Code != http.StatusNoContent {
		t.Fatalf("update -> %d; want 204", w.Code)
	}
	if gotChapter != "c9" || gotPage != 4 {
		t.Fatalf("update args = (%q, %d)", gotChapter, gotPage)
	}
}

func TestListProgress(t *testing.T) {
	r := newLibraryRouter(stubLibrarySvc{
		listProgress: func(_ context.Context, userID string) ([]domain.ReadingProgress, error) {
			return []domain.ReadingProgress{
				{UserID: userID, MangaMangadexID: "m2"},
				{UserID: userID, MangaMangadexID: "m1"},
			}, nil
		},
	})

	w := doAuthed(r, http.MethodGet, "/users/me/progress", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list progress -> %d", w.Code)
	}
	var resp struct {
		Progress []domain.ReadingProgress `json:"progress"`
		Total    int                      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || resp.Progress[0].MangaMangadexID != "m2" {
		t.Fatalf("unexpected list: %+v", resp)
	}
}

func TestMarkChapterRead(t *testing.T) {
	// Unknown chapter upstream -> 404, nothing logged.
	marked := false
	r := newLibraryRouterWithCatalog(
		stubLibrarySvc{
			markRead: func(context.Context, string, string, string) error {
				marked = true
				return nil
			},
		},
		stubCatalogSvc{
			getChapter: func(context.Context, string) (manga.Chapter, error) {
				return manga.Chapter{}, services.ErrChapterNotFound
			},
		},
	)
	if w := doAuthed(r, http.MethodPost, "/users/me/history/ghost", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown chapter -> %d; want 404", w.Code)
	}
	if marked {
		t.Fatal("history written for an unknown chapter")
	}

	// Known chapter -> 204 with the chapter's own manga ID.
	var gotManga, gotChapter string
	r = newLibraryRouterWithCatalog(
		stubLibrarySvc{
			markRead: func(_ context.Context, _, mangaID, chapterID string) error {
				gotManga, gotChapter = mangaID, chapterID
				return nil
			},
		},
		stubCatalogSvc{
			getChapter: func(_ context.Context, id string) (manga.Chapter, error) {
				return manga.Chapter{MangadexID: id, MangaMangadexID: "m1"}, nil
			},
		},
	)
	if w := doAuthed(r, http.MethodPost, "/users/me/history/c3", ""); w.Code != http.StatusNoContent {
		t.Fatalf("mark read -> %d; want 204", w.Code)
	}
	if gotManga != "m1" || gotChapter != "c3" {
		t.Fatalf("mark args = (%q, %q)", gotManga, gotChapter)
	}
}

func TestHistory_Pagination(t *testing.T) {
	var gotPage, gotSize int
	r := newLibraryRouter(stubLibrarySvc{
		historyPage: func(_ context.Context, _ string, page, pageSize int) ([]domain.ReadingHistory, int64, error) {
			gotPage, gotSize = page, pageSize
			return []domain.ReadingHistory{{MangaMangadexID: "m1"}}, 41, nil
		},
	})

	w := doAuthed(r, http.MethodGet, "/users/me/history?page=2&page_size=20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history -> %d", w.Code)
	}
	if gotPage != 2 || gotSize != 20 {
		t.Fatalf("params = (%d, %d)", gotPage, gotSize)
	}

	var resp HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 41 || resp.Pagination.TotalPages != 3 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}

	// Out-of-range values are normalized before the service sees them.
	doAuthed(r, http.MethodGet, "/users/me/history?page=-1&page_size=9999", "")
	if gotPage != 1 || gotSize != 20 {
		t.Fatalf("normalized params = (%d, %d)", gotPage, gotSize)
	}
}
