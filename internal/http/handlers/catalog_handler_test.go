package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/denshikawa/go-manga-backend/internal/manga"
	"github.com/denshikawa/go-manga-backend/internal/mangadex"
	"github.com/denshikawa/go-manga-backend/internal/services"
)

// Flexible catalog service stub; unset hooks return zero values.
type stubCatalogSvc struct {
	search      func(ctx context.Context, title string, limit, offset int) (manga.SummaryPage, error)
	popular     func(ctx context.Context, limit, offset int) (manga.SummaryPage, error)
	latest      func(ctx context.Context, limit, offset int) (manga.SummaryPage, error)
	getManga    func(ctx context.Context, id string) (manga.Manga, error)
	getChapters func(ctx context.Context, id, lang string) ([]manga.Chapter, error)
	getChapter  func(ctx context.Context, id string) (manga.Chapter, error)
	getPages    func(ctx context.Context, id string) (manga.ChapterPages, error)
	getNav      func(ctx context.Context, mangaID, chapterID, lang string) (manga.Navigation, error)
}

func (s stubCatalogSvc) Search(ctx context.Context, title string, limit, offset int) (manga.SummaryPage, error) {
	if s.search != nil {
		return s.search(ctx, title, limit, offset)
	}
	return manga.SummaryPage{}, nil
}

func (s stubCatalogSvc) Popular(ctx context.Context, limit, offset int) (manga.SummaryPage, error) {
	if s.popular != nil {
		return s.popular(ctx, limit, offset)
	}
	return manga.SummaryPage{}, nil
}

func (s stubCatalogSvc) Latest(ctx context.Context, limit, offset int) (manga.SummaryPage, error) {
	if s.latest != nil {
		return s.latest(ctx, limit, offset)
	}
	return manga.SummaryPage{}, nil
}

func (s stubCatalogSvc) GetManga(ctx context.Context, id string) (manga.Manga, error) {
	if s.getManga != nil {
		return s.getManga(ctx, id)
	}
	return manga.Manga{}, nil
}

func (s stubCatalogSvc) GetChapters(ctx context.Context, id, lang string) ([]manga.Chapter, error) {
	if s.getChapters != nil {
		return s.getChapters(ctx, id, lang)
	}
	return nil, nil
}

func (s stubCatalogSvc) GetChapter(ctx context.Context, id string) (manga.Chapter, error) {
	if s.getChapter != nil {
		return s.getChapter(ctx, id)
	}
	return manga.Chapter{}, nil
}

func (s stubCatalogSvc) GetChapterPages(ctx context.Context, id string) (manga.ChapterPages, error) {
	if s.getPages != nil {
		return s.getPages(ctx, id)
	}
	return manga.ChapterPages{}, nil
}

func (s stubCatalogSvc) GetNavigation(ctx context.Context, mangaID, chapterID, lang string) (manga.Navigation, error) {
	if s.getNav != nil {
		return s.getNav(ctx, mangaID, chapterID, lang)
	}
	return manga.Navigation{}, nil
}

func newCatalogRouter(svc CatalogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(svc, nil, nil, nil)
	r := gin.New()
	r.GET("/manga/search", h.SearchManga)
	r.GET("/manga/popular", h.PopularManga)
	r.GET("/manga/:id", h.GetManga)
	r.GET("/manga/:id/chapters", h.ListChapters)
	r.GET("/chapters/:id/pages", h.GetChapterPages)
	r.GET("/chapters/:id/navigation", h.GetChapterNavigation)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSearchManga_RequiresQuery(t *testing.T) {
	r := newCatalogRouter(stubCatalogSvc{})

	if w := doGet(r, "/manga/search"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing q -> %d; want 400", w.Code)
	}
	if w := doGet(r, "/manga/search?q=%20%20"); w.Code != http.StatusBadRequest {
		t.Fatalf("blank q -> %d; want 400", w.Code)
	}
}

func TestSearchManga_PassesParams(t *testing.T) {
	var gotTitle string
	var gotLimit, gotOffset int
	r := newCatalogRouter(stubCatalogSvc{
		search: func(_ context.Context, title string, limit, offset int) (manga.SummaryPage, error) {
			gotTitle, gotLimit, gotOffset = title, limit, offset
			return manga.SummaryPage{Data: []manga.Summary{{MangadexID: "m1", Title: "One"}}, Total: 1, Limit: limit}, nil
		},
	})

	w := doGet(r, "/manga/search?q=one+piece&limit=5&offset=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if gotTitle != "one piece" || gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("params = (%q, %d, %d)", gotTitle, gotLimit, gotOffset)
	}

	var page manga.SummaryPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 || page.Data[0].MangadexID != "m1" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestCatalog_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", mangadex.ErrRateLimited, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"banned", mangadex.ErrTemporarilyBanned, http.StatusServiceUnavailable, ErrCodeUpstreamBanned},
		{"upstream 500", &mangadex.UpstreamError{Status: 500}, http.StatusBadGateway, ErrCodeUpstreamFailed},
		{"upstream 404", &mangadex.UpstreamError{Status: 404}, http.StatusNotFound, ErrCodeNotFound},
		{"not found", mangadex.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"network", &mangadex.NetworkError{Err: errors.New("dial tcp")}, http.StatusBadGateway, ErrCodeUpstreamFailed},
		{"bad body", mangadex.ErrInvalidResponse, http.StatusBadGateway, ErrCodeUpstreamFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newCatalogRouter(stubCatalogSvc{
				getManga: func(context.Context, string) (manga.Manga, error) { return manga.Manga{}, tc.err },
			})
			w := doGet(r, "/manga/abc")
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Fatalf("code = %q; want %q", resp.Code, tc.wantCode)
			}
		})
	}
}

func TestListChapters_LanguageHandling(t *testing.T) {
	var gotLang string
	r := newCatalogRouter(stubCatalogSvc{
		getChapters: func(_ context.Context, _, lang string) ([]manga.Chapter, error) {
			gotLang = lang
			return []manga.Chapter{{MangadexID: "c1"}}, nil
		},
	})

	// Default language when omitted.
	if w := doGet(r, "/manga/m1/chapters"); w.Code != http.StatusOK {
		t.Fatalf("default lang -> %d", w.Code)
	}
	if gotLang != "en" {
		t.Fatalf("default lang = %q; want en", gotLang)
	}

	// Uppercase input is lowercased, not canonicalized.
	if w := doGet(r, "/manga/m1/chapters?lang=PT-BR"); w.Code != http.StatusOK {
		t.Fatalf("pt-br -> %d", w.Code)
	}
	if gotLang != "pt-br" {
		t.Fatalf("lang = %q; want pt-br", gotLang)
	}

	// Garbage tags are rejected before any service call.
	if w := doGet(r, "/manga/m1/chapters?lang=!!"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad lang -> %d; want 400", w.Code)
	}
}

func TestGetChapterPages_NoPages(t *testing.T) {
	r := newCatalogRouter(stubCatalogSvc{
		getPages: func(context.Context, string) (manga.ChapterPages, error) {
			return manga.ChapterPages{}, services.ErrNoPages
		},
	})

	w := doGet(r, "/chapters/c1/pages")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrCodeNoPages {
		t.Fatalf("code = %q; want %q", resp.Code, ErrCodeNoPages)
	}
}

func TestGetChapterNavigation_RequiresMangaID(t *testing.T) {
	r := newCatalogRouter(stubCatalogSvc{})

	if w := doGet(r, "/chapters/c1/navigation"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing manga_id -> %d; want 400", w.Code)
	}

	prev := "c0"
	r = newCatalogRouter(stubCatalogSvc{
		getNav: func(_ context.Context, mangaID, chapterID, lang string) (manga.Navigation, error) {
			if mangaID != "m1" || chapterID != "c1" || lang != "en" {
				t.Fatalf("nav args = (%q, %q, %q)", mangaID, chapterID, lang)
			}
			return manga.Navigation{PrevChapterID: &prev, CurrentChapterID: "c1"}, nil
		},
	})
	w := doGet(r, "/chapters/c1/navigation?manga_id=m1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var nav manga.Navigation
	if err := json.Unmarshal(w.Body.Bytes(), &nav); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nav.PrevChapterID == nil || *nav.PrevChapterID != "c0" || nav.NextChapterID != nil {
		t.Fatalf("unexpected nav: %+v", nav)
	}
}
