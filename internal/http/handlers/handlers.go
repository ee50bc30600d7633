// Handler wiring.
//
// Handlers groups the HTTP endpoints for the catalog, accounts, and the
// per-user library. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
package handlers

import (
	"context"
	"net/http"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/services"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// LibraryService defines the per-user reading-state operations consumed by
// HTTP handlers.
type LibraryService interface {
	AddBookmark(ctx context.Context, userID, mangaID string) error
	RemoveBookmark(ctx context.Context, userID, mangaID string) error
	ListBookmarks(ctx context.Context, userID string) ([]services.BookmarkEntry, error)
	UpdateProgress(ctx context.Context, userID, mangaID, chapterID string, page int) error
	GetProgress(ctx context.Context, userID, mangaID string) (*domain.ReadingProgress, error)
	ListProgress(ctx context.Context, userID string) ([]domain.ReadingProgress, error)
	MarkRead(ctx context.Context, userID, mangaID, chapterID string) error
	HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ReadingHistory, int64, error)
}

// Handlers groups HTTP endpoints for the catalog, accounts, and library.
type Handlers struct {
	catalogSvc CatalogService
	authSvc    AuthService
	librarySvc LibraryService
	proxy      *http.Client
}

// New constructs a Handlers instance bound to the given services. The
// passed client is used for image proxying; nil falls back to a default.
func New(catalogSvc CatalogService, authSvc AuthService, librarySvc LibraryService, proxy *http.Client) *Handlers {
	if proxy == nil {
		proxy = http.DefaultClient
	}
	return &Handlers{catalogSvc: catalogSvc, authSvc: authSvc, librarySvc: librarySvc, proxy: proxy}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}
