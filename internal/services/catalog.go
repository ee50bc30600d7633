// Package services – CatalogService
//
// This file implements CatalogService, the application-level component that
// serves the manga catalog through a persistent cache-aside layer. Reads hit
// the local database first; stale or missing entries trigger an upstream
// fetch whose result is written back before being returned. Listing
// operations (search, popular, latest) pass through to the upstream without
// caching, since their result sets are query-shaped rather than keyed.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the upstream identifiers and pagination parameters where
// applicable.

package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/manga"
	"github.com/denshikawa/go-manga-backend/internal/mangadex"
	"github.com/denshikawa/go-manga-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// feedPageSize is the page size used when walking a manga's full chapter
	// feed upstream.
	feedPageSize = 100

	// maxListLimit caps caller-supplied limits on listing operations.
	maxListLimit = 100

	defaultListLimit = 20
)

// UpstreamClient is the slice of the upstream catalog client the service
// depends on.
type UpstreamClient interface {
	SearchManga(ctx context.Context, title string, limit, offset int) (mangadex.Envelope[[]mangadex.Manga], error)
	GetPopularManga(ctx context.Context, limit, offset int) (mangadex.Envelope[[]mangadex.Manga], error)
	GetLatestManga(ctx context.Context, limit, offset int) (mangadex.Envelope[[]mangadex.Manga], error)
	GetManga(ctx context.Context, id string) (mangadex.Manga, error)
	GetChapterFeed(ctx context.Context, mangaID, lang string, limit, offset int) (mangadex.Envelope[[]mangadex.Chapter], error)
	GetChapter(ctx context.Context, id string) (mangadex.Chapter, error)
	GetAtHome(ctx context.Context, chapterID string) (mangadex.AtHome, error)
}

// CatalogService coordinates the cache tables and the upstream client.
type CatalogService struct {
	DB     *gorm.DB
	Client UpstreamClient

	MangaTTL   time.Duration
	ChapterTTL time.Duration

	// Now is injectable for deterministic freshness tests.
	Now func() time.Time
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// GetManga returns one manga, from the cache when its row is within TTL,
// otherwise freshly fetched and written back.
func (s *CatalogService) GetManga(ctx context.Context, mangadexID string) (manga.Manga, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "GetManga",
		trace.WithAttributes(attribute.String("manga.id", mangadexID)),
	)
	defer span.End()

	row, err := repo.GetMangaCache(s.DB.WithContext(ctx), mangadexID)
	if err != nil {
		return manga.Manga{}, err
	}
	if row != nil && s.now().Sub(row.CachedAt) < s.MangaTTL {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return manga.FromMangaRow(*row), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	upstream, err := s.Client.GetManga(ctx, mangadexID)
	if err != nil {
		return manga.Manga{}, err
	}
	entity := manga.FromUpstreamManga(upstream)

	newRow := manga.ToMangaRow(entity)
	if err := repo.UpsertMangaCache(s.DB.WithContext(ctx), &newRow); err != nil {
		return manga.Manga{}, err
	}
	return entity, nil
}

// GetChapters returns the full chapter list of a manga in one language. The
// cached set counts as fresh only when its oldest member is within TTL;
// otherwise the entire upstream feed is walked page by page, every chapter
// written back, and rows the upstream no longer lists pruned. A refresh
// serves the accumulated feed in upstream order. A transform failure on any
// chapter fails the whole operation, never yielding a partial list.
func (s *CatalogService) GetChapters(ctx context.Context, mangadexID, lang string) ([]manga.Chapter, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "GetChapters",
		trace.WithAttributes(
			attribute.String("manga.id", mangadexID),
			attribute.String("language", lang),
		),
	)
	defer span.End()

	rows, err := repo.ListChapterCache(s.DB.WithContext(ctx), mangadexID, lang)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && s.chapterSetFresh(rows) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		out := make([]manga.Chapter, 0, len(rows))
		for _, r := range rows {
			out = append(out, manga.FromChapterRow(r))
		}
		return out, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	chapters, err := s.fetchAllChapters(ctx, mangadexID, lang)
	if err != nil {
		return nil, err
	}
	keep := make([]string, 0, len(chapters))
	for i := range chapters {
		row := manga.ToChapterRow(chapters[i])
		if err := repo.UpsertChapterCache(s.DB.WithContext(ctx), &row); err != nil {
			return nil, err
		}
		keep = append(keep, chapters[i].MangadexID)
	}
	// Delisted chapters must not resurface from the cache, and their old
	// timestamps must not hold the set stale.
	if err := repo.PruneChapterCache(s.DB.WithContext(ctx), mangadexID, lang, keep); err != nil {
		return nil, err
	}
	return chapters, nil
}

// chapterSetFresh reports whether every row's CachedAt is within TTL. One
// stale member makes the whole set stale.
func (s *CatalogService) chapterSetFresh(rows []domain.ChapterCache) bool {
	now := s.now()
	for i := range rows {
		if now.Sub(rows[i].CachedAt) >= s.ChapterTTL {
			return false
		}
	}
	return true
}

// fetchAllChapters walks the upstream feed until exhaustion.
func (s *CatalogService) fetchAllChapters(ctx context.Context, mangadexID, lang string) ([]manga.Chapter, error) {
	var out []manga.Chapter
	offset := 0
	for {
		env, err := s.Client.GetChapterFeed(ctx, mangadexID, lang, feedPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(env.Data) == 0 {
			break
		}
		for _, raw := range env.Data {
			ch, err := manga.FromUpstreamChapter(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, ch)
		}
		offset += len(env.Data)
		// Without a reported total there is no safe way to keep paging.
		if env.Total == nil || offset >= *env.Total {
			break
		}
	}
	return out, nil
}

// GetChapter returns one chapter, cache-aside like GetManga.
func (s *CatalogService) GetChapter(ctx context.Context, chapterID string) (manga.Chapter, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "GetChapter",
		trace.WithAttributes(attribute.String("chapter.id", chapterID)),
	)
	defer span.End()

	row, err := repo.GetChapterCache(s.DB.WithContext(ctx), chapterID)
	if err != nil {
		return manga.Chapter{}, err
	}
	if row != nil && s.now().Sub(row.CachedAt) < s.ChapterTTL {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return manga.FromChapterRow(*row), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	upstream, err := s.Client.GetChapter(ctx, chapterID)
	if err != nil {
		return manga.Chapter{}, err
	}
	entity, err := manga.FromUpstreamChapter(upstream)
	if err != nil {
		return manga.Chapter{}, err
	}

	newRow := manga.ToChapterRow(entity)
	if err := repo.UpsertChapterCache(s.DB.WithContext(ctx), &newRow); err != nil {
		return manga.Chapter{}, err
	}
	return entity, nil
}

// GetChapterPages resolves the readable page manifest for a chapter. Always
// served live: manifest URLs are short-lived upstream grants and must not be
// cached. Externally hosted chapters, chapters reporting zero pages, and
// manifests with no files in either quality tier all map to ErrNoPages.
func (s *CatalogService) GetChapterPages(ctx context.Context, chapterID string) (manga.ChapterPages, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "GetChapterPages",
		trace.WithAttributes(attribute.String("chapter.id", chapterID)),
	)
	defer span.End()

	upstream, err := s.Client.GetChapter(ctx, chapterID)
	if err != nil {
		return manga.ChapterPages{}, err
	}
	if upstream.Attributes.ExternalURL != nil {
		return manga.ChapterPages{}, ErrNoPages
	}
	if upstream.Attributes.Pages == 0 {
		return manga.ChapterPages{}, ErrNoPages
	}

	ah, err := s.Client.GetAtHome(ctx, chapterID)
	if err != nil {
		return manga.ChapterPages{}, err
	}
	if len(ah.Chapter.Data) == 0 && len(ah.Chapter.DataSaver) == 0 {
		return manga.ChapterPages{}, ErrNoPages
	}

	return manga.PagesFromManifest(chapterID, ah), nil
}

// GetNavigation locates a chapter in its manga's ordered list and returns its
// neighbors. The list comes from GetChapters, so freshness rules apply.
func (s *CatalogService) GetNavigation(ctx context.Context, mangadexID, chapterID, lang string) (manga.Navigation, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "GetNavigation",
		trace.WithAttributes(
			attribute.String("manga.id", mangadexID),
			attribute.String("chapter.id", chapterID),
		),
	)
	defer span.End()

	chapters, err := s.GetChapters(ctx, mangadexID, lang)
	if err != nil {
		return manga.Navigation{}, err
	}

	idx := -1
	for i := range chapters {
		if chapters[i].MangadexID == chapterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return manga.Navigation{}, ErrChapterNotFound
	}

	nav := manga.Navigation{CurrentChapterID: chapterID}
	if idx > 0 {
		nav.PrevChapterID = &chapters[idx-1].MangadexID
	}
	if idx+1 < len(chapters) {
		nav.NextChapterID = &chapters[idx+1].MangadexID
	}
	return nav, nil
}

// Search queries the upstream catalog by title.
func (s *CatalogService) Search(ctx context.Context, title string, limit, offset int) (manga.SummaryPage, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", title),
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
		),
	)
	defer span.End()

	limit, offset = clampListing(limit, offset)
	env, err := s.Client.SearchManga(ctx, title, limit, offset)
	if err != nil {
		return manga.SummaryPage{}, err
	}
	return summaryPage(env), nil
}

// Popular lists the catalog by follower count.
func (s *CatalogService) Popular(ctx context.Context, limit, offset int) (manga.SummaryPage, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Popular",
		trace.WithAttributes(attribute.Int("limit", limit), attribute.Int("offset", offset)),
	)
	defer span.End()

	limit, offset = clampListing(limit, offset)
	env, err := s.Client.GetPopularManga(ctx, limit, offset)
	if err != nil {
		return manga.SummaryPage{}, err
	}
	return summaryPage(env), nil
}

// Latest lists the catalog by most recent chapter upload.
func (s *CatalogService) Latest(ctx context.Context, limit, offset int) (manga.SummaryPage, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Latest",
		trace.WithAttributes(attribute.Int("limit", limit), attribute.Int("offset", offset)),
	)
	defer span.End()

	limit, offset = clampListing(limit, offset)
	env, err := s.Client.GetLatestManga(ctx, limit, offset)
	if err != nil {
		return manga.SummaryPage{}, err
	}
	return summaryPage(env), nil
}

func clampListing(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func summaryPage(env mangadex.Envelope[[]mangadex.Manga]) manga.SummaryPage {
	items := make([]manga.Summary, 0, len(env.Data))
	for _, m := range env.Data {
		items = append(items, manga.SummaryFromUpstream(m))
	}
	total := len(items)
	if env.Total != nil {
		total = *env.Total
	}
	return manga.SummaryPage{Data: items, Total: total, Limit: env.Limit, Offset: env.Offset}
}
