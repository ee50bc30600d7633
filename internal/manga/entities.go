// Package manga defines the transport-agnostic catalog entities served to
// the rest of the backend, plus the transforms that build them from upstream
// wire objects and from persisted cache rows. The two directions differ on
// purpose: rows substitute defaults for absent optional fields, while live
// upstream objects fail loudly on missing required relationships.
package manga

import "time"

// Manga is a catalog title as exposed by this backend.
type Manga struct {
	MangadexID    string   `json:"mangadex_id"`
	Title         string   `json:"title"`
	AltTitles     []string `json:"alt_titles"`
	Description   string   `json:"description"`
	CoverURL      string   `json:"cover_url"`
	Status        string   `json:"status"`
	Year          *int     `json:"year,omitempty"`
	ContentRating string   `json:"content_rating"`
	Tags          []Tag    `json:"tags"`
	AuthorNames   []string `json:"author_names"`
	ArtistNames   []string `json:"artist_names"`
}

// Tag is a genre/theme/format label attached to a manga.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Chapter is a single released chapter of a manga in one language.
type Chapter struct {
	MangadexID          string     `json:"mangadex_id"`
	MangaMangadexID     string     `json:"manga_mangadex_id"`
	ChapterNumber       string     `json:"chapter_number"`
	Volume              string     `json:"volume"`
	Title               string     `json:"title"`
	Language            string     `json:"language"`
	ScanlationGroupID   string     `json:"scanlation_group_id"`
	ScanlationGroupName string     `json:"scanlation_group_name"`
	PageCount           int        `json:"page_count"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
}

// ChapterPages is the resolved page manifest for a chapter.
type ChapterPages struct {
	ChapterID string     `json:"chapter_id"`
	BaseURL   string     `json:"base_url"`
	Hash      string     `json:"hash"`
	Pages     []PageInfo `json:"pages"`
}

// PageInfo is one page with URLs for both quality tiers. When a tier has no
// file for the page, the other tier's URL is substituted.
type PageInfo struct {
	PageNumber   int    `json:"page_number"`
	Filename     string `json:"filename"`
	URL          string `json:"url"`
	URLDataSaver string `json:"url_data_saver"`
}

// Summary is the compact listing shape used by search/popular/latest.
type Summary struct {
	ID         string `json:"id"`
	MangadexID string `json:"mangadex_id"`
	Title      string `json:"title"`
	CoverURL   string `json:"cover_url"`
	Status     string `json:"status"`
}

// SummaryPage is one page of listing results with upstream-reported totals.
type SummaryPage struct {
	Data   []Summary `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Navigation locates a chapter within its manga's ordered chapter list.
type Navigation struct {
	PrevChapterID    *string `json:"prev_chapter_id"`
	NextChapterID    *string `json:"next_chapter_id"`
	CurrentChapterID string  `json:"current_chapter_id"`
}
