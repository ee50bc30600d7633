package manga

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/denshikawa/go-manga-backend/internal/domain"
	"github.com/denshikawa/go-manga-backend/internal/mangadex"
)

// coverBaseURL is where the upstream serves cover images.
const coverBaseURL = "https://uploads.mangadex.org/covers"

// FromUpstreamManga converts a live upstream manga into the catalog entity.
// It is total: every optional upstream field has a defined fallback, ending
// with "Untitled" when no title exists in any language.
func FromUpstreamManga(src mangadex.Manga) Manga {
	attrs := src.Attributes

	title := pickLocalized(attrs.Title)
	if title == "" {
		title = "Untitled"
	}

	altTitles := make([]string, 0, len(attrs.AltTitles))
	for _, alt := range attrs.AltTitles {
		if v := pickLocalized(alt); v != "" {
			altTitles = append(altTitles, v)
		}
	}

	var coverURL string
	if rel := mangadex.FindRelationship(src.Relationships, "cover_art"); rel != nil && rel.Attributes != nil && rel.Attributes.FileName != "" {
		coverURL = fmt.Sprintf("%s/%s/%s", coverBaseURL, src.ID, rel.Attributes.FileName)
	}

	var authors, artists []string
	for _, rel := range src.Relationships {
		if rel.Attributes == nil || rel.Attributes.Name == "" {
			continue
		}
		switch rel.Type {
		case "author":
			authors = append(authors, rel.Attributes.Name)
		case "artist":
			artists = append(artists, rel.Attributes.Name)
		}
	}

	tags := make([]Tag, 0, len(attrs.Tags))
	for _, t := range attrs.Tags {
		name := pickLocalized(t.Attributes.Name)
		if name == "" {
			name = "Unknown"
		}
		tags = append(tags, Tag{ID: t.ID, Name: name, Group: t.Attributes.Group})
	}

	return Manga{
		MangadexID:    src.ID,
		Title:         title,
		AltTitles:     altTitles,
		Description:   pickLocalized(attrs.Description),
		CoverURL:      coverURL,
		Status:        attrs.Status,
		Year:          attrs.Year,
		ContentRating: attrs.ContentRating,
		Tags:          tags,
		AuthorNames:   authors,
		ArtistNames:   artists,
	}
}

// FromUpstreamChapter converts a live upstream chapter. Unlike the manga
// transform this one can fail: a chapter without its manga relationship is
// unanchorable and is rejected rather than stored with a guessed parent.
func FromUpstreamChapter(src mangadex.Chapter) (Chapter, error) {
	mangaRel := mangadex.FindRelationship(src.Relationships, "manga")
	if mangaRel == nil {
		return Chapter{}, fmt.Errorf("%w: chapter %s has no manga relationship", mangadex.ErrNotFound, src.ID)
	}

	var groupID, groupName string
	if rel := mangadex.FindRelationship(src.Relationships, "scanlation_group"); rel != nil {
		groupID = rel.ID
		if rel.Attributes != nil {
			groupName = rel.Attributes.Name
		}
	}

	var publishedAt *time.Time
	if ts, err := time.Parse(time.RFC3339, src.Attributes.PublishAt); err == nil {
		utc := ts.UTC()
		publishedAt = &utc
	}

	return Chapter{
		MangadexID:          src.ID,
		MangaMangadexID:     mangaRel.ID,
		ChapterNumber:       deref(src.Attributes.Chapter),
		Volume:              deref(src.Attributes.Volume),
		Title:               deref(src.Attributes.Title),
		Language:            src.Attributes.TranslatedLanguage,
		ScanlationGroupID:   groupID,
		ScanlationGroupName: groupName,
		PageCount:           src.Attributes.Pages,
		PublishedAt:         publishedAt,
	}, nil
}

// SummaryFromUpstream builds the compact listing shape straight from a live
// upstream manga, without touching the cache.
func SummaryFromUpstream(src mangadex.Manga) Summary {
	full := FromUpstreamManga(src)
	return Summary{
		ID:         full.MangadexID,
		MangadexID: full.MangadexID,
		Title:      full.Title,
		CoverURL:   full.CoverURL,
		Status:     full.Status,
	}
}

// FromMangaRow rebuilds the catalog entity from a cache row. Absent optional
// fields get defaults; undecodable list columns degrade to empty lists rather
// than failing the read.
func FromMangaRow(row domain.MangaCache) Manga {
	status := row.Status
	if status == "" {
		status = "unknown"
	}
	return Manga{
		MangadexID:    row.MangadexID,
		Title:         row.Title,
		AltTitles:     decodeStrings(row.AltTitles),
		Description:   row.Description,
		CoverURL:      row.CoverURL,
		Status:        status,
		Year:          row.Year,
		ContentRating: row.ContentRating,
		Tags:          decodeTags(row.Tags),
		AuthorNames:   decodeStrings(row.AuthorNames),
		ArtistNames:   decodeStrings(row.ArtistNames),
	}
}

// FromChapterRow rebuilds a chapter from its cache row.
func FromChapterRow(row domain.ChapterCache) Chapter {
	return Chapter{
		MangadexID:          row.MangadexID,
		MangaMangadexID:     row.MangaMangadexID,
		ChapterNumber:       row.ChapterNumber,
		Volume:              row.Volume,
		Title:               row.Title,
		Language:            row.Language,
		ScanlationGroupID:   row.ScanlationGroupID,
		ScanlationGroupName: row.ScanlationGroupName,
		PageCount:           row.PageCount,
		PublishedAt:         row.PublishedAt,
	}
}

// ToMangaRow maps the entity onto its cache row. ID and CachedAt are owned by
// the persistence layer and left zero here.
func ToMangaRow(m Manga) domain.MangaCache {
	return domain.MangaCache{
		MangadexID:    m.MangadexID,
		Title:         m.Title,
		AltTitles:     encodeJSON(m.AltTitles),
		Description:   m.Description,
		CoverURL:      m.CoverURL,
		Status:        m.Status,
		Year:          m.Year,
		ContentRating: m.ContentRating,
		Tags:          encodeJSON(m.Tags),
		AuthorNames:   encodeJSON(m.AuthorNames),
		ArtistNames:   encodeJSON(m.ArtistNames),
	}
}

// ToChapterRow maps a chapter onto its cache row. ID and CachedAt are owned
// by the persistence layer.
func ToChapterRow(c Chapter) domain.ChapterCache {
	return domain.ChapterCache{
		MangadexID:          c.MangadexID,
		MangaMangadexID:     c.MangaMangadexID,
		ChapterNumber:       c.ChapterNumber,
		Volume:              c.Volume,
		Title:               c.Title,
		Language:            c.Language,
		ScanlationGroupID:   c.ScanlationGroupID,
		ScanlationGroupName: c.ScanlationGroupName,
		PageCount:           c.PageCount,
		PublishedAt:         c.PublishedAt,
	}
}

// pickLocalized resolves a localized value: English, then Japanese, then the
// lexicographically first remaining language so the choice is stable.
func pickLocalized(ls mangadex.LocalizedString) string {
	if v := ls.Get("en"); v != "" {
		return v
	}
	if v := ls.Get("ja"); v != "" {
		return v
	}
	keys := make([]string, 0, len(ls))
	for k := range ls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := ls[k]; v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func decodeTags(raw string) []Tag {
	if raw == "" {
		return []Tag{}
	}
	var out []Tag
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []Tag{}
	}
	return out
}
