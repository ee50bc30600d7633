package manga

import (
	"fmt"

	"github.com/denshikawa/go-manga-backend/internal/mangadex"
)

// PagesFromManifest assembles the page list from an at-home manifest. The
// full-quality tier drives numbering when present, otherwise the data-saver
// tier does; whenever one tier lacks a file for a page, the other tier's URL
// stands in so both fields are always usable.
//
// Callers must reject manifests with no files in either tier before calling.
func PagesFromManifest(chapterID string, ah mangadex.AtHome) ChapterPages {
	filenames := ah.Chapter.Data
	fullQuality := true
	if len(filenames) == 0 {
		filenames = ah.Chapter.DataSaver
		fullQuality = false
	}

	pages := make([]PageInfo, 0, len(filenames))
	for i, name := range filenames {
		var pageURL, saverURL string
		if fullQuality {
			pageURL = fmt.Sprintf("%s/data/%s/%s", ah.BaseURL, ah.Chapter.Hash, name)
			saverURL = pageURL
			if i < len(ah.Chapter.DataSaver) {
				saverURL = fmt.Sprintf("%s/data-saver/%s/%s", ah.BaseURL, ah.Chapter.Hash, ah.Chapter.DataSaver[i])
			}
		} else {
			saverURL = fmt.Sprintf("%s/data-saver/%s/%s", ah.BaseURL, ah.Chapter.Hash, name)
			pageURL = saverURL
		}
		pages = append(pages, PageInfo{
			PageNumber:   i + 1,
			Filename:     name,
			URL:          pageURL,
			URLDataSaver: saverURL,
		})
	}

	return ChapterPages{
		ChapterID: chapterID,
		BaseURL:   ah.BaseURL,
		Hash:      ah.Chapter.Hash,
		Pages:     pages,
	}
}
