// Wire types for the upstream REST API. Field names follow the upstream JSON
// exactly; these never leak past the service layer, which converts them into
// the transport-agnostic entities in internal/manga.
package mangadex

// Envelope is the standard upstream response wrapper. Total is a pointer so
// its absence is observable: pagination stops defensively after one page when
// the upstream does not report a total.
type Envelope[T any] struct {
	Result string `json:"result"`
	Data   T      `json:"data"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Total  *int   `json:"total"`
}

// LocalizedString maps a language code ("en", "ja", ...) to a value.
type LocalizedString map[string]string

// Get returns the value for lang, or "" when absent.
func (l LocalizedString) Get(lang string) string { return l[lang] }

// Manga is an upstream manga resource with its expanded relationships.
type Manga struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Attributes    MangaAttributes `json:"attributes"`
	Relationships []Relationship  `json:"relationships"`
}

// MangaAttributes carries the manga payload fields used by this backend.
type MangaAttributes struct {
	Title            LocalizedString   `json:"title"`
	AltTitles        []LocalizedString `json:"altTitles"`
	Description      LocalizedString   `json:"description"`
	OriginalLanguage string            `json:"originalLanguage"`
	Status           string            `json:"status"`
	Year             *int              `json:"year"`
	ContentRating    string            `json:"contentRating"`
	Tags             []Tag             `json:"tags"`
}

// Tag is an upstream genre/theme/format tag.
type Tag struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Attributes TagAttributes `json:"attributes"`
}

// TagAttributes holds the localized tag name and its grouping.
type TagAttributes struct {
	Name  LocalizedString `json:"name"`
	Group string          `json:"group"`
}

// Relationship links a resource to another upstream resource. Attributes is
// only populated when the relationship was requested via includes[].
type Relationship struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Attributes *RelationshipAttributes `json:"attributes,omitempty"`
}

// RelationshipAttributes carries the expanded fields this backend reads.
type RelationshipAttributes struct {
	Name     string `json:"name"`
	FileName string `json:"fileName"`
}

// FindRelationship returns the first relationship of the given type, or nil.
func FindRelationship(rels []Relationship, relType string) *Relationship {
	for i := range rels {
		if rels[i].Type == relType {
			return &rels[i]
		}
	}
	return nil
}

// Chapter is an upstream chapter resource.
type Chapter struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    ChapterAttributes `json:"attributes"`
	Relationships []Relationship    `json:"relationships"`
}

// ChapterAttributes carries the chapter payload fields used by this backend.
// ExternalURL being set means the chapter is hosted off-site and has no page
// data behind the at-home endpoint.
type ChapterAttributes struct {
	Volume             *string `json:"volume"`
	Chapter            *string `json:"chapter"`
	Title              *string `json:"title"`
	TranslatedLanguage string  `json:"translatedLanguage"`
	ExternalURL        *string `json:"externalUrl"`
	PublishAt          string  `json:"publishAt"`
	ReadableAt         string  `json:"readableAt"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
	Pages              int     `json:"pages"`
	Version            int     `json:"version"`
}

// AtHome is the page-manifest response: an image server base URL, a content
// hash, and ordered filename lists for the two quality tiers.
type AtHome struct {
	Result  string        `json:"result"`
	BaseURL string        `json:"baseUrl"`
	Chapter AtHomeChapter `json:"chapter"`
}

// AtHomeChapter holds the manifest body.
type AtHomeChapter struct {
	Hash      string   `json:"hash"`
	Data      []string `json:"data"`
	DataSaver []string `json:"dataSaver"`
}

// tokenResponse is the identity endpoint's grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
