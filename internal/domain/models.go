// Package domain defines the persistence models for user accounts, reading
// state, and the upstream catalog cache. These types are mapped with GORM and
// form the core data layer of the manga backend.
package domain

import (
	"time"
)

// User is a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Username     string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	Role         string    `json:"role"       gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// RefreshToken records an issued refresh token by hash. Tokens are rotated on
// every refresh: the presented token is revoked and a new row is written.
type RefreshToken struct {
	ID        string     `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string     `json:"user_id"    gorm:"type:char(36);not null;index"`
	TokenHash string     `json:"-"          gorm:"type:char(64);not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RefreshToken.
func (RefreshToken) TableName() string { return "refresh_tokens" }

// Bookmark marks a manga as saved by a user. One row per (user, manga).
type Bookmark struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id"           gorm:"type:char(36);not null;index;uniqueIndex:ux_bookmark_user_manga"`
	MangaMangadexID string    `json:"manga_mangadex_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_bookmark_user_manga"`
	CreatedAt       time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Bookmark.
func (Bookmark) TableName() string { return "user_bookmarks" }

// ReadingProgress is the last read position within a manga, one row per
// (user, manga), overwritten in place as the user reads.
type ReadingProgress struct {
	ID                string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"user_id"             gorm:"type:char(36);not null;index;uniqueIndex:ux_progress_user_manga"`
	MangaMangadexID   string    `json:"manga_mangadex_id"   gorm:"type:varchar(64);not null;uniqueIndex:ux_progress_user_manga"`
	ChapterMangadexID string    `json:"chapter_mangadex_id" gorm:"type:varchar(64);not null"`
	PageNumber        int       `json:"page_number"         gorm:"not null;default:1"`
	UpdatedAt         time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ReadingProgress.
func (ReadingProgress) TableName() string { return "user_reading_progress" }

// ReadingHistory is an append-only log of chapters a user has read.
type ReadingHistory struct {
	ID                string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"user_id"             gorm:"type:char(36);not null;index:idx_history_user_read,priority:1"`
	MangaMangadexID   string    `json:"manga_mangadex_id"   gorm:"type:varchar(64);not null"`
	ChapterMangadexID string    `json:"chapter_mangadex_id" gorm:"type:varchar(64);not null"`
	ReadAt            time.Time `json:"read_at"             gorm:"index:idx_history_user_read,priority:2"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ReadingHistory.
func (ReadingHistory) TableName() string { return "reading_history" }

// MangaCache is the persisted copy of one upstream manga record, keyed by the
// upstream identifier. Rows are created on first fetch and fully overwritten
// (CachedAt reset) on every refresh; this layer never deletes them.
//
// List-valued attributes (alt titles, tags, author/artist names) are stored
// as JSON text, mirroring how they travel over the wire.
type MangaCache struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	MangadexID    string    `json:"mangadex_id"    gorm:"type:varchar(64);not null;uniqueIndex"`
	Title         string    `json:"title"          gorm:"type:varchar(512);not null"`
	AltTitles     string    `json:"alt_titles"     gorm:"type:text"`
	Description   string    `json:"description"    gorm:"type:text"`
	CoverURL      string    `json:"cover_url"      gorm:"type:varchar(512)"`
	Status        string    `json:"status"         gorm:"type:varchar(32)"`
	Year          *int      `json:"year,omitempty"`
	ContentRating string    `json:"content_rating" gorm:"type:varchar(32)"`
	Tags          string    `json:"tags"           gorm:"type:text"`
	AuthorNames   string    `json:"author_names"   gorm:"type:text"`
	ArtistNames   string    `json:"artist_names"   gorm:"type:text"`
	CachedAt      time.Time `json:"cached_at"      gorm:"not null;index"`
}

// TableName returns the database table name for MangaCache.
func (MangaCache) TableName() string { return "manga_cache" }

// ChapterCache is the persisted copy of one upstream chapter record. The
// collection of rows sharing (MangaMangadexID, Language) forms a chapter set;
// the set is fresh only when its oldest CachedAt is within TTL.
type ChapterCache struct {
	ID                  string     `json:"id"                    gorm:"type:char(36);primaryKey"`
	MangadexID          string     `json:"mangadex_id"           gorm:"type:varchar(64);not null;uniqueIndex"`
	MangaMangadexID     string     `json:"manga_mangadex_id"     gorm:"type:varchar(64);not null;index:idx_chapter_manga_lang,priority:1"`
	ChapterNumber       string     `json:"chapter_number"        gorm:"type:varchar(16)"`
	Volume              string     `json:"volume"                gorm:"type:varchar(16)"`
	Title               string     `json:"title"                 gorm:"type:varchar(512)"`
	Language            string     `json:"language"              gorm:"type:varchar(16);not null;index:idx_chapter_manga_lang,priority:2"`
	ScanlationGroupID   string     `json:"scanlation_group_id"   gorm:"type:varchar(64)"`
	ScanlationGroupName string     `json:"scanlation_group_name" gorm:"type:varchar(255)"`
	PageCount           int        `json:"page_count"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	CachedAt            time.Time  `json:"cached_at"             gorm:"not null;index"`
}

// TableName returns the database table name for ChapterCache.
func (ChapterCache) TableName() string { return "chapter_cache" }
