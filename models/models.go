// models/models.go - Reader Models
package models

import (
	"time"
)

// Verse is one verse of one translation, stored locally either from an
// import file or from the remote content service.
type Verse struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Translation string    `json:"translation" gorm:"not null;size:32;uniqueIndex:idx_verse_address,priority:1"`
	Book        string    `json:"book" gorm:"not null;size:64;uniqueIndex:idx_verse_address,priority:2"`
	Chapter     int       `json:"chapter" gorm:"not null;uniqueIndex:idx_verse_address,priority:3"`
	Number      int       `json:"verse" gorm:"not null;uniqueIndex:idx_verse_address,priority:4"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	Source      string    `json:"source" gorm:"size:16;default:'remote'"` // remote, import
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CachedChapter marks a chapter whose verses were fully stored at FetchedAt.
type CachedChapter struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Translation string    `json:"translation" gorm:"not null;size:32;uniqueIndex:idx_cached_chapter,priority:1"`
	Book        string    `json:"book" gorm:"not null;size:64;uniqueIndex:idx_cached_chapter,priority:2"`
	Chapter     int       `json:"chapter" gorm:"not null;uniqueIndex:idx_cached_chapter,priority:3"`
	VerseCount  int       `json:"verse_count"`
	Source      string    `json:"source" gorm:"size:16;default:'remote'"`
	FetchedAt   time.Time `json:"fetched_at" gorm:"index"`
}

// ShareLink is a short link to a reader URL with a verse selection.
type ShareLink struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Book        string    `json:"book" gorm:"not null;size:64"`
	Chapter     int       `json:"chapter" gorm:"not null"`
	Translation string    `json:"translation" gorm:"not null;size:32"`
	Verses      string    `json:"verses" gorm:"size:512"` // range notation, e.g. "1-3,5"
	Hits        int       `json:"hits" gorm:"default:0"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Verse) TableName() string {
	return "verses"
}

func (CachedChapter) TableName() string {
	return "cached_chapters"
}

func (ShareLink) TableName() string {
	return "share_links"
}
