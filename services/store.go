// services/store.go - Local Verse Store (GORM)
package services

import (
	"context"
	"fmt"
	"time"

	"biblereader/copytext"
	"biblereader/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SourceRemote = "remote"
	SourceImport = "import"
)

type VerseStore struct {
	db *gorm.DB
}

func NewVerseStore(db *gorm.DB) *VerseStore {
	return &VerseStore{db: db}
}

// StoreStats summarizes what the store holds.
type StoreStats struct {
	Verses         int64 `json:"verses"`
	CachedChapters int64 `json:"cached_chapters"`
	ImportedVerses int64 `json:"imported_verses"`
	Translations   int64 `json:"translations"`
}

func verseConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{
			{Name: "translation"}, {Name: "book"}, {Name: "chapter"}, {Name: "number"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"text", "source", "updated_at"}),
	}
}

// SaveChapter replaces the stored text of a whole chapter and marks it as
// cached now.
func (s *VerseStore) SaveChapter(ctx context.Context, translation, book string, chapter int, verses []copytext.VerseText, source string) error {
	rows := make([]models.Verse, 0, len(verses))
	for _, v := range verses {
		rows = append(rows, models.Verse{
			Translation: translation,
			Book:        book,
			Chapter:     chapter,
			Number:      v.Number,
			Text:        v.Text,
			Source:      source,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(verseConflict()).CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		marker := models.CachedChapter{
			Translation: translation,
			Book:        book,
			Chapter:     chapter,
			VerseCount:  len(rows),
			Source:      source,
			FetchedAt:   time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "translation"}, {Name: "book"}, {Name: "chapter"}},
			DoUpdates: clause.AssignmentColumns([]string{"verse_count", "source", "fetched_at"}),
		}).Create(&marker).Error
	})
}

// ImportVerses upserts verses from a local file and marks every chapter they
// touch as imported. It returns the number of verses written.
func (s *VerseStore) ImportVerses(ctx context.Context, verses []models.Verse) (int, error) {
	if len(verses) == 0 {
		return 0, nil
	}

	type chapterKey struct {
		translation, book string
		chapter           int
	}
	type verseKey struct {
		chapterKey
		number int
	}

	// one row per address, last one wins
	index := make(map[verseKey]int, len(verses))
	unique := make([]models.Verse, 0, len(verses))
	for _, v := range verses {
		v.Source = SourceImport
		k := verseKey{chapterKey{v.Translation, v.Book, v.Chapter}, v.Number}
		if i, dup := index[k]; dup {
			unique[i] = v
			continue
		}
		index[k] = len(unique)
		unique = append(unique, v)
	}
	verses = unique

	counts := make(map[chapterKey]int)
	for _, v := range verses {
		counts[chapterKey{v.Translation, v.Book, v.Chapter}]++
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(verseConflict()).CreateInBatches(&verses, 500).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for k, n := range counts {
			marker := models.CachedChapter{
				Translation: k.translation,
				Book:        k.book,
				Chapter:     k.chapter,
				VerseCount:  n,
				Source:      SourceImport,
				FetchedAt:   now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "translation"}, {Name: "book"}, {Name: "chapter"}},
				DoUpdates: clause.AssignmentColumns([]string{"verse_count", "source", "fetched_at"}),
			}).Create(&marker).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import verses: %w", err)
	}
	return len(verses), nil
}

// ChapterFresh reports whether the chapter is cached and usable. Imported
// chapters never go stale.
func (s *VerseStore) ChapterFresh(ctx context.Context, translation, book string, chapter int, ttl time.Duration) (bool, error) {
	var marker models.CachedChapter
	err := s.db.WithContext(ctx).
		Where("translation = ? AND book = ? AND chapter = ?", translation, book, chapter).
		Limit(1).Find(&marker).Error
	if err != nil {
		return false, err
	}
	if marker.ID == 0 {
		return false, nil
	}
	if marker.Source == SourceImport || ttl <= 0 {
		return true, nil
	}
	return time.Since(marker.FetchedAt) < ttl, nil
}

// FetchVerseRange implements VerseSource over the stored verses.
func (s *VerseStore) FetchVerseRange(ctx context.Context, translation, book string, chapter, start, end int) ([]copytext.VerseText, error) {
	q := s.db.WithContext(ctx).Model(&models.Verse{}).
		Where("translation = ? AND book = ? AND chapter = ?", translation, book, chapter)
	switch {
	case start == 0:
	case end == 0:
		q = q.Where("number = ?", start)
	default:
		q = q.Where("number BETWEEN ? AND ?", start, end)
	}

	var rows []models.Verse
	if err := q.Order("number").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %d (%s): %w", book, chapter, translation, ErrNotFound)
	}

	verses := make([]copytext.VerseText, len(rows))
	for i, r := range rows {
		verses[i] = copytext.VerseText{Number: r.Number, Text: r.Text}
	}
	return verses, nil
}

// PurgeStaleChapters drops remote chapters fetched before cutoff, text and
// marker both. Imported chapters are kept.
func (s *VerseStore) PurgeStaleChapters(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []models.CachedChapter
		if err := tx.Where("source = ? AND fetched_at < ?", SourceRemote, cutoff).Find(&stale).Error; err != nil {
			return err
		}
		for _, m := range stale {
			if err := tx.Where("translation = ? AND book = ? AND chapter = ? AND source = ?",
				m.Translation, m.Book, m.Chapter, SourceRemote).Delete(&models.Verse{}).Error; err != nil {
				return err
			}
		}
		if len(stale) > 0 {
			if err := tx.Delete(&stale).Error; err != nil {
				return err
			}
		}
		purged = int64(len(stale))
		return nil
	})
	return purged, err
}

// DropCache removes every remotely fetched chapter.
func (s *VerseStore) DropCache(ctx context.Context) (int64, error) {
	return s.PurgeStaleChapters(ctx, time.Now().UTC().Add(time.Hour))
}

func (s *VerseStore) Stats(ctx context.Context) (StoreStats, error) {
	var st StoreStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Verse{}).Count(&st.Verses).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Verse{}).Where("source = ?", SourceImport).Count(&st.ImportedVerses).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.CachedChapter{}).Count(&st.CachedChapters).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Verse{}).Distinct("translation").Count(&st.Translations).Error; err != nil {
		return st, err
	}
	return st, nil
}
