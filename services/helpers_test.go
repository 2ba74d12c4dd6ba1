package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"biblereader/copytext"
	"biblereader/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeSource serves chapters from memory and counts calls.
type fakeSource struct {
	mu       sync.Mutex
	chapters map[string][]copytext.VerseText
	errs     map[string]error
	calls    int
}

func newFakeSource() *fakeSource {
	return &fakeSource{chapters: map[string][]copytext.VerseText{}, errs: map[string]error{}}
}

func chapterKey(translation, book string, chapter int) string {
	return fmt.Sprintf("%s|%s|%d", translation, book, chapter)
}

func (f *fakeSource) put(translation, book string, chapter int, texts ...string) {
	verses := make([]copytext.VerseText, len(texts))
	for i, t := range texts {
		verses[i] = copytext.VerseText{Number: i + 1, Text: t}
	}
	f.mu.Lock()
	f.chapters[chapterKey(translation, book, chapter)] = verses
	f.mu.Unlock()
}

func (f *fakeSource) fail(translation string, err error) {
	f.mu.Lock()
	f.errs[translation] = err
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) FetchVerseRange(_ context.Context, translation, book string, chapter, start, end int) ([]copytext.VerseText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[translation]; err != nil {
		return nil, err
	}
	verses, ok := f.chapters[chapterKey(translation, book, chapter)]
	if !ok {
		return nil, ErrNotFound
	}
	out := sliceVerses(verses, start, end)
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
