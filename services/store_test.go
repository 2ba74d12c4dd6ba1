package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"biblereader/copytext"
	"biblereader/models"
)

func TestVerseStoreSaveAndFetch(t *testing.T) {
	store := NewVerseStore(newTestDB(t))
	ctx := context.Background()

	verses := []copytext.VerseText{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}, {Number: 3, Text: "c"}, {Number: 4, Text: "d"}}
	if err := store.SaveChapter(ctx, "KJV", "Ruth", 1, verses, SourceRemote); err != nil {
		t.Fatalf("SaveChapter: %v", err)
	}

	tests := []struct {
		name       string
		start, end int
		want       []int
	}{
		{"chapter", 0, 0, []int{1, 2, 3, 4}},
		{"single", 3, 0, []int{3}},
		{"range", 2, 3, []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FetchVerseRange(ctx, "KJV", "Ruth", 1, tt.start, tt.end)
			if err != nil {
				t.Fatalf("FetchVerseRange: %v", err)
			}
			numbers := make([]int, len(got))
			for i, v := range got {
				numbers[i] = v.Number
			}
			if !reflect.DeepEqual(numbers, tt.want) {
				t.Errorf("got %v, want %v", numbers, tt.want)
			}
		})
	}

	if _, err := store.FetchVerseRange(ctx, "KJV", "Ruth", 2, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing chapter: %v", err)
	}

	// saving again updates text in place
	if err := store.SaveChapter(ctx, "KJV", "Ruth", 1, []copytext.VerseText{{Number: 1, Text: "A"}}, SourceRemote); err != nil {
		t.Fatalf("SaveChapter again: %v", err)
	}
	got, _ := store.FetchVerseRange(ctx, "KJV", "Ruth", 1, 1, 0)
	if len(got) != 1 || got[0].Text != "A" {
		t.Errorf("after update: %+v", got)
	}
}

func TestVerseStoreFreshness(t *testing.T) {
	db := newTestDB(t)
	store := NewVerseStore(db)
	ctx := context.Background()

	fresh, err := store.ChapterFresh(ctx, "KJV", "Jude", 1, time.Hour)
	if err != nil || fresh {
		t.Fatalf("uncached chapter: fresh=%v err=%v", fresh, err)
	}

	if err := store.SaveChapter(ctx, "KJV", "Jude", 1, []copytext.VerseText{{Number: 1, Text: "Jude"}}, SourceRemote); err != nil {
		t.Fatal(err)
	}
	if fresh, _ := store.ChapterFresh(ctx, "KJV", "Jude", 1, time.Hour); !fresh {
		t.Error("just cached chapter should be fresh")
	}

	old := time.Now().UTC().Add(-2 * time.Hour)
	db.Model(&models.CachedChapter{}).Where("book = ?", "Jude").Update("fetched_at", old)
	if fresh, _ := store.ChapterFresh(ctx, "KJV", "Jude", 1, time.Hour); fresh {
		t.Error("chapter older than ttl should be stale")
	}
}

func TestVerseStorePurgeKeepsImports(t *testing.T) {
	db := newTestDB(t)
	store := NewVerseStore(db)
	ctx := context.Background()

	store.SaveChapter(ctx, "KJV", "Jude", 1, []copytext.VerseText{{Number: 1, Text: "remote"}}, SourceRemote)
	if _, err := store.ImportVerses(ctx, []models.Verse{{Translation: "TB", Book: "Jude", Chapter: 1, Number: 1, Text: "imported"}}); err != nil {
		t.Fatal(err)
	}
	db.Model(&models.CachedChapter{}).Where("1 = 1").Update("fetched_at", time.Now().UTC().Add(-48*time.Hour))

	n, err := store.PurgeStaleChapters(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeStaleChapters: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d chapters, want 1", n)
	}
	if _, err := store.FetchVerseRange(ctx, "KJV", "Jude", 1, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("remote verses should be gone: %v", err)
	}
	if fresh, _ := store.ChapterFresh(ctx, "TB", "Jude", 1, time.Hour); !fresh {
		t.Error("imported chapter should never go stale")
	}
}

func TestVerseStoreImportDeduplicates(t *testing.T) {
	store := NewVerseStore(newTestDB(t))
	ctx := context.Background()

	n, err := store.ImportVerses(ctx, []models.Verse{
		{Translation: "KJV", Book: "John", Chapter: 11, Number: 35, Text: "first"},
		{Translation: "KJV", Book: "John", Chapter: 11, Number: 35, Text: "Jesus wept."},
		{Translation: "KJV", Book: "John", Chapter: 11, Number: 36, Text: "Then said the Jews"},
	})
	if err != nil {
		t.Fatalf("ImportVerses: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}
	got, _ := store.FetchVerseRange(ctx, "KJV", "John", 11, 35, 0)
	if len(got) != 1 || got[0].Text != "Jesus wept." {
		t.Errorf("got %+v", got)
	}

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Verses != 2 || st.ImportedVerses != 2 || st.CachedChapters != 1 || st.Translations != 1 {
		t.Errorf("stats = %+v", st)
	}
}
