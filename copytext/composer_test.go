package copytext

import (
	"reflect"
	"strings"
	"testing"

	"biblereader/verseset"
)

func TestCompose(t *testing.T) {
	c := NewComposer(nil)
	john3 := Passage{Book: "John", Chapter: 3}

	tests := []struct {
		name        string
		sel         verseset.Selection
		passage     Passage
		texts       map[int]string
		translation string
		want        string
	}{
		{
			name:        "consecutive",
			sel:         verseset.New(1, 2, 3),
			passage:     john3,
			texts:       map[int]string{1: "There was a man", 2: "The same came", 3: "Jesus answered"},
			translation: "KJV",
			want:        "John 3:1-3 KJV\n1 There was a man\n2 The same came\n3 Jesus answered",
		},
		{
			name:        "gaps and missing text",
			sel:         verseset.New(7, 1, 2, 5),
			passage:     john3,
			texts:       map[int]string{1: "a", 2: "b", 7: "g"},
			translation: "KJV",
			want:        "John 3:1-2, 5, 7 KJV\n1 a\n2 b\n5 \n7 g",
		},
		{
			name:        "localized lower case code",
			sel:         verseset.New(16),
			passage:     john3,
			texts:       map[int]string{16: "Karena begitu besar kasih Allah"},
			translation: "tb",
			want:        "Yohanes 3:16 TB\n16 Karena begitu besar kasih Allah",
		},
		{
			name:        "chinese",
			sel:         verseset.New(1),
			passage:     Passage{Book: "Genesis", Chapter: 1},
			texts:       map[int]string{1: "起初，神创造天地。"},
			translation: "CUNPSS-神",
			want:        "创世记 1:1 CUNPSS-神\n1 起初，神创造天地。",
		},
		{
			name:        "empty selection",
			sel:         verseset.New(),
			passage:     john3,
			texts:       map[int]string{1: "a"},
			translation: "KJV",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Compose(tt.sel, tt.passage, tt.texts, tt.translation)
			if got != tt.want {
				t.Errorf("Compose() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestComposeWithLocale(t *testing.T) {
	c := NewComposer(nil)
	got := c.ComposeWithLocale(verseset.New(16), Passage{"John", 3}, map[int]string{16: "x"}, "kjv", "TB")
	if want := "Yohanes 3:16 KJV\n16 x"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewComposer(nil)
	sel := verseset.New(9, 3, 4, 5, 1)
	texts := map[int]string{1: "a", 3: "c", 4: "d", 5: "e", 9: "i"}
	first := c.Compose(sel, Passage{"Psalms", 23}, texts, "KJV")
	for i := 0; i < 20; i++ {
		if got := c.Compose(sel, Passage{"Psalms", 23}, texts, "KJV"); got != first {
			t.Fatalf("output changed between calls: %q vs %q", first, got)
		}
	}
	if lines := strings.Split(first, "\n"); len(lines) != 6 {
		t.Fatalf("expected header plus 5 lines, got %d", len(lines))
	}
}

func TestAlign(t *testing.T) {
	got := Align(map[string][]VerseText{
		"KJV": {{Number: 2, Text: "k2"}, {Number: 1, Text: "k1"}},
		"TB":  {{Number: 1, Text: "t1"}, {Number: 3, Text: "t3"}},
	})
	want := []AlignedVerse{
		{Number: 1, Texts: map[string]string{"KJV": "k1", "TB": "t1"}},
		{Number: 2, Texts: map[string]string{"KJV": "k2", "TB": ""}},
		{Number: 3, Texts: map[string]string{"KJV": "", "TB": "t3"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Align() = %+v, want %+v", got, want)
	}
	if got := Align(nil); len(got) != 0 {
		t.Errorf("Align(nil) = %+v", got)
	}
}

func comparisonFixture() Comparison {
	return Comparison{
		Passage:      Passage{Book: "John", Chapter: 1},
		Translations: []string{"TB", "KJV", "CUV"},
		Aligned: Align(map[string][]VerseText{
			"KJV": {{1, "In the beginning was the Word"}, {2, "The same was in the beginning"}},
			"TB":  {{1, "Pada mulanya adalah Firman"}, {2, "Ia pada mulanya bersama-sama"}},
			"CUV": {{1, "太初有道"}},
		}),
	}
}

func TestComposeComparisonSynced(t *testing.T) {
	c := NewComposer(nil)
	cmp := comparisonFixture()
	cmp.Synced = true
	cmp.Shared = verseset.New(2)

	got := c.ComposeComparison(cmp)
	want := "Yohanes 1:2 TB\n2 Ia pada mulanya bersama-sama\n\n" +
		"John 1:2 KJV\n2 The same was in the beginning\n\n" +
		"約翰福音 1:2 CUV\n2 "
	if got != want {
		t.Errorf("ComposeComparison() =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeComparisonIndependent(t *testing.T) {
	c := NewComposer(nil)
	cmp := comparisonFixture()
	cmp.PerTranslation = map[string]verseset.Selection{
		"KJV": verseset.New(1, 2),
		"TB":  verseset.New(),
		"CUV": verseset.New(2),
	}

	got := c.ComposeComparison(cmp)
	want := "John 1:1-2 KJV\n1 In the beginning was the Word\n2 The same was in the beginning"
	if got != want {
		t.Errorf("ComposeComparison() =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeComparisonOrderFollowsTranslations(t *testing.T) {
	c := NewComposer(nil)
	cmp := comparisonFixture()
	cmp.Translations = []string{"KJV", "TB"}
	cmp.PerTranslation = map[string]verseset.Selection{
		"KJV": verseset.New(1),
		"TB":  verseset.New(1),
	}

	blocks := strings.Split(c.ComposeComparison(cmp), "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "John 1:1 KJV") || !strings.HasPrefix(blocks[1], "Yohanes 1:1 TB") {
		t.Errorf("blocks out of order: %q", blocks)
	}
}

func TestComposeComparisonNothingSelected(t *testing.T) {
	c := NewComposer(nil)
	cmp := comparisonFixture()
	if got := c.ComposeComparison(cmp); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
