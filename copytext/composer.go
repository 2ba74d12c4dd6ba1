// Package copytext turns a verse selection plus fetched verse text into the
// text a reader copies to the clipboard.
package copytext

import (
	"sort"
	"strconv"
	"strings"

	"biblereader/booknames"
	"biblereader/verseset"
)

// Passage is the chapter a selection belongs to. Book is canonical.
type Passage struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
}

// VerseText is one verse as returned by a content source.
type VerseText struct {
	Number int    `json:"verse"`
	Text   string `json:"text"`
}

// Composer formats copy text. It only reads the catalog, so one Composer can
// serve any number of goroutines.
type Composer struct {
	catalog *booknames.Catalog
}

func NewComposer(catalog *booknames.Catalog) *Composer {
	if catalog == nil {
		catalog = booknames.Default()
	}
	return &Composer{catalog: catalog}
}

// Compose formats the selected verses of one translation:
//
//	John 3:16-17 KJV
//	16 For God so loved the world...
//	17 For God sent not his Son...
//
// A selected verse without text still gets its "<n> " line.
func (c *Composer) Compose(sel verseset.Selection, p Passage, texts map[int]string, translation string) string {
	return c.ComposeWithLocale(sel, p, texts, translation, translation)
}

// ComposeWithLocale is Compose with the header code and the translation used
// for the localized book name given separately.
func (c *Composer) ComposeWithLocale(sel verseset.Selection, p Passage, texts map[int]string, code, localeTranslation string) string {
	if sel.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString(c.Header(sel, p, code, localeTranslation))
	for _, n := range sel.Sorted() {
		b.WriteByte('\n')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(' ')
		b.WriteString(texts[n])
	}
	return b.String()
}

// Header renders "<localized book> <chapter>:<ranges> <CODE>".
func (c *Composer) Header(sel verseset.Selection, p Passage, code, localeTranslation string) string {
	return c.catalog.Localize(p.Book, localeTranslation) + " " +
		strconv.Itoa(p.Chapter) + ":" + verseset.FormatRanges(sel) + " " +
		strings.ToUpper(strings.TrimSpace(code))
}

// AlignedVerse pairs one verse number with its text in every translation.
type AlignedVerse struct {
	Number int               `json:"verse"`
	Texts  map[string]string `json:"texts"`
}

// Align merges per-translation verse lists into one row per verse number,
// ascending. Translations missing a verse get an empty text for it.
func Align(byTranslation map[string][]VerseText) []AlignedVerse {
	rows := make(map[int]map[string]string)
	for translation, verses := range byTranslation {
		for _, v := range verses {
			row, ok := rows[v.Number]
			if !ok {
				row = make(map[string]string, len(byTranslation))
				rows[v.Number] = row
			}
			row[translation] = v.Text
		}
	}

	numbers := make([]int, 0, len(rows))
	for n := range rows {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	aligned := make([]AlignedVerse, 0, len(numbers))
	for _, n := range numbers {
		row := rows[n]
		for translation := range byTranslation {
			if _, ok := row[translation]; !ok {
				row[translation] = ""
			}
		}
		aligned = append(aligned, AlignedVerse{Number: n, Texts: row})
	}
	return aligned
}

// Comparison is a chapter shown side by side in several translations.
// Synced selections share one verse set; otherwise each translation keeps
// its own in PerTranslation.
type Comparison struct {
	Passage        Passage
	Translations   []string
	Aligned        []AlignedVerse
	Synced         bool
	Shared         verseset.Selection
	PerTranslation map[string]verseset.Selection
}

// Selection returns the verses selected for one translation.
func (cmp Comparison) Selection(translation string) verseset.Selection {
	if cmp.Synced {
		return cmp.Shared
	}
	return cmp.PerTranslation[translation]
}

// ComposeComparison renders one block per translation, in Translations order,
// separated by a blank line. In independent mode a translation whose
// selection has no verse with text is left out.
func (c *Composer) ComposeComparison(cmp Comparison) string {
	blocks := make([]string, 0, len(cmp.Translations))
	for _, translation := range cmp.Translations {
		sel := cmp.Selection(translation)
		if sel.IsEmpty() {
			continue
		}

		texts := make(map[int]string, sel.Len())
		present := 0
		for _, row := range cmp.Aligned {
			if !sel.Has(row.Number) {
				continue
			}
			if text, ok := row.Texts[translation]; ok {
				texts[row.Number] = text
				if text != "" {
					present++
				}
			}
		}
		if !cmp.Synced && present == 0 {
			continue
		}

		blocks = append(blocks, c.Compose(sel, cmp.Passage, texts, translation))
	}
	return strings.Join(blocks, "\n\n")
}
