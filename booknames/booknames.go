// Package booknames resolves Bible book names between their canonical English
// form and the localized names used by each translation.
package booknames

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

//go:embed data/*.json
var dataFS embed.FS

// DefaultLanguage is used for translations without a language mapping.
const DefaultLanguage = "en"

const (
	OldTestament = "old"
	NewTestament = "new"
)

// Book is an entry of the canonical book list.
type Book struct {
	Name          string   `json:"name"`
	Testament     string   `json:"testament"`
	Chapters      int      `json:"chapters"`
	Abbreviations []string `json:"abbreviations"`
}

// Language is one book-name table plus its testament labels.
type Language struct {
	Testaments map[string]string `json:"testaments"`
	Books      map[string]string `json:"books"`
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	books        []Book
	byName       map[string]int
	languages    map[string]Language
	translations map[string]string
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the catalog built from the embedded tables.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := loadEmbedded()
		if err != nil {
			log.Fatalf("❌ Failed to load book name tables: %v", err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func loadEmbedded() (*Catalog, error) {
	books, err := dataFS.ReadFile("data/books.json")
	if err != nil {
		return nil, err
	}
	languages, err := dataFS.ReadFile("data/languages.json")
	if err != nil {
		return nil, err
	}
	translations, err := dataFS.ReadFile("data/translations.json")
	if err != nil {
		return nil, err
	}
	return Load(books, languages, translations)
}

// Load builds a catalog from JSON tables. A language table that lacks a
// canonical book gets the canonical name for it.
func Load(booksJSON, languagesJSON, translationsJSON []byte) (*Catalog, error) {
	var books []Book
	if err := json.Unmarshal(booksJSON, &books); err != nil {
		return nil, fmt.Errorf("failed to parse book list: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("book list is empty")
	}

	var languages map[string]Language
	if err := json.Unmarshal(languagesJSON, &languages); err != nil {
		return nil, fmt.Errorf("failed to parse language tables: %w", err)
	}

	var translations map[string]string
	if err := json.Unmarshal(translationsJSON, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation map: %w", err)
	}

	c := &Catalog{
		books:        books,
		byName:       make(map[string]int, len(books)),
		languages:    make(map[string]Language, len(languages)),
		translations: make(map[string]string, len(translations)),
	}

	for i, b := range books {
		if b.Name == "" {
			return nil, fmt.Errorf("book %d has no name", i)
		}
		if _, dup := c.byName[b.Name]; dup {
			return nil, fmt.Errorf("duplicate book %q", b.Name)
		}
		c.byName[b.Name] = i
	}

	for code, lang := range languages {
		filled := Language{
			Testaments: make(map[string]string, len(lang.Testaments)),
			Books:      make(map[string]string, len(books)),
		}
		for k, v := range lang.Testaments {
			filled.Testaments[k] = v
		}
		missing := 0
		for _, b := range books {
			name, ok := lang.Books[b.Name]
			if !ok || strings.TrimSpace(name) == "" {
				name = b.Name
				missing++
			}
			filled.Books[b.Name] = name
		}
		if missing > 0 {
			log.Printf("⚠️  Language %s is missing %d book names, using canonical names", code, missing)
		}
		c.languages[code] = filled
	}

	for code, lang := range translations {
		c.translations[normalizeCode(code)] = lang
	}

	return c, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LanguageFor returns the language of a translation code.
func (c *Catalog) LanguageFor(translation string) string {
	if lang, ok := c.translations[normalizeCode(translation)]; ok {
		return lang
	}
	return DefaultLanguage
}

func (c *Catalog) language(translation string) (Language, bool) {
	lang, ok := c.languages[c.LanguageFor(translation)]
	return lang, ok
}

// Translations lists the known translation codes.
func (c *Catalog) Translations() []string {
	out := make([]string, 0, len(c.translations))
	for code := range c.translations {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Books returns the canonical book list in biblical order.
func (c *Catalog) Books() []Book {
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

// Book looks up a canonical book by exact name.
func (c *Catalog) Book(name string) (Book, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

func (c *Catalog) IsCanonical(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Localize returns the display name of a canonical book in the translation's
// language, or the canonical name when there is none.
func (c *Catalog) Localize(canonicalBook, translation string) string {
	if lang, ok := c.language(translation); ok {
		if name, ok := lang.Books[canonicalBook]; ok {
			return name
		}
	}
	return canonicalBook
}

// Canonicalize maps a localized name, canonical name or abbreviation to the
// canonical book name. Matching ignores case where the script has case. When
// nothing matches the input is returned unchanged; callers detect the miss
// with IsCanonical.
func (c *Catalog) Canonicalize(name, translation string) string {
	term := strings.Join(strings.Fields(name), " ")
	if term == "" {
		return name
	}

	if lang, ok := c.language(translation); ok {
		for _, b := range c.books {
			if strings.EqualFold(lang.Books[b.Name], term) {
				return b.Name
			}
		}
	}

	compact := strings.ReplaceAll(term, " ", "")
	for _, b := range c.books {
		if strings.EqualFold(b.Name, term) || strings.EqualFold(strings.ReplaceAll(b.Name, " ", ""), compact) {
			return b.Name
		}
	}

	for _, b := range c.books {
		for _, abbr := range b.Abbreviations {
			if strings.EqualFold(abbr, term) {
				return b.Name
			}
		}
	}

	return name
}

// FindBook resolves any accepted spelling of a book for the translation.
func (c *Catalog) FindBook(term, translation string) (Book, bool) {
	return c.Book(c.Canonicalize(term, translation))
}

// TestamentLabel returns the localized label for "old" or "new", falling
// back to English.
func (c *Catalog) TestamentLabel(testament, translation string) string {
	if lang, ok := c.language(translation); ok {
		if label, ok := lang.Testaments[testament]; ok {
			return label
		}
	}
	if label, ok := c.languages[DefaultLanguage].Testaments[testament]; ok {
		return label
	}
	return testament
}

// NextChapter returns the chapter after book/chapter, crossing into the next
// book at the end of a book. ok is false after the last chapter of the Bible.
func (c *Catalog) NextChapter(book string, chapter int) (string, int, bool) {
	i, found := c.byName[book]
	if !found {
		return "", 0, false
	}
	if chapter < c.books[i].Chapters {
		return book, chapter + 1, true
	}
	if i+1 < len(c.books) {
		return c.books[i+1].Name, 1, true
	}
	return "", 0, false
}

// PreviousChapter is the mirror of NextChapter; stepping back from chapter 1
// lands on the last chapter of the previous book.
func (c *Catalog) PreviousChapter(book string, chapter int) (string, int, bool) {
	i, found := c.byName[book]
	if !found {
		return "", 0, false
	}
	if chapter > 1 {
		return book, chapter - 1, true
	}
	if i > 0 {
		prev := c.books[i-1]
		return prev.Name, prev.Chapters, true
	}
	return "", 0, false
}
