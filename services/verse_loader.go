package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"biblereader/booknames"
	"biblereader/models"
	"biblereader/verseparser"
)

// JSONBook is one book of a full-Bible JSON export:
// [{"abbrev": "gn", "chapters": [["In the beginning...", ...], ...]}, ...]
type JSONBook struct {
	Abbrev   string     `json:"abbrev"`
	Name     string     `json:"name,omitempty"`
	Chapters [][]string `json:"chapters"`
}

// abbreviations used by the common JSON Bible exports
var jsonBookAbbrevs = map[string]string{
	"gn": "Genesis", "ex": "Exodus", "lv": "Leviticus", "nm": "Numbers", "dt": "Deuteronomy",
	"js": "Joshua", "jud": "Judges", "rt": "Ruth", "1sm": "1 Samuel", "2sm": "2 Samuel",
	"1kgs": "1 Kings", "2kgs": "2 Kings", "1ch": "1 Chronicles", "2ch": "2 Chronicles",
	"ezr": "Ezra", "ne": "Nehemiah", "et": "Esther", "job": "Job", "ps": "Psalms", "prv": "Proverbs",
	"ec": "Ecclesiastes", "so": "Song of Solomon", "is": "Isaiah", "jr": "Jeremiah",
	"lm": "Lamentations", "ez": "Ezekiel", "dn": "Daniel", "ho": "Hosea", "jl": "Joel",
	"am": "Amos", "ob": "Obadiah", "jo": "Jonah", "mi": "Micah", "na": "Nahum", "hk": "Habakkuk",
	"zp": "Zephaniah", "hg": "Haggai", "zc": "Zechariah", "ml": "Malachi",
	"mt": "Matthew", "mk": "Mark", "lk": "Luke", "jn": "John", "act": "Acts", "rm": "Romans",
	"1co": "1 Corinthians", "2co": "2 Corinthians", "gl": "Galatians", "eph": "Ephesians",
	"ph": "Philippians", "cl": "Colossians", "1ts": "1 Thessalonians", "2ts": "2 Thessalonians",
	"1tm": "1 Timothy", "2tm": "2 Timothy", "tt": "Titus", "phm": "Philemon", "hb": "Hebrews",
	"jm": "James", "1pe": "1 Peter", "2pe": "2 Peter", "1jo": "1 John", "2jo": "2 John",
	"3jo": "3 John", "jd": "Jude", "re": "Revelation",
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Files    int      `json:"files"`
	Verses   int      `json:"verses"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *ImportResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("WARN %s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// TranslationFromFilename takes the translation code from a file name:
// "kjv-full.json" and "tb_john.txt" give KJV and TB.
func TranslationFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.IndexAny(base, "-_."); i > 0 {
		base = base[:i]
	}
	return strings.ToUpper(base)
}

// VerseLoader imports local verse files into the store.
type VerseLoader struct {
	store   *VerseStore
	catalog *booknames.Catalog
}

func NewVerseLoader(store *VerseStore, catalog *booknames.Catalog) *VerseLoader {
	return &VerseLoader{store: store, catalog: catalog}
}

// LoadDirectory imports every *.json and *.txt file in dir. A missing
// directory is created and yields an empty result.
func (l *VerseLoader) LoadDirectory(ctx context.Context, dir string) (*ImportResult, error) {
	result := &ImportResult{}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Println("Verses directory not found, creating it...")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create verses directory: %w", err)
		}
		return result, nil
	}

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read verses directory: %w", err)
	}
	txtFiles, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read verses directory: %w", err)
	}
	if len(jsonFiles)+len(txtFiles) == 0 {
		log.Println("No verse files found in verses directory")
		return result, nil
	}

	for _, file := range jsonFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log.Printf("Loading verses from JSON: %s", file)
		verses, err := l.parseJSONFile(file, TranslationFromFilename(file), result)
		if err != nil {
			result.warn("%s: %v", file, err)
			continue
		}
		if err := l.save(ctx, file, verses, result); err != nil {
			return result, err
		}
	}

	for _, file := range txtFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log.Printf("Loading verses from TXT: %s", file)
		verses, err := l.parseTXTFile(file, TranslationFromFilename(file), result)
		if err != nil {
			result.warn("%s: %v", file, err)
			continue
		}
		if err := l.save(ctx, file, verses, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (l *VerseLoader) save(ctx context.Context, file string, verses []models.Verse, result *ImportResult) error {
	n, err := l.store.ImportVerses(ctx, verses)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	result.Files++
	result.Verses += n
	log.Printf("Successfully loaded %d verses from %s", n, filepath.Base(file))
	return nil
}

func (l *VerseLoader) bookFor(b JSONBook) (string, bool) {
	for _, candidate := range []string{b.Name, jsonBookAbbrevs[strings.ToLower(b.Abbrev)], b.Abbrev} {
		if candidate == "" {
			continue
		}
		if book, ok := l.catalog.FindBook(candidate, "KJV"); ok {
			return book.Name, true
		}
	}
	return "", false
}

func (l *VerseLoader) parseJSONFile(path, translation string, result *ImportResult) ([]models.Verse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	// some exports start with a UTF-8 BOM
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))

	var books []JSONBook
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return l.versesFromBooks(books, translation, result), nil
}

func (l *VerseLoader) versesFromBooks(books []JSONBook, translation string, result *ImportResult) []models.Verse {
	var verses []models.Verse
	for _, b := range books {
		name, ok := l.bookFor(b)
		if !ok {
			result.warn("unknown book %q (%s)", b.Abbrev, translation)
			result.Skipped++
			continue
		}
		for chapterIdx, chapter := range b.Chapters {
			for verseIdx, text := range chapter {
				verses = append(verses, models.Verse{
					Translation: translation,
					Book:        name,
					Chapter:     chapterIdx + 1,
					Number:      verseIdx + 1,
					Text:        strings.TrimSpace(text),
				})
			}
		}
	}
	return verses
}

// parseTXTFile reads "N. <Reference> — <Text>" lines. Only single-verse
// references can be stored; range lines are skipped with a warning.
func (l *VerseLoader) parseTXTFile(path, translation string, result *ImportResult) ([]models.Verse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var verses []models.Verse
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ref, text, ok := verseparser.ParseNumberedLine(line)
		if !ok {
			result.warn("%s:%d: does not match 'N. <Reference> — <Text>'", path, lineNum)
			result.Skipped++
			continue
		}
		addr, err := ResolveReference(l.catalog, ref, translation)
		if err != nil {
			result.warn("%s:%d: %v", path, lineNum, err)
			result.Skipped++
			continue
		}
		if addr.IsChapter() || addr.IsRange() {
			result.warn("%s:%d: %s is not a single verse", path, lineNum, addr)
			result.Skipped++
			continue
		}

		verses = append(verses, models.Verse{
			Translation: translation,
			Book:        addr.Book,
			Chapter:     addr.Chapter,
			Number:      addr.VerseStart,
			Text:        text,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return verses, nil
}
