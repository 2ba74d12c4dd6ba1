package booknames

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSuggestionLimit caps book-stage suggestions.
const DefaultSuggestionLimit = 8

// listed chapters/verses when only the book or chapter is known
const listedNumbers = 10

// book part, optional " <chapter>", optional ":<verse>"
var suggestRe = regexp.MustCompile(`^([\p{L}\p{N}\s-]+?)(\s+(\d+))?(\s*:(\d*))?$`)

// Stage is how far a partially typed reference has progressed.
type Stage string

const (
	StageBook    Stage = "book"
	StageChapter Stage = "chapter"
	StageVerse   Stage = "verse"
)

// Suggest completes a partially typed reference. It suggests localized book
// names until a book is recognized, then chapters, then verses.
func (c *Catalog) Suggest(input, translation string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	m := suggestRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return []string{}
	}
	bookPart, chapterPart, hasVerse, versePart := strings.TrimSpace(m[1]), m[3], m[4] != "", m[5]

	if chapterPart == "" && !hasVerse {
		return c.suggestBooks(bookPart, translation, limit)
	}

	book, ok := c.FindBook(bookPart, translation)
	if !ok || chapterPart == "" {
		return []string{}
	}
	name := c.Localize(book.Name, translation)
	chapter, err := strconv.Atoi(chapterPart)
	if err != nil {
		return []string{}
	}

	suggestions := []string{}
	if !hasVerse {
		if chapter <= 0 {
			for i := 1; i <= min(book.Chapters, listedNumbers); i++ {
				suggestions = append(suggestions, fmt.Sprintf("%s %d", name, i))
			}
		} else if chapter <= book.Chapters {
			suggestions = append(suggestions, fmt.Sprintf("%s %d", name, chapter))
		}
		return suggestions
	}

	if chapter <= 0 || chapter > book.Chapters {
		return suggestions
	}
	if versePart == "" {
		for i := 1; i <= listedNumbers; i++ {
			suggestions = append(suggestions, fmt.Sprintf("%s %d:%d", name, chapter, i))
		}
		return suggestions
	}
	if verse, err := strconv.Atoi(versePart); err == nil && verse > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%s %d:%d", name, chapter, verse))
	}
	return suggestions
}

func (c *Catalog) suggestBooks(term, translation string, limit int) []string {
	lower := strings.ToLower(term)
	suggestions := []string{}
	for _, b := range c.books {
		local := c.Localize(b.Name, translation)
		match := strings.Contains(strings.ToLower(b.Name), lower) ||
			strings.Contains(strings.ToLower(local), lower)
		if !match {
			for _, abbr := range b.Abbreviations {
				if strings.Contains(strings.ToLower(abbr), lower) {
					match = true
					break
				}
			}
		}
		if match {
			suggestions = append(suggestions, local)
			if len(suggestions) >= limit {
				break
			}
		}
	}
	return suggestions
}

// StageOf reports which completion stage the input has reached.
func (c *Catalog) StageOf(input, translation string) Stage {
	m := suggestRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return StageBook
	}
	if _, ok := c.FindBook(strings.TrimSpace(m[1]), translation); !ok || m[3] == "" {
		return StageBook
	}
	if !strings.Contains(input, ":") {
		return StageChapter
	}
	return StageVerse
}
