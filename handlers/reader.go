// handlers/reader.go - Reading, Comparison and Copy Endpoints
package handlers

import (
	"strings"

	"biblereader/booknames"
	"biblereader/services"
	"biblereader/utils"
	"biblereader/verseset"

	"github.com/gofiber/fiber/v2"
)

const defaultTranslation = "KJV"

var readerService *services.ReaderService

// InitReaderHandlers sets the service the reading endpoints use.
func InitReaderHandlers(reader *services.ReaderService) {
	readerService = reader
}

func translationParam(c *fiber.Ctx) string {
	tr := strings.ToUpper(strings.TrimSpace(c.Query("translation")))
	if tr == "" {
		return defaultTranslation
	}
	return tr
}

// findBook accepts any spelling of a book for the translation.
func findBook(raw, translation string) (booknames.Book, bool) {
	return readerService.Catalog().FindBook(raw, translation)
}

type bookEntry struct {
	Name      string `json:"name"`
	Localized string `json:"localized"`
	Chapters  int    `json:"chapters"`
}

type testamentGroup struct {
	Testament string      `json:"testament"`
	Label     string      `json:"label"`
	Books     []bookEntry `json:"books"`
}

// GetBooks lists the books grouped by testament with localized names
// GET /api/books?translation=TB
func GetBooks(c *fiber.Ctx) error {
	tr := translationParam(c)
	catalog := readerService.Catalog()

	groups := []testamentGroup{
		{Testament: booknames.OldTestament, Label: catalog.TestamentLabel(booknames.OldTestament, tr)},
		{Testament: booknames.NewTestament, Label: catalog.TestamentLabel(booknames.NewTestament, tr)},
	}
	for _, b := range catalog.Books() {
		i := 0
		if b.Testament == booknames.NewTestament {
			i = 1
		}
		groups[i].Books = append(groups[i].Books, bookEntry{
			Name:      b.Name,
			Localized: catalog.Localize(b.Name, tr),
			Chapters:  b.Chapters,
		})
	}

	return utils.JSONSuccess(c, fiber.Map{
		"translation":  tr,
		"translations": catalog.Translations(),
		"testaments":   groups,
	})
}

// Suggest completes a partially typed reference
// GET /api/suggest?q=Yoh&translation=TB&limit=8
func Suggest(c *fiber.Ctx) error {
	tr := translationParam(c)
	q := c.Query("q")
	limit, ok := utils.QueryInt(c, "limit")
	if !ok {
		limit = booknames.DefaultSuggestionLimit
	}

	suggestions := readerService.Catalog().Suggest(q, tr, limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	return utils.JSONSuccess(c, fiber.Map{
		"stage":       readerService.Catalog().StageOf(q, tr),
		"suggestions": suggestions,
	})
}

// GetReference parses and resolves a reference without fetching text
// GET /api/reference?q=Yohanes 3:16&translation=TB
func GetReference(c *fiber.Ctx) error {
	tr := translationParam(c)
	addrs, err := services.ResolveReferences(readerService.Catalog(), c.Query("q"), tr)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"translation": tr,
		"references":  addrs,
	})
}

// GetVerses fetches the text of a reference or a comma separated list
// GET /api/verses?reference=John 3:16-17&translation=KJV
func GetVerses(c *fiber.Ctx) error {
	reference := c.Query("reference")
	if strings.TrimSpace(reference) == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "reference is required")
	}
	passages, err := readerService.Passages(c.UserContext(), reference, translationParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"passages": passages})
}

// GetChapter fetches a whole chapter with previous/next navigation
// GET /api/chapter?book=John&chapter=3&translation=KJV
func GetChapter(c *fiber.Ctx) error {
	tr := translationParam(c)
	book, ok := findBook(c.Query("book"), tr)
	if !ok {
		return utils.JSONError(c, fiber.StatusNotFound, "unknown book")
	}
	chapter, ok := utils.QueryInt(c, "chapter")
	if !ok {
		chapter = 1
	}

	view, err := readerService.Chapter(c.UserContext(), book.Name, chapter, tr)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"chapter": view})
}

// GetComparison aligns a chapter across translations
// GET /api/compare?book=John&chapter=1&translations=KJV,TB,CUV
func GetComparison(c *fiber.Ctx) error {
	translations := utils.QueryList(c, "translations")
	if len(translations) == 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "translations is required")
	}
	book, ok := findBook(c.Query("book"), strings.ToUpper(translations[0]))
	if !ok {
		return utils.JSONError(c, fiber.StatusNotFound, "unknown book")
	}
	chapter, ok := utils.QueryInt(c, "chapter")
	if !ok {
		chapter = 1
	}

	view, err := readerService.Compare(c.UserContext(), book.Name, chapter, translations)
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"comparison": view})
}

// CopyTextRequest is the body of POST /api/copy. Verses use the URL form
// ("1-3,5").
type CopyTextRequest struct {
	Book           string                        `json:"book"`
	Chapter        int                           `json:"chapter"`
	Translations   []string                      `json:"translations"`
	Synced         bool                          `json:"synced"`
	Verses         verseset.Selection            `json:"verses"`
	PerTranslation map[string]verseset.Selection `json:"per_translation"`
}

// ComposeCopyText renders the copy text for a selection
// POST /api/copy
func ComposeCopyText(c *fiber.Ctx) error {
	var req CopyTextRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.Translations) == 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "translations is required")
	}
	book, ok := findBook(req.Book, strings.ToUpper(req.Translations[0]))
	if !ok {
		return utils.JSONError(c, fiber.StatusNotFound, "unknown book")
	}

	text, err := readerService.ComposeCopy(c.UserContext(), services.CopyRequest{
		Book:           book.Name,
		Chapter:        req.Chapter,
		Translations:   req.Translations,
		Synced:         req.Synced,
		Shared:         req.Verses,
		PerTranslation: req.PerTranslation,
	})
	if err != nil {
		return writeError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"text":  text,
		"empty": text == "",
	})
}
