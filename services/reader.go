// services/reader.go - Chapter Reading, Comparison and Copy Text
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"biblereader/booknames"
	"biblereader/copytext"
	"biblereader/verseset"
)

// ChapterView is one chapter of one translation with its neighbours.
type ChapterView struct {
	Book          string               `json:"book"`
	LocalizedBook string               `json:"localized_book"`
	Testament     string               `json:"testament"`
	Chapter       int                  `json:"chapter"`
	Translation   string               `json:"translation"`
	Verses        []copytext.VerseText `json:"verses"`
	Prev          *ChapterRef          `json:"prev,omitempty"`
	Next          *ChapterRef          `json:"next,omitempty"`
}

type ChapterRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
}

// ComparisonView is a chapter aligned across translations. Failed
// translations are listed in Errors and absent from Aligned.
type ComparisonView struct {
	Book         string                  `json:"book"`
	Chapter      int                     `json:"chapter"`
	Translations []string                `json:"translations"`
	Headers      map[string]string       `json:"headers"`
	Aligned      []copytext.AlignedVerse `json:"aligned"`
	Errors       map[string]string       `json:"errors,omitempty"`
}

// ReaderService ties the catalog, a verse source and the composer together.
type ReaderService struct {
	catalog  *booknames.Catalog
	source   VerseSource
	composer *copytext.Composer
}

func NewReaderService(catalog *booknames.Catalog, source VerseSource) *ReaderService {
	return &ReaderService{
		catalog:  catalog,
		source:   source,
		composer: copytext.NewComposer(catalog),
	}
}

func (s *ReaderService) Catalog() *booknames.Catalog {
	return s.catalog
}

func (s *ReaderService) Composer() *copytext.Composer {
	return s.composer
}

func (s *ReaderService) checkChapter(book string, chapter int) (booknames.Book, error) {
	b, ok := s.catalog.Book(book)
	if !ok {
		return b, fmt.Errorf("unknown book %q: %w", book, ErrNotFound)
	}
	if chapter < 1 || chapter > b.Chapters {
		return b, fmt.Errorf("%s has no chapter %d: %w", book, chapter, ErrNotFound)
	}
	return b, nil
}

// Chapter fetches a whole chapter.
func (s *ReaderService) Chapter(ctx context.Context, book string, chapter int, translation string) (*ChapterView, error) {
	b, err := s.checkChapter(book, chapter)
	if err != nil {
		return nil, err
	}
	translation = strings.ToUpper(translation)

	verses, err := s.source.FetchVerseRange(ctx, translation, book, chapter, 0, 0)
	if err != nil {
		return nil, err
	}

	view := &ChapterView{
		Book:          book,
		LocalizedBook: s.catalog.Localize(book, translation),
		Testament:     s.catalog.TestamentLabel(b.Testament, translation),
		Chapter:       chapter,
		Translation:   translation,
		Verses:        verses,
	}
	if pb, pc, ok := s.catalog.PreviousChapter(book, chapter); ok {
		view.Prev = &ChapterRef{Book: pb, Chapter: pc}
	}
	if nb, nc, ok := s.catalog.NextChapter(book, chapter); ok {
		view.Next = &ChapterRef{Book: nb, Chapter: nc}
	}
	return view, nil
}

// PassageView is the text of one resolved reference.
type PassageView struct {
	Reference   string               `json:"reference"`
	Book        string               `json:"book"`
	Chapter     int                  `json:"chapter"`
	Translation string               `json:"translation"`
	Verses      []copytext.VerseText `json:"verses"`
}

// Passages resolves a reference (or a comma separated list) typed in the
// translation's language and fetches each one.
func (s *ReaderService) Passages(ctx context.Context, reference, translation string) ([]PassageView, error) {
	translation = strings.ToUpper(strings.TrimSpace(translation))
	addrs, err := ResolveReferences(s.catalog, reference, translation)
	if err != nil {
		return nil, err
	}

	out := make([]PassageView, 0, len(addrs))
	for _, addr := range addrs {
		verses, err := s.source.FetchVerseRange(ctx, translation, addr.Book, addr.Chapter, addr.VerseStart, addr.VerseEnd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", addr, err)
		}
		localized := addr
		localized.Book = s.catalog.Localize(addr.Book, translation)
		out = append(out, PassageView{
			Reference:   localized.String(),
			Book:        addr.Book,
			Chapter:     addr.Chapter,
			Translation: translation,
			Verses:      verses,
		})
	}
	return out, nil
}

// Compare fetches the chapter in every translation concurrently and aligns
// the verses.
func (s *ReaderService) Compare(ctx context.Context, book string, chapter int, translations []string) (*ComparisonView, error) {
	if _, err := s.checkChapter(book, chapter); err != nil {
		return nil, err
	}
	translations = normalizeTranslations(translations)
	if len(translations) == 0 {
		return nil, fmt.Errorf("no translations requested: %w", ErrNotFound)
	}

	type result struct {
		translation string
		verses      []copytext.VerseText
		err         error
	}
	results := make([]result, len(translations))

	var wg sync.WaitGroup
	for i, tr := range translations {
		wg.Add(1)
		go func(i int, tr string) {
			defer wg.Done()
			verses, err := s.source.FetchVerseRange(ctx, tr, book, chapter, 0, 0)
			results[i] = result{translation: tr, verses: verses, err: err}
		}(i, tr)
	}
	wg.Wait()

	view := &ComparisonView{
		Book:         book,
		Chapter:      chapter,
		Translations: translations,
		Headers:      make(map[string]string, len(translations)),
	}
	byTranslation := make(map[string][]copytext.VerseText, len(translations))
	for _, r := range results {
		view.Headers[r.translation] = s.catalog.Localize(book, r.translation)
		if r.err != nil {
			log.Printf("⚠️  Compare %s %d: %s failed: %v", book, chapter, r.translation, r.err)
			if view.Errors == nil {
				view.Errors = make(map[string]string)
			}
			view.Errors[r.translation] = r.err.Error()
			continue
		}
		byTranslation[r.translation] = r.verses
	}
	if len(byTranslation) == 0 {
		return nil, results[0].err
	}
	view.Aligned = copytext.Align(byTranslation)
	return view, nil
}

// CopyRequest asks for copy text of a selection in one or more translations.
type CopyRequest struct {
	Book           string
	Chapter        int
	Translations   []string
	Synced         bool
	Shared         verseset.Selection
	PerTranslation map[string]verseset.Selection
}

// ComposeCopy fetches the text it needs and renders the copy text. A single
// translation renders one block; several render a comparison.
func (s *ReaderService) ComposeCopy(ctx context.Context, req CopyRequest) (string, error) {
	translations := normalizeTranslations(req.Translations)
	if len(translations) == 0 {
		return "", fmt.Errorf("no translations requested: %w", ErrNotFound)
	}
	passage := copytext.Passage{Book: req.Book, Chapter: req.Chapter}
	per := make(map[string]verseset.Selection, len(req.PerTranslation))
	for tr, sel := range req.PerTranslation {
		per[strings.ToUpper(strings.TrimSpace(tr))] = sel
	}

	if len(translations) == 1 {
		sel := req.Shared
		if !req.Synced {
			if own, ok := per[translations[0]]; ok {
				sel = own
			}
		}
		if sel.IsEmpty() {
			return "", nil
		}
		view, err := s.Chapter(ctx, req.Book, req.Chapter, translations[0])
		if err != nil {
			return "", err
		}
		texts := make(map[int]string, len(view.Verses))
		for _, v := range view.Verses {
			texts[v.Number] = v.Text
		}
		return s.composer.Compose(sel, passage, texts, translations[0]), nil
	}

	cmp, err := s.Compare(ctx, req.Book, req.Chapter, translations)
	if err != nil {
		return "", err
	}
	available := make([]string, 0, len(cmp.Translations))
	for _, tr := range cmp.Translations {
		if _, failed := cmp.Errors[tr]; !failed {
			available = append(available, tr)
		}
	}
	return s.composer.ComposeComparison(copytext.Comparison{
		Passage:        passage,
		Translations:   available,
		Aligned:        cmp.Aligned,
		Synced:         req.Synced,
		Shared:         req.Shared,
		PerTranslation: per,
	}), nil
}

// normalizeTranslations upper-cases codes and drops blanks and repeats.
func normalizeTranslations(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, tr := range in {
		tr = strings.ToUpper(strings.TrimSpace(tr))
		if tr == "" || seen[tr] {
			continue
		}
		seen[tr] = true
		out = append(out, tr)
	}
	return out
}
