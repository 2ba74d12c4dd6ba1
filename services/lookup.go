// services/lookup.go - Reference Resolution
package services

import (
	"fmt"
	"strings"

	"biblereader/booknames"
	"biblereader/verseparser"
)

// ResolveReference parses a reference typed in the reader's translation and
// maps its book to the canonical name. An unknown book or a chapter past the
// end of the book fails with verseparser.ErrInvalidReferenceFormat.
func ResolveReference(catalog *booknames.Catalog, reference, translation string) (verseparser.Address, error) {
	addr, err := verseparser.Parse(reference)
	if err != nil {
		return verseparser.Address{}, err
	}

	book, ok := catalog.FindBook(addr.Book, translation)
	if !ok {
		return verseparser.Address{}, fmt.Errorf("%w: unknown book %q", verseparser.ErrInvalidReferenceFormat, addr.Book)
	}
	if addr.Chapter > book.Chapters {
		return verseparser.Address{}, fmt.Errorf("%w: %s has %d chapters", verseparser.ErrInvalidReferenceFormat, book.Name, book.Chapters)
	}

	addr.Book = book.Name
	return addr, nil
}

// ResolveReferences resolves a comma separated list of references.
func ResolveReferences(catalog *booknames.Catalog, text, translation string) ([]verseparser.Address, error) {
	var out []verseparser.Address
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := ResolveReference(catalog, part, translation)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no references in %q", verseparser.ErrInvalidReferenceFormat, text)
	}
	return out, nil
}
