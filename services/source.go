// services/source.go - Verse Sources
package services

import (
	"context"
	"errors"

	"biblereader/copytext"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrContentUnavailable  = errors.New("content service unavailable")
	ErrShareLinkExpired    = errors.New("share link expired")
	ErrInvalidShareRequest = errors.New("invalid share request")
)

// VerseSource supplies verse text for a chapter or part of one. A zero start
// asks for the whole chapter; a zero end asks for the single verse start.
type VerseSource interface {
	FetchVerseRange(ctx context.Context, translation, book string, chapter, start, end int) ([]copytext.VerseText, error)
}

// inRange reports whether verse n falls inside the requested start/end.
func inRange(n, start, end int) bool {
	if start == 0 {
		return true
	}
	if end == 0 {
		return n == start
	}
	return n >= start && n <= end
}

func sliceVerses(verses []copytext.VerseText, start, end int) []copytext.VerseText {
	if start == 0 {
		return verses
	}
	out := make([]copytext.VerseText, 0, len(verses))
	for _, v := range verses {
		if inRange(v.Number, start, end) {
			out = append(out, v)
		}
	}
	return out
}
