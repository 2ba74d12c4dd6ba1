// services/content.go - Remote Verse Content Client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"biblereader/copytext"
	"biblereader/verseparser"

	"github.com/gofiber/fiber/v2"
)

// RemoteVerse is one verse as reported by the content service.
type RemoteVerse struct {
	Book        string `json:"book"`
	Chapter     int    `json:"chapter"`
	Verse       int    `json:"verse"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Reference   string `json:"reference"`
}

// ContentClient talks to the verse content service:
//
//	GET {base}/{TRANSLATION}/single?book=John&chapter=3&verse=16
//	GET {base}/{TRANSLATION}/multiple?verses=John 3:16-18,Psalms 23
type ContentClient struct {
	baseURL string
	timeout time.Duration
}

func NewContentClient(baseURL string, timeout time.Duration) *ContentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ContentClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *ContentClient) endpoint(translation, kind string, query url.Values) string {
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(strings.ToUpper(translation)), kind, query.Encode())
}

func (c *ContentClient) get(ctx context.Context, target string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	code, body, errs := fiber.Get(target).
		Timeout(timeout).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, errs[0])
	}

	switch {
	case code == fiber.StatusNotFound:
		return nil, ErrNotFound
	case code != fiber.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrContentUnavailable, code)
	}
	return body, nil
}

// FetchSingle fetches one verse.
func (c *ContentClient) FetchSingle(ctx context.Context, translation, book string, chapter, verse int) (RemoteVerse, error) {
	target := c.endpoint(translation, "single", url.Values{
		"book":    {book},
		"chapter": {strconv.Itoa(chapter)},
		"verse":   {strconv.Itoa(verse)},
	})

	body, err := c.get(ctx, target)
	if err != nil {
		return RemoteVerse{}, fmt.Errorf("fetch %s %d:%d (%s): %w", book, chapter, verse, translation, err)
	}

	var raw rawVerse
	if err := json.Unmarshal(body, &raw); err != nil {
		return RemoteVerse{}, fmt.Errorf("%w: bad single verse payload: %v", ErrContentUnavailable, err)
	}

	// the single endpoint is trusted for the address it was asked about
	return RemoteVerse{
		Book:        book,
		Chapter:     chapter,
		Verse:       verse,
		Text:        raw.text(),
		Translation: strings.ToUpper(translation),
		Reference:   fmt.Sprintf("%s %d:%d", book, chapter, verse),
	}, nil
}

// FetchMultiple fetches any number of references in one request.
func (c *ContentClient) FetchMultiple(ctx context.Context, translation string, refs []verseparser.Address) ([]RemoteVerse, error) {
	if len(refs) == 0 {
		return []RemoteVerse{}, nil
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	joined := strings.Join(parts, ",")

	body, err := c.get(ctx, c.endpoint(translation, "multiple", url.Values{"verses": {joined}}))
	if err != nil {
		return nil, fmt.Errorf("fetch %s (%s): %w", joined, translation, err)
	}

	raws, err := decodeVerseList(body)
	if err != nil {
		return nil, fmt.Errorf("%w: bad verse list payload: %v", ErrContentUnavailable, err)
	}

	code := strings.ToUpper(translation)
	verses := make([]RemoteVerse, 0, len(raws))
	for _, raw := range raws {
		verses = append(verses, raw.remote(code))
	}
	return verses, nil
}

// FetchVerses resolves a raw reference string the way the reader does:
// comma lists, chapters and ranges go to the multiple endpoint, a single
// verse to the single endpoint.
func (c *ContentClient) FetchVerses(ctx context.Context, translation, reference string) ([]RemoteVerse, error) {
	if strings.Contains(reference, ",") {
		refs, err := verseparser.ParseList(reference)
		if err != nil {
			return nil, err
		}
		return c.FetchMultiple(ctx, translation, refs)
	}

	addr, err := verseparser.Parse(reference)
	if err != nil {
		return nil, err
	}
	if addr.IsChapter() || addr.IsRange() {
		return c.FetchMultiple(ctx, translation, []verseparser.Address{addr})
	}

	v, err := c.FetchSingle(ctx, translation, addr.Book, addr.Chapter, addr.VerseStart)
	if err != nil {
		return nil, err
	}
	return []RemoteVerse{v}, nil
}

// FetchVerseRange implements VerseSource.
func (c *ContentClient) FetchVerseRange(ctx context.Context, translation, book string, chapter, start, end int) ([]copytext.VerseText, error) {
	addr := verseparser.Address{Book: book, Chapter: chapter, VerseStart: start, VerseEnd: end}
	if start != 0 && end == 0 {
		v, err := c.FetchSingle(ctx, translation, book, chapter, start)
		if err != nil {
			return nil, err
		}
		return []copytext.VerseText{{Number: v.Verse, Text: v.Text}}, nil
	}

	remote, err := c.FetchMultiple(ctx, translation, []verseparser.Address{addr})
	if err != nil {
		return nil, err
	}

	verses := make([]copytext.VerseText, 0, len(remote))
	for _, v := range remote {
		if v.Verse <= 0 {
			log.Printf("⚠️  Skipping unnumbered verse in %s (%s)", addr, translation)
			continue
		}
		if v.Chapter != 0 && v.Chapter != chapter {
			continue
		}
		verses = append(verses, copytext.VerseText{Number: v.Verse, Text: v.Text})
	}
	sort.Slice(verses, func(i, j int) bool { return verses[i].Number < verses[j].Number })

	if len(verses) == 0 {
		return nil, fmt.Errorf("%s (%s): %w", addr, translation, ErrNotFound)
	}
	return sliceVerses(verses, start, end), nil
}

// rawVerse accepts every field spelling the content service has used.
type rawVerse struct {
	Book        string  `json:"book"`
	BookName    string  `json:"book_name"`
	Chapter     flexInt `json:"chapter"`
	Verse       flexInt `json:"verse"`
	VerseNumber flexInt `json:"verse_number"`
	Content     string  `json:"content"`
	Text        string  `json:"text"`
	VerseText   string  `json:"verse_text"`
	Reference   string  `json:"reference"`
}

func (r rawVerse) text() string {
	switch {
	case r.Content != "":
		return r.Content
	case r.Text != "":
		return r.Text
	default:
		return r.VerseText
	}
}

func (r rawVerse) remote(translation string) RemoteVerse {
	book := r.Book
	if book == "" {
		book = r.BookName
	}
	verse := int(r.Verse)
	if verse == 0 {
		verse = int(r.VerseNumber)
	}
	ref := r.Reference
	if ref == "" {
		ref = fmt.Sprintf("%s %d:%d", book, int(r.Chapter), verse)
	}
	return RemoteVerse{
		Book:        book,
		Chapter:     int(r.Chapter),
		Verse:       verse,
		Text:        r.text(),
		Translation: translation,
		Reference:   ref,
	}
}

// decodeVerseList accepts a bare array, {"verses": [...]} or one verse object.
func decodeVerseList(body []byte) ([]rawVerse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []rawVerse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Verses json.RawMessage `json:"verses"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if inner := bytes.TrimSpace(wrapped.Verses); len(inner) > 0 && inner[0] == '[' {
		var list []rawVerse
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var single rawVerse
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []rawVerse{single}, nil
}

// flexInt decodes 16, "16" or "" (as 0).
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// non-numeric values are treated as absent
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}
