// verseparser/verseparser.go
package verseparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrInvalidReferenceFormat is returned when a reference matches none of the
// recognized shapes.
var ErrInvalidReferenceFormat = errors.New("invalid reference format")

// Address is a parsed scripture reference. Zero VerseStart / VerseEnd mean
// the field was absent in the input.
type Address struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	VerseStart int    `json:"verse_start,omitempty"`
	VerseEnd   int    `json:"verse_end,omitempty"`
}

// IsChapter reports whether the address denotes a whole chapter.
func (a Address) IsChapter() bool {
	return a.VerseStart == 0
}

// IsRange reports whether the address was written as a verse range.
func (a Address) IsRange() bool {
	return a.VerseEnd != 0
}

// LastVerse returns the final verse covered by the address, or 0 for a chapter.
func (a Address) LastVerse() int {
	if a.VerseEnd != 0 {
		return a.VerseEnd
	}
	return a.VerseStart
}

func (a Address) String() string {
	switch {
	case a.IsChapter():
		return fmt.Sprintf("%s %d", a.Book, a.Chapter)
	case a.IsRange():
		return fmt.Sprintf("%s %d:%d-%d", a.Book, a.Chapter, a.VerseStart, a.VerseEnd)
	default:
		return fmt.Sprintf("%s %d:%d", a.Book, a.Chapter, a.VerseStart)
	}
}

// Most specific first, so a range is never read as a single verse.
var (
	rangeRe   = regexp.MustCompile(`^(.+?)\s+(\d+)\s*:\s*(\d+)\s*-\s*(\d+)$`)
	verseRe   = regexp.MustCompile(`^(.+?)\s+(\d+)\s*:\s*(\d+)$`)
	chapterRe = regexp.MustCompile(`^(.+?)\s+(\d+)$`)
)

var numPrefix = regexp.MustCompile(`^\d+\.`)

var dashReplacer = strings.NewReplacer(
	"\u00A0", " ",
	"\u202F", " ",
	"\u2013", "-",
	"\u2014", "-",
	"\u2212", "-",
)

func normalize(line string) string {
	line = norm.NFC.String(line)
	line = width.Fold.String(line)
	line = dashReplacer.Replace(line)
	return strings.TrimSpace(line)
}

// Parse turns a single reference such as "John 3:16", "Genesis 1:1-3" or
// "Psalms 23" into an Address. The book token is returned as written; use the
// booknames package to resolve it to a canonical name.
func Parse(reference string) (Address, error) {
	ref := normalize(reference)
	if ref == "" {
		return Address{}, fmt.Errorf("%w: empty reference", ErrInvalidReferenceFormat)
	}

	if m := rangeRe.FindStringSubmatch(ref); m != nil {
		nums, err := atois(m[2], m[3], m[4])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidReferenceFormat, reference)
		}
		if nums[2] < nums[1] {
			return Address{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidReferenceFormat, reference)
		}
		return newAddress(m[1], nums[0], nums[1], nums[2]), nil
	}

	if m := verseRe.FindStringSubmatch(ref); m != nil {
		nums, err := atois(m[2], m[3])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidReferenceFormat, reference)
		}
		return newAddress(m[1], nums[0], nums[1], 0), nil
	}

	if m := chapterRe.FindStringSubmatch(ref); m != nil {
		nums, err := atois(m[2])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidReferenceFormat, reference)
		}
		return newAddress(m[1], nums[0], 0, 0), nil
	}

	return Address{}, fmt.Errorf("%w: %q", ErrInvalidReferenceFormat, reference)
}

// ParseList splits a comma separated list of references and parses each one.
func ParseList(text string) ([]Address, error) {
	parts := strings.Split(text, ",")
	out := make([]Address, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		addr, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty reference list", ErrInvalidReferenceFormat)
	}
	return out, nil
}

func newAddress(book string, chapter, start, end int) Address {
	return Address{
		Book:       strings.Join(strings.Fields(book), " "),
		Chapter:    chapter,
		VerseStart: start,
		VerseEnd:   end,
	}
}

// atois converts every token or fails; numbers must be >= 1.
func atois(tokens ...string) ([]int, error) {
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("number out of range: %d", n)
		}
		out[i] = n
	}
	return out, nil
}

var rangeTailRe = regexp.MustCompile(`^\d+$`)

// ParseNumberedLine reads an import line of the form
// "N. <Reference> — <Text>" (the number and dash are optional) and returns the
// reference and text. A trailing bare number after the colon token is taken
// as the end of a verse range, so "John 3:16 — 17 For God..." yields "John 3:16-17".
func ParseNumberedLine(line string) (string, string, bool) {
	line = normalize(line)
	line = strings.ReplaceAll(line, "=>", " ")
	line = strings.ReplaceAll(line, "->", " ")
	tokens := strings.Fields(line)

	if len(tokens) < 3 {
		return "", "", false
	}

	// Find colon token
	colonIdx := -1
	for i, t := range tokens {
		if strings.Contains(t, ":") {
			colonIdx = i
			break
		}
	}
	if colonIdx < 1 {
		return "", "", false
	}

	bookStart := 0
	if numPrefix.MatchString(tokens[0]) {
		bookStart = 1
	}
	// Book name: up to 3 words before colon
	if colonIdx-bookStart > 3 {
		bookStart = colonIdx - 3
	}
	if bookStart >= colonIdx {
		return "", "", false
	}

	refTokens := append([]string{}, tokens[bookStart:colonIdx+1]...)
	head := strings.TrimSuffix(refTokens[len(refTokens)-1], "-")
	refTokens[len(refTokens)-1] = head

	textStart := colonIdx + 1
	for textStart < len(tokens) && tokens[textStart] == "-" {
		textStart++
	}
	if textStart < len(tokens) && rangeTailRe.MatchString(tokens[textStart]) && !strings.Contains(head, "-") {
		refTokens[len(refTokens)-1] = head + "-" + tokens[textStart]
		textStart++
	}
	for textStart < len(tokens) && tokens[textStart] == "-" {
		textStart++
	}

	// Text must have at least 2 words
	if len(tokens)-textStart < 2 {
		return "", "", false
	}

	ref := strings.Join(refTokens, " ")
	if _, err := Parse(ref); err != nil {
		return "", "", false
	}
	text := strings.TrimSpace(strings.Join(tokens[textStart:], " "))
	return ref, text, true
}
