// Package verseset holds verse-number selections and converts them to and
// from compact range notation ("1-3,5,7-8").
package verseset

import (
	"sort"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds how many verses one "start-end" segment may expand to
// when decoding.
const MaxRangeSpan = 10000

const (
	urlSeparator     = ","
	displaySeparator = ", "
)

// Selection is a set of verse numbers. The zero value is an empty selection
// ready to use.
type Selection struct {
	verses map[int]struct{}
}

// New returns a selection containing the given verses.
func New(verses ...int) Selection {
	s := Selection{verses: make(map[int]struct{}, len(verses))}
	for _, v := range verses {
		s.verses[v] = struct{}{}
	}
	return s
}

// Toggle adds the verse if absent and removes it if present. It returns true
// when the verse is selected after the call.
func (s *Selection) Toggle(verse int) bool {
	if s.verses == nil {
		s.verses = make(map[int]struct{})
	}
	if _, ok := s.verses[verse]; ok {
		delete(s.verses, verse)
		return false
	}
	s.verses[verse] = struct{}{}
	return true
}

func (s *Selection) Add(verse int) {
	if s.verses == nil {
		s.verses = make(map[int]struct{})
	}
	s.verses[verse] = struct{}{}
}

func (s Selection) Has(verse int) bool {
	_, ok := s.verses[verse]
	return ok
}

func (s Selection) Len() int {
	return len(s.verses)
}

func (s Selection) IsEmpty() bool {
	return len(s.verses) == 0
}

// Sorted returns the verses in ascending order.
func (s Selection) Sorted() []int {
	out := make([]int, 0, len(s.verses))
	for v := range s.verses {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := Selection{verses: make(map[int]struct{}, len(s.verses))}
	for v := range s.verses {
		out.verses[v] = struct{}{}
	}
	return out
}

func (s Selection) Equal(other Selection) bool {
	if len(s.verses) != len(other.verses) {
		return false
	}
	for v := range s.verses {
		if _, ok := other.verses[v]; !ok {
			return false
		}
	}
	return true
}

// Run is a maximal run of consecutive verses.
type Run struct {
	Start int
	End   int
}

func (r Run) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Runs groups the selection into ascending runs of consecutive verses. No run
// covers more than MaxRangeSpan verses, so every run decodes again.
func (s Selection) Runs() []Run {
	sorted := s.Sorted()
	if len(sorted) == 0 {
		return nil
	}

	runs := make([]Run, 0, len(sorted))
	cur := Run{Start: sorted[0], End: sorted[0]}
	for _, v := range sorted[1:] {
		if v == cur.End+1 && v-cur.Start < MaxRangeSpan {
			cur.End = v
			continue
		}
		runs = append(runs, cur)
		cur = Run{Start: v, End: v}
	}
	return append(runs, cur)
}

func joinRuns(runs []Run, sep string) string {
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}

// Serialize encodes the selection for a URL query value, e.g. "1-3,5,7-8".
// An empty selection encodes to "".
func Serialize(s Selection) string {
	return joinRuns(s.Runs(), urlSeparator)
}

// FormatRanges renders the selection for people, e.g. "1-3, 5, 7-8". It
// groups exactly like Serialize.
func FormatRanges(s Selection) string {
	return joinRuns(s.Runs(), displaySeparator)
}

// Deserialize decodes range notation. Malformed segments and reversed ranges
// contribute nothing; it never fails.
func Deserialize(text string) Selection {
	s := Selection{verses: make(map[int]struct{})}
	if strings.TrimSpace(text) == "" {
		return s
	}

	for _, part := range strings.Split(text, urlSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		startTok, endTok, isRange := strings.Cut(part, "-")
		if !isRange {
			if v, ok := parseVerse(part); ok {
				s.verses[v] = struct{}{}
			}
			continue
		}

		start, ok := parseVerse(startTok)
		if !ok {
			continue
		}
		end, ok := parseVerse(endTok)
		if !ok || end < start || end-start >= MaxRangeSpan {
			continue
		}
		for v := start; v <= end; v++ {
			s.verses[v] = struct{}{}
		}
	}
	return s
}

func parseVerse(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" || tok[0] == '+' {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MarshalText encodes the selection in URL notation so it can sit directly in
// JSON bodies and query structs.
func (s Selection) MarshalText() ([]byte, error) {
	return []byte(Serialize(s)), nil
}

func (s *Selection) UnmarshalText(b []byte) error {
	*s = Deserialize(string(b))
	return nil
}
