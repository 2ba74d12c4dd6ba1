// services/session.go - Live Selection Session
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"biblereader/copytext"
	"biblereader/verseset"

	"github.com/google/uuid"
)

const (
	ViewSingle  = "single"
	ViewCompare = "compare"
)

// SessionState is the snapshot pushed to a client after every change.
type SessionState struct {
	ID             string                        `json:"id"`
	Book           string                        `json:"book"`
	Chapter        int                           `json:"chapter"`
	Translation    string                        `json:"translation"`
	View           string                        `json:"view"`
	Translations   []string                      `json:"translations,omitempty"`
	Synced         bool                          `json:"synced"`
	Selected       verseset.Selection            `json:"selected"`
	PerTranslation map[string]verseset.Selection `json:"per_translation,omitempty"`
	Label          string                        `json:"label,omitempty"`
	CopyState      copytext.CopyState            `json:"copy_state"`
}

// NavigateRequest moves the session to another chapter, translation or view.
type NavigateRequest struct {
	Book         string   `json:"book"`
	Chapter      int      `json:"chapter"`
	Translation  string   `json:"translation"`
	View         string   `json:"view"`
	Translations []string `json:"translations"`
	Synced       bool     `json:"synced"`
}

// SelectionSession holds one reader's selection. Any navigation clears it.
// Methods are safe for concurrent use.
type SelectionSession struct {
	id     string
	reader *ReaderService

	mu             sync.Mutex
	book           string
	chapter        int
	translation    string
	view           string
	translations   []string
	synced         bool
	shared         verseset.Selection
	perTranslation map[string]verseset.Selection

	tracker *copytext.Tracker
}

// NewSelectionSession starts a session. onCopyState receives every copy
// state transition, including the delayed revert to idle.
func NewSelectionSession(reader *ReaderService, onCopyState func(copytext.CopyState)) *SelectionSession {
	return &SelectionSession{
		id:             uuid.New().String(),
		reader:         reader,
		view:           ViewSingle,
		perTranslation: make(map[string]verseset.Selection),
		tracker:        copytext.NewTracker(onCopyState),
	}
}

func (s *SelectionSession) ID() string {
	return s.id
}

// Tracker exposes the copy tracker, mainly so tests can shorten the delay.
func (s *SelectionSession) Tracker() *copytext.Tracker {
	return s.tracker
}

// Navigate validates the target and resets the selection.
func (s *SelectionSession) Navigate(req NavigateRequest) error {
	if _, err := s.reader.checkChapter(req.Book, req.Chapter); err != nil {
		return err
	}
	view := req.View
	if view == "" {
		view = ViewSingle
	}
	if view != ViewSingle && view != ViewCompare {
		return errors.New("view must be single or compare")
	}
	translation := strings.ToUpper(strings.TrimSpace(req.Translation))
	if translation == "" {
		return errors.New("translation is required")
	}

	translations := normalizeTranslations(req.Translations)
	if view == ViewCompare && len(translations) == 0 {
		translations = []string{translation}
	}

	s.mu.Lock()
	s.book = req.Book
	s.chapter = req.Chapter
	s.translation = translation
	s.view = view
	s.translations = translations
	s.synced = req.Synced
	s.clearLocked()
	s.mu.Unlock()

	s.tracker.Reset()
	return nil
}

func (s *SelectionSession) clearLocked() {
	s.shared = verseset.New()
	s.perTranslation = make(map[string]verseset.Selection)
}

// Toggle flips one verse. In independent compare mode the verse belongs to
// the given translation; otherwise translation is ignored.
func (s *SelectionSession) Toggle(translation string, verse int) (bool, error) {
	if verse < 1 {
		return false, errors.New("verse must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == "" {
		return false, errors.New("navigate to a chapter first")
	}

	if s.view == ViewCompare && !s.synced {
		translation = strings.ToUpper(strings.TrimSpace(translation))
		if !contains(s.translations, translation) {
			return false, errors.New("translation is not part of this comparison")
		}
		sel := s.perTranslation[translation]
		on := sel.Toggle(verse)
		s.perTranslation[translation] = sel
		return on, nil
	}
	return s.shared.Toggle(verse), nil
}

// Clear drops the selection without navigating.
func (s *SelectionSession) Clear() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
}

// State returns a snapshot. Selections are copies.
func (s *SelectionSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		ID:          s.id,
		Book:        s.book,
		Chapter:     s.chapter,
		Translation: s.translation,
		View:        s.view,
		Synced:      s.synced,
		Selected:    s.shared.Clone(),
		CopyState:   s.tracker.State(),
	}
	if len(s.translations) > 0 {
		st.Translations = append([]string(nil), s.translations...)
	}
	if s.view == ViewCompare && !s.synced {
		st.PerTranslation = make(map[string]verseset.Selection, len(s.perTranslation))
		for tr, sel := range s.perTranslation {
			st.PerTranslation[tr] = sel.Clone()
		}
	}
	if s.book != "" && !s.shared.IsEmpty() {
		st.Label = ShareLabel(ShareParams{Book: s.book, Chapter: s.chapter, Translation: s.translation, Verses: s.shared})
	}
	return st
}

func (s *SelectionSession) copyRequest() CopyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := CopyRequest{
		Book:    s.book,
		Chapter: s.chapter,
		Synced:  s.synced || s.view == ViewSingle,
		Shared:  s.shared.Clone(),
	}
	if s.view == ViewCompare {
		req.Translations = append([]string(nil), s.translations...)
		req.PerTranslation = make(map[string]verseset.Selection, len(s.perTranslation))
		for tr, sel := range s.perTranslation {
			req.PerTranslation[tr] = sel.Clone()
		}
	} else {
		req.Translations = []string{s.translation}
	}
	return req
}

// BeginCopy composes the copy text and moves the tracker to copying. The
// client writes the text to its clipboard and reports back with FinishCopy.
func (s *SelectionSession) BeginCopy(ctx context.Context) (string, error) {
	req := s.copyRequest()
	if req.Book == "" {
		return "", errors.New("navigate to a chapter first")
	}

	text, err := s.reader.ComposeCopy(ctx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("nothing selected")
	}
	if !s.tracker.Begin() {
		return "", copytext.ErrCopyInProgress
	}
	return text, nil
}

// FinishCopy records the outcome of the client's clipboard write.
func (s *SelectionSession) FinishCopy(clipboardErr error) {
	s.tracker.Finish(clipboardErr)
}

// Close stops any pending copy revert.
func (s *SelectionSession) Close() {
	s.tracker.Reset()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
