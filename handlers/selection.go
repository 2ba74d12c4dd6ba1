// handlers/selection.go - Live Selection Session over WebSocket
package handlers

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"biblereader/copytext"
	"biblereader/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// composeTimeout bounds the content fetch behind a copy request.
const composeTimeout = 15 * time.Second

// SelectionMessage is what the client sends.
//
//	{"type":"navigate","book":"Yohanes","chapter":3,"translation":"TB"}
//	{"type":"toggle","verse":16}
//	{"type":"copy"}
//	{"type":"copy_result","error":""}
type SelectionMessage struct {
	Type         string   `json:"type"`
	Book         string   `json:"book,omitempty"`
	Chapter      int      `json:"chapter,omitempty"`
	Translation  string   `json:"translation,omitempty"`
	View         string   `json:"view,omitempty"`
	Translations []string `json:"translations,omitempty"`
	Synced       bool     `json:"synced,omitempty"`
	Verse        int      `json:"verse,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SelectionEvent is what the server pushes.
type SelectionEvent struct {
	Type      string                 `json:"type"`
	State     *services.SessionState `json:"state,omitempty"`
	CopyState copytext.CopyState     `json:"copy_state,omitempty"`
	Text      string                 `json:"text,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// selectionHandler runs one session. send may be called from the tracker's
// timer goroutine, so it must be safe for concurrent use.
type selectionHandler struct {
	session *services.SelectionSession
	send    func(SelectionEvent) error
}

func newSelectionHandler(reader *services.ReaderService, send func(SelectionEvent) error) *selectionHandler {
	h := &selectionHandler{send: send}
	h.session = services.NewSelectionSession(reader, func(st copytext.CopyState) {
		if err := h.send(SelectionEvent{Type: "copy_state", CopyState: st}); err != nil {
			log.Printf("⚠️  Failed to push copy state: %v", err)
		}
	})
	return h
}

func (h *selectionHandler) sendState() error {
	st := h.session.State()
	return h.send(SelectionEvent{Type: "state", State: &st})
}

func (h *selectionHandler) sendError(err error) error {
	return h.send(SelectionEvent{Type: "error", Error: err.Error()})
}

// handle processes one client message.
func (h *selectionHandler) handle(ctx context.Context, msg SelectionMessage) error {
	switch msg.Type {
	case "state":
		return h.sendState()

	case "navigate":
		tr := strings.ToUpper(strings.TrimSpace(msg.Translation))
		book := msg.Book
		if b, ok := readerService.Catalog().FindBook(msg.Book, tr); ok {
			book = b.Name
		}
		err := h.session.Navigate(services.NavigateRequest{
			Book:         book,
			Chapter:      msg.Chapter,
			Translation:  tr,
			View:         msg.View,
			Translations: msg.Translations,
			Synced:       msg.Synced,
		})
		if err != nil {
			return h.sendError(err)
		}
		return h.sendState()

	case "toggle":
		if _, err := h.session.Toggle(msg.Translation, msg.Verse); err != nil {
			return h.sendError(err)
		}
		return h.sendState()

	case "clear":
		h.session.Clear()
		return h.sendState()

	case "copy":
		ctx, cancel := context.WithTimeout(ctx, composeTimeout)
		defer cancel()
		text, err := h.session.BeginCopy(ctx)
		if err != nil {
			return h.sendError(err)
		}
		return h.send(SelectionEvent{Type: "copy_text", Text: text})

	case "copy_result":
		var clipboardErr error
		if msg.Error != "" {
			clipboardErr = errors.New(msg.Error)
		}
		h.session.FinishCopy(clipboardErr)
		return nil
	}
	return h.sendError(errors.New("unknown message type " + msg.Type))
}

// SelectionUpgrade only lets websocket upgrades through to SelectionSocket.
func SelectionUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SelectionSocket serves GET /ws/selection.
func SelectionSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		var writeMu sync.Mutex
		send := func(ev SelectionEvent) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			return conn.WriteJSON(ev)
		}

		h := newSelectionHandler(readerService, send)
		defer h.session.Close()

		log.Printf("🔌 Selection session %s connected", h.session.ID())
		if err := h.sendState(); err != nil {
			return
		}

		ctx := context.Background()
		for {
			var msg SelectionMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("⚠️  Selection session %s: %v", h.session.ID(), err)
				}
				break
			}
			if err := h.handle(ctx, msg); err != nil {
				log.Printf("⚠️  Selection session %s write failed: %v", h.session.ID(), err)
				break
			}
		}
		log.Printf("🔌 Selection session %s closed", h.session.ID())
	})
}
