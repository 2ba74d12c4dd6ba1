package copytext

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CopyState is the presentation state around a clipboard write.
type CopyState string

const (
	StateIdle    CopyState = "idle"
	StateCopying CopyState = "copying"
	StateCopied  CopyState = "copied"
)

// DefaultRevertDelay is how long "copied" is shown before going back to idle.
const DefaultRevertDelay = 2 * time.Second

// ErrCopyInProgress is returned by Copy while another write is pending.
var ErrCopyInProgress = errors.New("copy already in progress")

// ClipboardWriter is the external write the tracker brackets.
type ClipboardWriter interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to ClipboardWriter.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Tracker runs the idle -> copying -> copied -> idle cycle. A failed write
// goes copying -> idle without passing through copied.
type Tracker struct {
	RevertDelay time.Duration
	// OnChange, when set, is called after transitions, outside the state lock
	// and one call at a time. A transition overtaken by a later one before its
	// call is skipped, so the last call always carries the current state.
	OnChange func(CopyState)

	mu        sync.Mutex
	state     CopyState
	pending   *time.Timer
	gen       uint64
	seq       uint64
	delivered uint64

	sendMu sync.Mutex
}

func NewTracker(onChange func(CopyState)) *Tracker {
	return &Tracker{RevertDelay: DefaultRevertDelay, OnChange: onChange, state: StateIdle}
}

func (t *Tracker) State() CopyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == "" {
		return StateIdle
	}
	return t.state
}

// Begin moves to copying. It returns false when a copy is already running.
// Starting a new copy while "copied" is shown cancels the pending revert.
func (t *Tracker) Begin() bool {
	t.mu.Lock()
	if t.state == StateCopying {
		t.mu.Unlock()
		return false
	}
	t.cancelPendingLocked()
	t.state = StateCopying
	seq := t.nextSeqLocked()
	t.mu.Unlock()

	t.notify(StateCopying, seq)
	return true
}

// Finish ends a copy started with Begin. A nil err shows copied and schedules
// the revert to idle; an error returns to idle at once.
func (t *Tracker) Finish(err error) {
	t.mu.Lock()
	if t.state != StateCopying {
		t.mu.Unlock()
		return
	}
	if err != nil {
		t.state = StateIdle
		seq := t.nextSeqLocked()
		t.mu.Unlock()
		t.notify(StateIdle, seq)
		return
	}

	t.state = StateCopied
	t.gen++
	gen := t.gen
	delay := t.RevertDelay
	if delay <= 0 {
		delay = DefaultRevertDelay
	}
	t.pending = time.AfterFunc(delay, func() { t.revert(gen) })
	seq := t.nextSeqLocked()
	t.mu.Unlock()

	t.notify(StateCopied, seq)
}

func (t *Tracker) revert(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.state != StateCopied {
		t.mu.Unlock()
		return
	}
	t.state = StateIdle
	t.pending = nil
	seq := t.nextSeqLocked()
	t.mu.Unlock()

	t.notify(StateIdle, seq)
}

// Reset drops any pending revert and returns to idle.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.cancelPendingLocked()
	changed := t.state != StateIdle && t.state != ""
	t.state = StateIdle
	seq := t.nextSeqLocked()
	t.mu.Unlock()

	if changed {
		t.notify(StateIdle, seq)
	}
}

func (t *Tracker) cancelPendingLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

func (t *Tracker) nextSeqLocked() uint64 {
	t.seq++
	return t.seq
}

func (t *Tracker) notify(s CopyState, seq uint64) {
	if t.OnChange == nil {
		return
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.mu.Lock()
	stale := seq <= t.delivered
	if !stale {
		t.delivered = seq
	}
	t.mu.Unlock()

	if !stale {
		t.OnChange(s)
	}
}

// Copy writes text through w, bracketing the write with Begin and Finish.
func (t *Tracker) Copy(ctx context.Context, text string, w ClipboardWriter) error {
	if !t.Begin() {
		return ErrCopyInProgress
	}
	err := w.WriteText(ctx, text)
	t.Finish(err)
	return err
}
