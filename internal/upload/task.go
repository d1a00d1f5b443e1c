package upload

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"letschat/internal/model"
	"letschat/internal/transport"
)

// State represents an upload task's lifecycle state.
type State string

const (
	Selected   State = "SELECTED"
	Previewing State = "PREVIEWING"
	Uploading  State = "UPLOADING"
	Uploaded   State = "UPLOADED"
	Cancelled  State = "CANCELLED"
	Failed     State = "FAILED"
)

// validTransitions defines allowed task state transitions. Uploaded,
// Cancelled and Failed are terminal.
var validTransitions = map[State][]State{
	Selected:   {Previewing, Uploading, Cancelled, Failed},
	Previewing: {Uploading, Cancelled, Failed},
	Uploading:  {Uploaded, Cancelled, Failed},
}

// Terminal reports whether s admits no further transitions.
func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Task is one file moving through the upload pipeline. All fields are
// guarded by mu; the upload goroutine and Cancel race on the state.
type Task struct {
	mu sync.Mutex

	id         string
	file       model.File
	state      State
	progress   int
	previewURL string
	result     transport.UploadResult
	err        error

	cancel context.CancelFunc
	done   chan struct{}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// File returns the selected file.
func (t *Task) File() model.File { return t.file }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns the last reported percentage, 0 through 100.
func (t *Task) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// PreviewURL returns the local preview reference, if any.
func (t *Task) PreviewURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previewURL
}

// Result returns the upload result. Only meaningful once the task reached
// Uploaded.
func (t *Task) Result() transport.UploadResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Err returns the failure cause. Only meaningful once the task reached
// Failed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// transition attempts to move the task to a new state. Returns an error if
// the transition is invalid, which callers use to lose races cleanly: a
// late transition against a terminal state is simply discarded.
func (t *Task) transition(to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transitionLocked(to)
}

func (t *Task) transitionLocked(to State) error {
	allowed := validTransitions[t.state]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", t.state, to)
	}
	t.state = to
	if to.Terminal() {
		close(t.done)
	}
	return nil
}

// setProgress records a progress update. Updates arriving after a terminal
// state, or behind the current value, are discarded.
func (t *Task) setProgress(percent int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Uploading || percent < t.progress {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	t.progress = percent
	return true
}
