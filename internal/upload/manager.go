package upload

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"letschat/internal/bus"
	"letschat/internal/errs"
	"letschat/internal/model"
	"letschat/internal/transport"
)

// Progress is the payload of upload.progress events.
type Progress struct {
	TaskID  string
	Percent int
}

// Outcome is the payload of upload.completed, upload.cancelled and
// upload.failed events.
type Outcome struct {
	TaskID string
	Result transport.UploadResult
	Err    error
}

// Manager owns the upload pipeline: it validates selected files, builds
// previews, runs uploads in the background and tracks each task until a
// caller takes or discards it.
type Manager struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	tr     transport.Client
	bus    *bus.Bus
	logger *zap.Logger
}

// NewManager creates an upload manager over the given transport.
func NewManager(tr transport.Client, b *bus.Bus, logger *zap.Logger) *Manager {
	return &Manager{
		tasks:  make(map[string]*Task),
		tr:     tr,
		bus:    b,
		logger: logger,
	}
}

// Add validates and enqueues a file for upload. Files that are neither
// images nor videos are rejected before any task is created, so a rejected
// selection leaves the pending set untouched. The upload itself runs in a
// background goroutine scoped to ctx.
func (m *Manager) Add(ctx context.Context, file model.File) (*Task, error) {
	kind, ok := model.KindForMIME(file.MIME)
	if !ok {
		return nil, errs.New(errs.CodeUnsupportedFileType, "mime %q", file.MIME)
	}

	t := &Task{
		id:    uuid.NewString(),
		file:  file,
		state: Selected,
		done:  make(chan struct{}),
	}
	if kind == model.KindImage {
		t.previewURL = dataURL(file)
		if err := t.transition(Previewing); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.tasks[t.id] = t
	m.mu.Unlock()

	go m.run(ctx, t)
	return t, nil
}

// run drives one task through the transport upload. Terminal transitions
// race with Cancel; whichever loses is discarded by the state machine.
func (m *Manager) run(ctx context.Context, t *Task) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if err := t.transitionLocked(Uploading); err != nil {
		t.mu.Unlock()
		return
	}
	t.cancel = cancel
	t.mu.Unlock()

	res, err := m.tr.Upload(ctx, t.file, func(percent int) {
		if t.setProgress(percent) {
			m.bus.Publish(bus.New(bus.KindUploadProgress, Progress{TaskID: t.id, Percent: percent}))
		}
	})
	if err != nil {
		if errs.IsCode(err, errs.CodeUploadCancelled) {
			if t.transition(Cancelled) == nil {
				m.remove(t.id)
				m.bus.Publish(bus.New(bus.KindUploadCancelled, Outcome{TaskID: t.id}))
			}
			return
		}
		m.fail(t, err)
		return
	}

	t.mu.Lock()
	if err := t.transitionLocked(Uploaded); err != nil {
		t.mu.Unlock()
		return
	}
	t.result = res
	t.progress = 100
	t.mu.Unlock()
	m.bus.Publish(bus.New(bus.KindUploadCompleted, Outcome{TaskID: t.id, Result: res}))
}

// fail marks the task failed and drops it from the pending set. A failed
// upload is not retryable; the caller selects the file again.
func (m *Manager) fail(t *Task, cause error) {
	t.mu.Lock()
	if err := t.transitionLocked(Failed); err != nil {
		t.mu.Unlock()
		return
	}
	t.err = cause
	t.mu.Unlock()

	m.remove(t.id)
	m.logger.Warn("upload failed", zap.String("task", t.id), zap.String("file", t.file.Name), zap.Error(cause))
	m.bus.Publish(bus.New(bus.KindUploadFailed, Outcome{TaskID: t.id, Err: cause}))
}

// Cancel aborts the task with the given id. Safe to call at any point; a
// task that already reached a terminal state is left as is. The task is
// marked Cancelled here, not when the transport call returns, so an upload
// that was already in flight and still succeeds loses the race: its late
// Uploaded transition is discarded by the state machine.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if t.transition(Cancelled) == nil {
		m.remove(id)
		m.bus.Publish(bus.New(bus.KindUploadCancelled, Outcome{TaskID: id}))
	}
}

// Clear cancels every pending task and empties the set.
func (m *Manager) Clear() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Cancel(id)
	}

	m.mu.Lock()
	for _, t := range m.tasks {
		t.runCleanup()
	}
	m.tasks = make(map[string]*Task)
	m.mu.Unlock()
}

// Pending returns the tracked tasks in no particular order.
func (m *Manager) Pending() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}

// Task returns the tracked task with the given id, or nil.
func (m *Manager) Task(id string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

// TakeUploaded removes and returns every task that finished uploading,
// releasing its preview. Tasks in other states stay tracked.
func (m *Manager) TakeUploaded() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Task
	for id, t := range m.tasks {
		if t.State() == Uploaded {
			t.runCleanup()
			delete(m.tasks, id)
			out = append(out, t)
		}
	}
	return out
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	if t, ok := m.tasks[id]; ok {
		t.runCleanup()
		delete(m.tasks, id)
	}
	m.mu.Unlock()
}

// runCleanup releases the task's preview reference.
func (t *Task) runCleanup() {
	t.mu.Lock()
	t.previewURL = ""
	t.mu.Unlock()
}

func dataURL(f model.File) string {
	return "data:" + f.MIME + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
