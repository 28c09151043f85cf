// Package persist coalesces bursts of file-tree mutations into infrequent
// durable writes. Each project has at most one pending timer; every new
// mutation resets it and swaps in the latest snapshot, so the write that
// eventually fires always carries the most recent tree.
package persist

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/log"
)

// DefaultDelay is the quiet interval after the last mutation before a
// persistence write is issued.
const DefaultDelay = time.Second

// Store is the collaborator the writer persists through
type Store interface {
	UpdateFileTree(projectID string, treeJSON string) error
}

// StoreFunc adapts a function to the Store interface
type StoreFunc func(projectID string, treeJSON string) error

func (f StoreFunc) UpdateFileTree(projectID string, treeJSON string) error {
	return f(projectID, treeJSON)
}

// Writer debounces per-project file tree saves
type Writer struct {
	pending  map[string]*pendingSave
	mu       sync.Mutex
	delay    time.Duration
	store    Store
	stopping atomic.Bool
}

// pendingSave is a queued save waiting out the quiet interval
type pendingSave struct {
	timer    *time.Timer
	snapshot *filetree.Tree
}

// NewWriter creates a writer with the given quiet interval
func NewWriter(delay time.Duration, store Store) *Writer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Writer{
		pending: make(map[string]*pendingSave),
		delay:   delay,
		store:   store,
	}
}

// Schedule records the latest tree snapshot for the project and resets its
// debounce timer. The writer takes ownership of the snapshot: callers hand
// over a clone taken under their own lock and must not touch it afterwards.
// Returns false if the writer is stopping and the mutation was ignored.
func (w *Writer) Schedule(projectID string, snapshot *filetree.Tree) bool {
	if w.stopping.Load() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopping.Load() {
		return false
	}

	if p, ok := w.pending[projectID]; ok {
		// If Reset returns false the timer already fired and onTimer is
		// running or about to run; the entry may be gone, so start fresh.
		if p.timer.Reset(w.delay) {
			p.snapshot = snapshot
			return true
		}
	}

	timer := time.AfterFunc(w.delay, func() {
		w.onTimer(projectID)
	})
	w.pending[projectID] = &pendingSave{
		timer:    timer,
		snapshot: snapshot,
	}
	return true
}

// onTimer fires when the quiet interval expires without another mutation
func (w *Writer) onTimer(projectID string) {
	w.mu.Lock()
	p, ok := w.pending[projectID]
	if ok {
		delete(w.pending, projectID)
	}
	w.mu.Unlock()

	if ok {
		w.write(projectID, p.snapshot)
	}
}

// write issues exactly one persistence call. Failures are logged and not
// retried; the next mutation schedules a fresh attempt.
func (w *Writer) write(projectID string, tree *filetree.Tree) {
	data, err := json.Marshal(tree)
	if err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("file tree encode failed")
		return
	}

	if err := w.store.UpdateFileTree(projectID, string(data)); err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("file tree save failed")
		return
	}

	log.Debug().Str("projectId", projectID).Int("bytes", len(data)).Msg("file tree saved")
}

// Flush writes the pending snapshot for a project immediately, if any
func (w *Writer) Flush(projectID string) {
	w.mu.Lock()
	p, ok := w.pending[projectID]
	if ok {
		p.timer.Stop()
		delete(w.pending, projectID)
	}
	w.mu.Unlock()

	if ok {
		w.write(projectID, p.snapshot)
	}
}

// Stop cancels pending timers, writes out their snapshots and prevents new
// mutations from being queued.
func (w *Writer) Stop() {
	w.stopping.Store(true)

	w.mu.Lock()
	remaining := w.pending
	w.pending = make(map[string]*pendingSave)
	w.mu.Unlock()

	for projectID, p := range remaining {
		p.timer.Stop()
		w.write(projectID, p.snapshot)
	}
}

// PendingCount returns the number of pending saves (for testing)
func (w *Writer) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
