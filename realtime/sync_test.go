package realtime

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/persist"
)

func TestSynchronizer_LazyLoadsStoredTree(t *testing.T) {
	loads := 0
	loader := func(projectID string) (*filetree.Tree, error) {
		loads++
		tree := filetree.New()
		tree.Put("stored.js", &filetree.File{Contents: "from db"})
		return tree, nil
	}
	s := NewSynchronizer(persist.NewWriter(time.Hour, persist.StoreFunc(func(string, string) error { return nil })), nil, loader)

	tree := s.Tree("p1")
	if tree.FileContent("stored.js") != "from db" {
		t.Error("stored tree not loaded")
	}

	s.Tree("p1")
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}
}

func TestSynchronizer_LoaderFailureYieldsEmptyTree(t *testing.T) {
	loader := func(projectID string) (*filetree.Tree, error) {
		return nil, errors.New("db closed")
	}
	s := NewSynchronizer(persist.NewWriter(time.Hour, persist.StoreFunc(func(string, string) error { return nil })), nil, loader)

	if s.Tree("p1").Len() != 0 {
		t.Error("expected empty tree on load failure")
	}
}

func TestSynchronizer_UpdateFile(t *testing.T) {
	saver := persist.NewWriter(time.Hour, persist.StoreFunc(func(string, string) error { return nil }))
	mounter := newRecordingMounter()
	s := NewSynchronizer(saver, mounter, nil)

	seed := filetree.New()
	seed.Put("a.js", &filetree.File{Contents: "old"})
	s.SetTree("p1", seed)

	if !s.UpdateFile("p1", "a.js", "new") {
		t.Fatal("expected file update to succeed")
	}
	if got := s.Tree("p1").FileContent("a.js"); got != "new" {
		t.Errorf("contents = %q", got)
	}

	if s.UpdateFile("p1", "missing.js", "x") {
		t.Error("update of a missing path should report false")
	}
	if s.Tree("p1").Len() != 1 {
		t.Error("failed update must not create entries")
	}
}

func TestSynchronizer_ConcurrentFileEdits(t *testing.T) {
	var stored atomic.Int64
	saver := persist.NewWriter(time.Millisecond, persist.StoreFunc(func(string, string) error {
		stored.Add(1)
		return nil
	}))
	defer saver.Stop()
	s := NewSynchronizer(saver, newRecordingMounter(), nil)

	seed := filetree.New()
	seed.Put("a.js", &filetree.File{Contents: "0"})
	s.SetTree("p1", seed)

	// Two writers editing the same file while snapshots for persistence and
	// mounting are taken off the live tree
	const edits = 2000
	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < edits; i++ {
				s.UpdateFile("p1", "a.js", fmt.Sprintf("w%d-%d", id, i))
			}
		}(g)
	}
	wg.Wait()

	got := s.Tree("p1").FileContent("a.js")
	if !strings.HasPrefix(got, "w0-") && !strings.HasPrefix(got, "w1-") {
		t.Errorf("final contents = %q, not one of the written values", got)
	}
}

func TestSynchronizer_Forget(t *testing.T) {
	loads := 0
	loader := func(projectID string) (*filetree.Tree, error) {
		loads++
		return filetree.New(), nil
	}
	s := NewSynchronizer(persist.NewWriter(time.Hour, persist.StoreFunc(func(string, string) error { return nil })), nil, loader)

	s.Tree("p1")
	s.Forget("p1")
	s.Tree("p1")

	if loads != 2 {
		t.Errorf("loader called %d times, want reload after forget", loads)
	}
}
