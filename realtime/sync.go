package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/log"
	"github.com/codecollab-io/codecollab/persist"
	"github.com/codecollab-io/codecollab/sandbox"
)

// TreeLoader fetches a project's stored file tree when it is first needed
type TreeLoader func(projectID string) (*filetree.Tree, error)

// Synchronizer maintains the authoritative in-memory file tree per open
// project and reconciles AI-driven updates: an incoming AI tree replaces the
// held tree wholesale (last write wins, no merging), is forwarded to the
// execution sandbox, and is queued for debounced persistence.
type Synchronizer struct {
	trees   map[string]*filetree.Tree
	mu      sync.Mutex
	saver   *persist.Writer
	mounter sandbox.Mounter
	loader  TreeLoader
}

// NewSynchronizer wires the synchronizer to its collaborators
func NewSynchronizer(saver *persist.Writer, mounter sandbox.Mounter, loader TreeLoader) *Synchronizer {
	return &Synchronizer{
		trees:   make(map[string]*filetree.Tree),
		saver:   saver,
		mounter: mounter,
		loader:  loader,
	}
}

// Tree returns the project's current tree, loading the stored copy on first
// access. Returns an empty tree when nothing is stored yet.
func (s *Synchronizer) Tree(projectID string) *filetree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treeLocked(projectID)
}

func (s *Synchronizer) treeLocked(projectID string) *filetree.Tree {
	if t, ok := s.trees[projectID]; ok {
		return t
	}

	t := filetree.New()
	if s.loader != nil {
		loaded, err := s.loader(projectID)
		if err != nil {
			log.Error().Err(err).Str("projectId", projectID).Msg("file tree load failed")
		} else if loaded != nil {
			t = loaded
		}
	}
	s.trees[projectID] = t
	return t
}

// ApplyReply applies an AI-authored reply: the carried tree supersedes the
// held copy wholesale. A reply without a tree is a no-op here.
func (s *Synchronizer) ApplyReply(projectID string, r *Reply) {
	if r == nil || r.FileTree == nil {
		return
	}
	s.replace(projectID, r.FileTree)
}

// SetTree replaces the project's tree from a local whole-tree edit
// (the editor's autosave path)
func (s *Synchronizer) SetTree(projectID string, tree *filetree.Tree) {
	s.replace(projectID, tree)
}

// UpdateFile mutates only the addressed file leaf, leaving the rest of the
// tree structurally untouched. Returns false if the path is not a file.
func (s *Synchronizer) UpdateFile(projectID, path, contents string) bool {
	s.mu.Lock()
	tree := s.treeLocked(projectID)
	ok := tree.SetFileContent(path, contents)
	var snapshot *filetree.Tree
	if ok {
		snapshot = tree.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.saver.Schedule(projectID, snapshot)
	s.mount(projectID, snapshot)
	return true
}

// Forget drops the in-memory tree for a project (project deleted)
func (s *Synchronizer) Forget(projectID string) {
	s.mu.Lock()
	delete(s.trees, projectID)
	s.mu.Unlock()
}

// replace installs the new tree and fans a snapshot out to the persistence
// writer and the sandbox. The snapshot is taken while the lock is held so a
// concurrent edit of the live tree can never be observed mid-mutation.
func (s *Synchronizer) replace(projectID string, tree *filetree.Tree) {
	s.mu.Lock()
	s.trees[projectID] = tree
	snapshot := tree.Clone()
	s.mu.Unlock()

	s.saver.Schedule(projectID, snapshot)
	s.mount(projectID, snapshot)
}

// mount forwards a snapshot to the sandbox collaborator, fire-and-forget.
// The caller hands over the snapshot; it is never mutated afterwards.
// Mount failures never affect the room session.
func (s *Synchronizer) mount(projectID string, snapshot *filetree.Tree) {
	if s.mounter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mounter.Mount(ctx, projectID, snapshot); err != nil {
			log.Error().Err(err).Str("projectId", projectID).Msg("sandbox mount failed")
		}
	}()
}
