// Package filetree holds the shared project file tree: an insertion-ordered
// mapping from name to either a nested directory or a file leaf. The wire
// format matches the client: {"name": {"file": {"contents": "..."}}} for
// files and plain nested objects for directories.
package filetree

import (
	"strings"
)

// Node is either a *Tree (directory) or a *File (leaf)
type Node interface {
	isNode()
}

// File is a leaf holding file contents
type File struct {
	Contents string
}

func (*File) isNode() {}

// Tree is a directory: an ordered set of named child nodes.
// A name maps to exactly one node kind, never both.
type Tree struct {
	names []string
	nodes map[string]Node
}

func (*Tree) isNode() {}

// New returns an empty tree
func New() *Tree {
	return &Tree{nodes: make(map[string]Node)}
}

// Len returns the number of direct children
func (t *Tree) Len() int {
	return len(t.names)
}

// Names returns the child names in insertion order
func (t *Tree) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Child returns the direct child with the given name
func (t *Tree) Child(name string) (Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Put sets a direct child. Replacing an existing name keeps its position;
// a new name is appended.
func (t *Tree) Put(name string, n Node) {
	if t.nodes == nil {
		t.nodes = make(map[string]Node)
	}
	if _, exists := t.nodes[name]; !exists {
		t.names = append(t.names, name)
	}
	t.nodes[name] = n
}

// Lookup walks a "/"-joined path segment by segment and returns the node at
// that path. A missing segment at any depth is a normal, absent result, not
// an error.
func (t *Tree) Lookup(path string) (Node, bool) {
	if t == nil || path == "" {
		return nil, false
	}

	current := Node(t)
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return nil, false
		}
		dir, ok := current.(*Tree)
		if !ok {
			return nil, false
		}
		next, ok := dir.nodes[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// FileContent returns the contents of the file at the given path, or the
// empty string when any segment is missing or the path is not a file.
func (t *Tree) FileContent(path string) string {
	n, ok := t.Lookup(path)
	if !ok {
		return ""
	}
	f, ok := n.(*File)
	if !ok {
		return ""
	}
	return f.Contents
}

// SetFileContent replaces the contents of the file leaf at the given path,
// leaving the rest of the tree untouched. Returns false if the path does not
// address an existing file.
func (t *Tree) SetFileContent(path, contents string) bool {
	n, ok := t.Lookup(path)
	if !ok {
		return false
	}
	f, ok := n.(*File)
	if !ok {
		return false
	}
	f.Contents = contents
	return true
}

// Walk visits every file depth-first in insertion order, passing its
// "/"-joined path. Stops at the first error.
func (t *Tree) Walk(fn func(path string, f *File) error) error {
	return t.walk("", fn)
}

func (t *Tree) walk(prefix string, fn func(path string, f *File) error) error {
	for _, name := range t.names {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		switch n := t.nodes[name].(type) {
		case *File:
			if err := fn(path, n); err != nil {
				return err
			}
		case *Tree:
			if err := n.walk(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the tree
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := New()
	for _, name := range t.names {
		switch n := t.nodes[name].(type) {
		case *File:
			out.Put(name, &File{Contents: n.Contents})
		case *Tree:
			out.Put(name, n.Clone())
		}
	}
	return out
}

// Equal reports structural equality, including child ordering
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.names) != len(other.names) {
		return false
	}
	for i, name := range t.names {
		if other.names[i] != name {
			return false
		}
		switch a := t.nodes[name].(type) {
		case *File:
			b, ok := other.nodes[name].(*File)
			if !ok || a.Contents != b.Contents {
				return false
			}
		case *Tree:
			b, ok := other.nodes[name].(*Tree)
			if !ok || !a.Equal(b) {
				return false
			}
		}
	}
	return true
}
