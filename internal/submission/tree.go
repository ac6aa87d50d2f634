// Package submission models one user-supplied project tree and validates its
// structure against the schema registry's shape rules.
package submission

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Entry is one direct child of a tree directory.
type Entry struct {
	Name string
	Dir  bool
}

// Tree is an abstract handle on a submitted directory: enumerable into
// nested name->{file|subtree} entries. Implementations exist over io/fs
// (local folders) and over an in-memory map (multipart uploads); consumers
// never assume random access or a particular traversal library.
type Tree interface {
	// Entries lists the direct children of dir ("" means the root),
	// sorted by name.
	Entries(dir string) ([]Entry, error)

	// Open returns the contents of the file at the slash-separated path.
	Open(name string) (io.ReadCloser, error)
}

// FSTree adapts an fs.FS into a Tree.
type FSTree struct {
	fsys fs.FS
}

func NewFSTree(fsys fs.FS) *FSTree { return &FSTree{fsys: fsys} }

func (t *FSTree) Entries(dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	des, err := fs.ReadDir(t.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		entries = append(entries, Entry{Name: de.Name(), Dir: de.IsDir()})
	}
	return entries, nil
}

func (t *FSTree) Open(name string) (io.ReadCloser, error) {
	return t.fsys.Open(name)
}

// MapTree is an in-memory Tree built from path->content pairs. The HTTP
// layer uses it to reconstruct the submitted folder from multipart parts.
type MapTree struct {
	files map[string][]byte
}

func NewMapTree() *MapTree {
	return &MapTree{files: make(map[string][]byte)}
}

// Add stores content under the slash-separated relative path p.
// Leading "./" and "/" are stripped.
func (t *MapTree) Add(p string, content []byte) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." {
		return
	}
	t.files[p] = content
}

func (t *MapTree) Len() int { return len(t.files) }

func (t *MapTree) Entries(dir string) ([]Entry, error) {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	found := false
	children := map[string]bool{} // name -> isDir
	for p := range t.files {
		if dir != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		found = true
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			children[rest[:i]] = true
		} else {
			children[rest] = false
		}
	}
	if dir != "" && !found {
		return nil, fmt.Errorf("reading %s: %w", dir, fs.ErrNotExist)
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Dir: children[name]})
	}
	return entries, nil
}

func (t *MapTree) Open(name string) (io.ReadCloser, error) {
	content, ok := t.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}
