// Package store holds the files extracted from an ingested quiz archive.
//
// A Store exposes one namespace of path -> (bytes, content type). Content is
// never updated in place: a new archive is written into a Staging buffer and
// swapped in with Publish, so readers observe either the previous package or
// the new one, never a mix and never an empty namespace mid-swap.
package store

import (
	"context"
	"path"
	"sort"
)

// Entry is one stored file.
type Entry struct {
	Data        []byte
	ContentType string
}

type Store interface {
	// Get returns the entry at path or an *errors.NotFoundError.
	Get(ctx context.Context, path string) (*Entry, error)
	// Paths lists every stored path in lexical order.
	Paths(ctx context.Context) ([]string, error)
	// Publish atomically replaces the namespace with the staged entries.
	Publish(ctx context.Context, staged *Staging) error
	// Clear removes every entry in the namespace.
	Clear(ctx context.Context) error
}

// Staging buffers writes for a later Publish.
type Staging struct {
	entries map[string]Entry
}

func NewStaging() *Staging {
	return &Staging{entries: make(map[string]Entry)}
}

// Put records an entry; a later Put for the same path replaces it.
func (s *Staging) Put(p string, data []byte, contentType string) {
	s.entries[CleanPath(p)] = Entry{Data: data, ContentType: contentType}
}

func (s *Staging) Has(p string) bool {
	_, ok := s.entries[CleanPath(p)]
	return ok
}

func (s *Staging) Get(p string) (Entry, bool) {
	e, ok := s.entries[CleanPath(p)]
	return e, ok
}

func (s *Staging) Len() int {
	return len(s.entries)
}

// Paths lists the staged paths in lexical order.
func (s *Staging) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// CleanPath normalises a store key: slash separated, no leading slash.
func CleanPath(p string) string {
	p = path.Clean("/" + p)
	return p[1:]
}
