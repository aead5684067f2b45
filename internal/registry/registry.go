// Package registry holds the name-ordered table of live metric cells.
// Lookup, insert, delete and ordered traversal all run against a single
// google/btree index guarded by a read/write mutex, the same locking shape
// the teacher's in-memory tree uses: readers (ingest lookups, HTTP GETs,
// flush traversal) take the read lock and run concurrently; writers (first
// sample of a new name, DELETE) take the write lock briefly.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/cc-metrics/statsgod/internal/aggregate"
)

// ErrDuplicateName is never returned by the registry itself (GetOrCreate
// returns the existing cell for a known name), but is kept for callers that
// want strict create-only semantics.
var ErrDuplicateName = errors.New("registry: name already exists")

// ErrTypeConflict is returned when a sample's type code does not match the
// type already registered for its name. The statsd grammar allows the same
// metric name to be reused across types over the life of a name only by
// first deleting it through the HTTP admin surface.
var ErrTypeConflict = errors.New("registry: type conflict")

// Cell is one named metric: its type, accumulator state and last-touched
// timestamp. LastModified lets an operator distinguish a quiet metric from
// a dead one without statsgod ever expiring entries on its own (the spec
// has no TTL/expiry operation).
type Cell struct {
	Name         string
	Acc          aggregate.Accumulator
	LastModified time.Time
}

func (c *Cell) Type() aggregate.Type { return c.Acc.Type() }

type entry struct {
	name string
	cell *Cell
}

func less(a, b entry) bool { return a.name < b.name }

// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[entry]
	counts [4]int
}

// New returns an empty registry. degree mirrors the teacher's choice of a
// moderate branching factor (b-trees trade node-scan cost against tree
// depth; 32 keeps both small at statsgod's expected cardinality of a few
// thousand live metric names).
func New() *Registry {
	return &Registry{tree: btree.NewG(32, less)}
}

// Lookup returns the cell for name, if one exists.
func (r *Registry) Lookup(name string) (*Cell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tree.Get(entry{name: name})
	if !ok {
		return nil, false
	}
	return e.cell, true
}

// GetOrCreate returns the existing cell for name, creating one of type t if
// none exists. If a cell already exists with a different type, it returns
// ErrTypeConflict and the existing cell is left untouched, matching
// evstatsd's behavior of silently dropping a type-mismatched sample rather
// than mutating or replacing the registered type.
func (r *Registry) GetOrCreate(name string, t aggregate.Type, now time.Time) (*Cell, error) {
	r.mu.RLock()
	if e, ok := r.tree.Get(entry{name: name}); ok {
		r.mu.RUnlock()
		if e.cell.Type() != t {
			return nil, ErrTypeConflict
		}
		return e.cell, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.tree.Get(entry{name: name}); ok {
		if e.cell.Type() != t {
			return nil, ErrTypeConflict
		}
		return e.cell, nil
	}

	cell := &Cell{Name: name, Acc: aggregate.New(t), LastModified: now}
	r.tree.ReplaceOrInsert(entry{name: name, cell: cell})
	r.counts[t]++
	return cell, nil
}

// Delete removes name from the registry and disposes its accumulator. It
// reports whether a cell existed.
func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tree.Delete(entry{name: name})
	if !ok {
		return false
	}
	r.counts[e.cell.Type()]--
	e.cell.Acc.Dispose()
	return true
}

// Len returns the number of live cells.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// CountByType returns how many live cells hold type t.
func (r *Registry) CountByType(t aggregate.Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[t]
}

// Ascend walks every cell in ascending name order. fn must not call back
// into the registry: Ascend holds the read lock for its whole duration.
func (r *Registry) Ascend(fn func(*Cell) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.tree.Ascend(func(e entry) bool {
		return fn(e.cell)
	})
}

// AscendType walks every live cell of type t in ascending name order, the
// access pattern the HTTP list endpoints (/counters, /gauges, ...) use.
func (r *Registry) AscendType(t aggregate.Type, fn func(*Cell) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.tree.Ascend(func(e entry) bool {
		if e.cell.Type() != t {
			return true
		}
		return fn(e.cell)
	})
}

// Touch updates a cell's LastModified timestamp. Callers hold no lock of
// their own; Touch takes the write lock briefly since it mutates a field
// readers (HTTP GET) may observe.
func (r *Registry) Touch(c *Cell, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.LastModified = now
}
