// Package piecetable implements a persistent ordered sequence used as the
// backing structure for audio sample buffers and onset sequences. Edits are
// recorded as deltas on an undo stack so every edit is reversible without
// re-scanning the whole sequence. The pieces are kept in a flat list, not a
// tree: At, Slice, insert, remove and replace walk that list, so their cost
// grows linearly with the number of pieces (not with the number of items).
//
// A Snapshot is a cheap, shareable, read-only handle to the logical sequence
// at the moment it was taken; further edits to the owning Table never
// mutate a previously taken Snapshot (copy-on-write: edits allocate new
// backing slices, they never write through an old one in place).
package piecetable

import (
	"fmt"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

// piece is one contiguous run of items backed by an immutable slice plus an
// offset/length window into it. Splitting a piece never mutates the backing
// slice; it only narrows the window or produces two new pieces.
type piece[T any] struct {
	buf []T
	off int
	len int
}

func (p piece[T]) at(i int) T { return p.buf[p.off+i] }

// Snapshot is an immutable, shareable view of a sequence at one point in
// time. It remains valid indefinitely; it does not pin future edits.
type Snapshot[T any] struct {
	pieces []piece[T]
	length int
}

// Length returns the number of logical items in the snapshot.
func (s Snapshot[T]) Length() int { return s.length }

// At returns the item at logical index i.
func (s Snapshot[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= s.length {
		return zero, corerrors.NewOutOfRange("index", i, 0, s.length-1)
	}
	base := 0
	for _, p := range s.pieces {
		if i < base+p.len {
			return p.at(i - base), nil
		}
		base += p.len
	}
	return zero, corerrors.NewOutOfRange("index", i, 0, s.length-1)
}

// Materialize copies the logical sequence out into a flat slice.
func (s Snapshot[T]) Materialize() []T {
	out := make([]T, 0, s.length)
	for _, p := range s.pieces {
		out = append(out, p.buf[p.off:p.off+p.len]...)
	}
	return out
}

// All iterates the logical sequence in order without materializing it.
func (s Snapshot[T]) All(yield func(T) bool) {
	for _, p := range s.pieces {
		for i := 0; i < p.len; i++ {
			if !yield(p.at(i)) {
				return
			}
		}
	}
}

// Slice returns a new Snapshot covering the half-open logical range
// [i,j), suitable for reuse as an insertion source elsewhere (e.g. a
// clipboard buffer).
func (s Snapshot[T]) Slice(i, j int) (Snapshot[T], error) {
	if i < 0 || j < i || j > s.length {
		return Snapshot[T]{}, corerrors.NewOutOfRange("slice range", j, i, s.length)
	}
	var out []piece[T]
	base := 0
	for _, p := range s.pieces {
		pStart, pEnd := base, base+p.len
		base = pEnd
		lo, hi := max(i, pStart), min(j, pEnd)
		if lo >= hi {
			continue
		}
		out = append(out, piece[T]{p.buf, p.off + (lo - pStart), hi - lo})
	}
	return Snapshot[T]{pieces: out, length: j - i}, nil
}

func fromSlice[T any](items []T) Snapshot[T] {
	if len(items) == 0 {
		return Snapshot[T]{}
	}
	cp := make([]T, len(items))
	copy(cp, items)
	return Snapshot[T]{pieces: []piece[T]{{cp, 0, len(cp)}}, length: len(cp)}
}

type editKind int

const (
	editInsert editKind = iota
	editRemove
	editReplace
)

// edit is one reversible delta: it records enough of the prior state to
// restore the table to exactly what it was before the edit.
type edit[T any] struct {
	kind     editKind
	at, end  int // logical range touched, in the *pre-edit* table
	inserted Snapshot[T]
	removed  Snapshot[T] // what was at [at,end) before the edit
}

// Table is a mutable, undoable piece-table over items of type T.
type Table[T any] struct {
	cur   Snapshot[T]
	undo  []edit[T]
	redo  []edit[T]
}

// New creates a Table seeded with the given items.
func New[T any](items []T) *Table[T] {
	return &Table[T]{cur: fromSlice(items)}
}

// Length returns the current logical length.
func (t *Table[T]) Length() int { return t.cur.Length() }

// At returns the item at logical index i.
func (t *Table[T]) At(i int) (T, error) { return t.cur.At(i) }

// Slice returns a Snapshot of the current range [i,j).
func (t *Table[T]) Slice(i, j int) (Snapshot[T], error) { return t.cur.Slice(i, j) }

// Snapshot returns a handle to the current logical sequence.
func (t *Table[T]) Snapshot() Snapshot[T] { return t.cur }

// Insert splices seq into the table at logical index at.
func (t *Table[T]) Insert(at int, seq Snapshot[T]) error {
	if at < 0 || at > t.cur.Length() {
		return corerrors.NewOutOfRange("insert at", at, 0, t.cur.Length())
	}
	before, err := t.cur.Slice(0, at)
	if err != nil {
		return err
	}
	after, err := t.cur.Slice(at, t.cur.Length())
	if err != nil {
		return err
	}
	next := concat(concat(before, seq), after)
	t.pushEdit(edit[T]{kind: editInsert, at: at, end: at, inserted: seq})
	t.cur = next
	return nil
}

// Remove deletes the logical range [i,j).
func (t *Table[T]) Remove(i, j int) error {
	if i < 0 || j < i || j > t.cur.Length() {
		return corerrors.NewOutOfRange("remove range", j, i, t.cur.Length())
	}
	removed, err := t.cur.Slice(i, j)
	if err != nil {
		return err
	}
	before, _ := t.cur.Slice(0, i)
	after, _ := t.cur.Slice(j, t.cur.Length())
	t.pushEdit(edit[T]{kind: editRemove, at: i, end: j, removed: removed})
	t.cur = concat(before, after)
	return nil
}

// Replace atomically substitutes the logical range [i,j) with newSeq as a
// single history entry (not a remove followed by an insert).
func (t *Table[T]) Replace(newSeq Snapshot[T], i, j int) error {
	if i < 0 || j < i || j > t.cur.Length() {
		return corerrors.NewOutOfRange("replace range", j, i, t.cur.Length())
	}
	removed, err := t.cur.Slice(i, j)
	if err != nil {
		return err
	}
	before, _ := t.cur.Slice(0, i)
	after, _ := t.cur.Slice(j, t.cur.Length())
	t.pushEdit(edit[T]{kind: editReplace, at: i, end: j, inserted: newSeq, removed: removed})
	t.cur = concat(concat(before, newSeq), after)
	return nil
}

func (t *Table[T]) pushEdit(e edit[T]) {
	t.undo = append(t.undo, e)
	t.redo = t.redo[:0]
}

// QueryUndo reports whether Undo would succeed.
func (t *Table[T]) QueryUndo() bool { return len(t.undo) > 0 }

// QueryRedo reports whether Redo would succeed.
func (t *Table[T]) QueryRedo() bool { return len(t.redo) > 0 }

// Undo reverts the most recent edit.
func (t *Table[T]) Undo() error {
	if len(t.undo) == 0 {
		return corerrors.ErrNoHistory
	}
	e := t.undo[len(t.undo)-1]
	t.undo = t.undo[:len(t.undo)-1]

	switch e.kind {
	case editInsert:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at+e.inserted.Length(), t.cur.Length())
		t.cur = concat(before, after)
	case editRemove:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at, t.cur.Length())
		t.cur = concat(concat(before, e.removed), after)
	case editReplace:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at+e.inserted.Length(), t.cur.Length())
		t.cur = concat(concat(before, e.removed), after)
	default:
		return fmt.Errorf("piecetable: unknown edit kind %d", e.kind)
	}
	t.redo = append(t.redo, e)
	return nil
}

// Redo re-applies the most recently undone edit.
func (t *Table[T]) Redo() error {
	if len(t.redo) == 0 {
		return corerrors.ErrNoHistory
	}
	e := t.redo[len(t.redo)-1]
	t.redo = t.redo[:len(t.redo)-1]

	switch e.kind {
	case editInsert:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at, t.cur.Length())
		t.cur = concat(concat(before, e.inserted), after)
	case editRemove:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at+e.removed.Length(), t.cur.Length())
		t.cur = concat(before, after)
	case editReplace:
		before, _ := t.cur.Slice(0, e.at)
		after, _ := t.cur.Slice(e.at+e.removed.Length(), t.cur.Length())
		t.cur = concat(concat(before, e.inserted), after)
	default:
		return fmt.Errorf("piecetable: unknown edit kind %d", e.kind)
	}
	t.undo = append(t.undo, e)
	return nil
}

func concat[T any](a, b Snapshot[T]) Snapshot[T] {
	if a.length == 0 {
		return b
	}
	if b.length == 0 {
		return a
	}
	out := make([]piece[T], 0, len(a.pieces)+len(b.pieces))
	out = append(out, a.pieces...)
	out = append(out, b.pieces...)
	return Snapshot[T]{pieces: out, length: a.length + b.length}
}
