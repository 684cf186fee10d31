package piecetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

func TestInsertRemoveReplace(t *testing.T) {
	tbl := New([]int{1, 2, 3, 4, 5})
	assert.Equal(t, 5, tbl.Length())

	err := tbl.Insert(2, fromSlice([]int{9, 9}))
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 9, 9, 3, 4, 5}, tbl.Snapshot().Materialize())

	err = tbl.Remove(2, 4)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, tbl.Snapshot().Materialize())

	err = tbl.Replace(fromSlice([]int{7, 7, 7}), 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 7, 7, 7, 4, 5}, tbl.Snapshot().Materialize())
}

func TestOutOfRange(t *testing.T) {
	tbl := New([]int{1, 2, 3})
	_, err := tbl.At(5)
	assert.Error(t, err)
	err = tbl.Remove(-1, 2)
	assert.Error(t, err)
	err = tbl.Insert(10, fromSlice([]int{1}))
	assert.Error(t, err)
}

func TestUndoRedoAcrossAllEditKinds(t *testing.T) {
	tbl := New([]int{1, 2, 3, 4, 5})

	assert.NoError(t, tbl.Insert(2, fromSlice([]int{9})))
	assert.NoError(t, tbl.Remove(0, 1))
	assert.NoError(t, tbl.Replace(fromSlice([]int{8, 8}), 1, 2))

	final := append([]int(nil), tbl.Snapshot().Materialize()...)

	assert.NoError(t, tbl.Undo())
	assert.NoError(t, tbl.Undo())
	assert.NoError(t, tbl.Undo())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, tbl.Snapshot().Materialize())
	assert.ErrorIs(t, tbl.Undo(), corerrors.ErrNoHistory)

	assert.NoError(t, tbl.Redo())
	assert.NoError(t, tbl.Redo())
	assert.NoError(t, tbl.Redo())
	assert.Equal(t, final, tbl.Snapshot().Materialize())
	assert.Error(t, tbl.Redo())
}

func TestSnapshotsSurviveFurtherEdits(t *testing.T) {
	tbl := New([]int{1, 2, 3})
	snap := tbl.Snapshot()

	assert.NoError(t, tbl.Insert(1, fromSlice([]int{100})))
	assert.Equal(t, []int{1, 2, 3}, snap.Materialize())
	assert.Equal(t, []int{1, 100, 2, 3}, tbl.Snapshot().Materialize())
}

func TestSliceOfSnapshot(t *testing.T) {
	tbl := New([]int{10, 20, 30, 40, 50})
	sub, err := tbl.Slice(1, 4)
	assert.NoError(t, err)
	assert.Equal(t, []int{20, 30, 40}, sub.Materialize())
}
