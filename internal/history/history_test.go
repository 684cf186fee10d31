package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

func TestAppendUndoRestoresByteForByte(t *testing.T) {
	h := New[string](0)
	h.AppendState("a", "first")
	h.AppendState("b", "second")

	cur, ok := h.Current()
	assert.True(t, ok)
	assert.Equal(t, "b", cur)

	prev, err := h.Undo()
	assert.NoError(t, err)
	assert.Equal(t, "a", prev)

	next, err := h.Redo()
	assert.NoError(t, err)
	assert.Equal(t, "b", next)
}

func TestUndoOnEmptyFails(t *testing.T) {
	h := New[int](0)
	_, err := h.Undo()
	assert.ErrorIs(t, err, corerrors.ErrNoHistory)
}

func TestAppendTruncatesRedo(t *testing.T) {
	h := New[int](0)
	h.AppendState(1, "one")
	h.AppendState(2, "two")
	_, _ = h.Undo()
	h.AppendState(3, "three")

	assert.False(t, h.QueryRedo())
	cur, _ := h.Current()
	assert.Equal(t, 3, cur)
}

func TestBoundedHistoryTruncatesOldest(t *testing.T) {
	h := New[int](3)
	for i := 0; i < 5; i++ {
		h.AppendState(i, "entry")
	}
	assert.Len(t, h.UndoHistory(), 3)
	assert.Equal(t, []int{2, 3, 4}, func() []int {
		var out []int
		for _, e := range h.UndoHistory() {
			out = append(out, e.State)
		}
		return out
	}())
}
