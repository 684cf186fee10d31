package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mono(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func TestNewValidatesChannelAlignment(t *testing.T) {
	_, err := New("a", 44100, 2, []float32{1, 2, 3})
	assert.Error(t, err)

	seq, err := New("a", 44100, 2, []float32{1, 2, 3, 4})
	assert.NoError(t, err)
	assert.Equal(t, 2, seq.NFrames())
}

func TestSampleAndFrameInvariantAfterEdits(t *testing.T) {
	seq, err := New("s", 44100, 1, mono(10))
	assert.NoError(t, err)

	snap, err := seq.Slice(2, 5)
	assert.NoError(t, err)
	assert.NoError(t, seq.Insert(snap, 0))

	assert.Equal(t, 0, seq.table.Length()%seq.Channels())
	assert.Equal(t, 13, seq.NFrames())

	v, err := seq.Sample(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, float32(2), v)

	assert.NoError(t, seq.Remove(0, 3))
	assert.Equal(t, 10, seq.NFrames())
	v, _ = seq.Sample(0, 0)
	assert.Equal(t, float32(0), v)
}

func TestUndoRedoPreservesFrameInvariant(t *testing.T) {
	seq, err := New("s", 44100, 2, mono(20))
	assert.NoError(t, err)
	before := seq.Snapshot().Materialize()

	snap, _ := seq.Slice(1, 3)
	assert.NoError(t, seq.Replace(snap, 0, 2))
	assert.NoError(t, seq.Undo())

	assert.Equal(t, before, seq.Snapshot().Materialize())
	assert.Equal(t, 10, seq.NFrames())

	assert.NoError(t, seq.Redo())
	assert.Equal(t, 10, seq.NFrames())
	assert.Equal(t, 0, seq.table.Length()%seq.Channels())
}

func TestRefCounting(t *testing.T) {
	seq, _ := New("s", 44100, 1, mono(4))
	seq.Retain()
	seq.Retain()
	assert.False(t, seq.Release())
	assert.True(t, seq.Release())
}

func TestSoftLinksAreNonOwning(t *testing.T) {
	seq, _ := New("s", 44100, 1, mono(4))
	seq.AddSoftLink(SoftLink{SequenceID: seq.ID(), Name: "region copy"})
	links := seq.SoftLinks()
	assert.Len(t, links, 1)
	assert.Equal(t, int32(0), seq.RefCount())
}

func TestClonedSequenceIsIndependent(t *testing.T) {
	seq, _ := New("s", 44100, 1, mono(4))
	clone := seq.Clone("s-copy")

	snap, _ := seq.Slice(0, 1)
	assert.NoError(t, seq.Replace(snap, 1, 2))

	orig := seq.Snapshot().Materialize()
	cln := clone.Snapshot().Materialize()
	assert.NotEqual(t, orig, cln)
}
