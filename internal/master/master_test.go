package master

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/region"
	"github.com/nymdaw/nymdaw-core/internal/sequence"
	"github.com/nymdaw/nymdaw-core/internal/track"
)

func monoSeq(t *testing.T, n int, val float32) *sequence.AudioSequence {
	t.Helper()
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = val
	}
	seq, err := sequence.New("seq", 44100, 1, samples)
	assert.NoError(t, err)
	return seq
}

func TestSumAllMutedIsZero(t *testing.T) {
	group := track.NewSoloGroup()
	seq := monoSeq(t, 100, 1.0)
	r, _ := region.New("r1", "r", seq, 0, 100, 0)
	tr := track.New("t1", "one", 44100, group)
	tr.AddRegion(r)
	tr.SetMute(true)

	b := New(44100, group)
	left := make([]float32, 8)
	right := make([]float32, 8)
	b.Sum([]*track.Track{tr}, 0, 8, left, right)
	for _, v := range left {
		assert.Equal(t, float32(0), v)
	}
}

func TestSumAddsTracksTogether(t *testing.T) {
	group := track.NewSoloGroup()
	seq1 := monoSeq(t, 10, 0.25)
	seq2 := monoSeq(t, 10, 0.25)
	r1, _ := region.New("r1", "r", seq1, 0, 10, 0)
	r2, _ := region.New("r2", "r", seq2, 0, 10, 0)
	t1 := track.New("t1", "one", 44100, group)
	t2 := track.New("t2", "two", 44100, group)
	t1.AddRegion(r1)
	t2.AddRegion(r2)

	b := New(44100, group)
	left := make([]float32, 4)
	right := make([]float32, 4)
	b.Sum([]*track.Track{t1, t2}, 0, 4, left, right)
	assert.InDelta(t, 0.5, left[0], 1e-6)
}

func TestSoloActiveReflectsGroup(t *testing.T) {
	group := track.NewSoloGroup()
	b := New(44100, group)
	assert.False(t, b.SoloActive())

	tr := track.New("t1", "one", 44100, group)
	tr.SetSolo(true)
	assert.True(t, b.SoloActive())
}
