package onset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

type fakeSource struct {
	channels int
	data     [][]float32
}

func (f *fakeSource) NFrames() int  { return len(f.data[0]) }
func (f *fakeSource) Channels() int { return f.channels }
func (f *fakeSource) Sample(ch, fr int) (float32, error) {
	return f.data[ch][fr], nil
}

// fixedHopDetector fires on hops whose start index is in the given set.
type fixedHopDetector struct {
	fireAt map[int]bool
	calls  int
}

func (d *fixedHopDetector) DetectHop(window []float32, _, _ float64) bool {
	fire := d.fireAt[d.calls*HopSize]
	d.calls++
	return fire
}

func TestDetectStrictlyIncreasing(t *testing.T) {
	data := make([]float32, HopSize*6)
	src := &fakeSource{channels: 1, data: [][]float32{data}}
	det := &fixedHopDetector{fireAt: map[int]bool{HopSize * 1: true, HopSize * 3: true}}

	onsets, err := Detect(det, src, Params{OnsetThreshold: 0.5, SilenceThreshold: -60}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []int{HopSize * 1, HopSize * 3}, frames(onsets))
}

func frames(onsets []Onset) []int {
	out := make([]int, len(onsets))
	for i, o := range onsets {
		out[i] = o.Frame
	}
	return out
}

func TestSequenceRejectsNonIncreasing(t *testing.T) {
	_, err := NewSequence([]Onset{{Frame: 10}, {Frame: 5}})
	assert.ErrorIs(t, err, corerrors.ErrOnsetSequenceCorrupt)

	_, err = NewSequence([]Onset{{Frame: 1}, {Frame: 1}})
	assert.ErrorIs(t, err, corerrors.ErrOnsetSequenceCorrupt)
}

func TestLinkChannelsSumsChannels(t *testing.T) {
	left := []float32{1, 1, 1, 1}
	right := []float32{2, 2, 2, 2}
	src := &fakeSource{channels: 2, data: [][]float32{left, right}}
	got := sampleForHop(src, Params{LinkChannels: true}, 0)
	assert.Equal(t, float32(3), got)
}
