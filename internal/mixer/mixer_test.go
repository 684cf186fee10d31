package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/master"
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

func newMixerWithOneRegion(t *testing.T, nframes int) *Mixer {
	t.Helper()
	group := track.NewSoloGroup()
	seq := monoSeq(t, nframes, 1.0)
	r, err := region.New("r1", "r", seq, 0, nframes, 0)
	assert.NoError(t, err)
	tr := track.New("t1", "track", 44100, group)
	tr.AddRegion(r)

	bus := master.New(44100, group)
	m := New(bus)
	m.SetTracks([]*track.Track{tr})
	m.ResizeIfNecessary(int64(nframes))
	return m
}

func TestStoppedProducesSilence(t *testing.T) {
	m := newMixerWithOneRegion(t, 1000)
	left := make([]float32, 10)
	right := make([]float32, 10)
	m.Process(10, left, right)
	for _, v := range left {
		assert.Equal(t, float32(0), v)
	}
}

func TestPlayAdvancesTransport(t *testing.T) {
	m := newMixerWithOneRegion(t, 1000)
	m.Play()
	left := make([]float32, 100)
	right := make([]float32, 100)
	m.Process(100, left, right)
	assert.Equal(t, int64(100), m.TransportOffset())
	assert.Equal(t, float32(1), left[0])
}

func TestReachingEndStopsAndClamps(t *testing.T) {
	m := newMixerWithOneRegion(t, 1000)
	m.Play()
	m.SetTransportOffset(950)
	left := make([]float32, 100)
	right := make([]float32, 100)
	m.Process(100, left, right)
	assert.Equal(t, int64(1000), m.TransportOffset())
	assert.Equal(t, Stopped, m.State())
}

func TestLoopedTransportWraps(t *testing.T) {
	m := newMixerWithOneRegion(t, 5000)
	assert.NoError(t, m.EnableLoop(1000, 2000))
	m.SetTransportOffset(900)
	m.Play()

	left := make([]float32, 200)
	right := make([]float32, 200)
	m.Process(200, left, right)
	assert.Equal(t, int64(1100), m.TransportOffset())

	left2 := make([]float32, 900)
	right2 := make([]float32, 900)
	m.Process(900, left2, right2)
	off := m.TransportOffset()
	assert.True(t, off >= 1000 && off < 1100, "expected wrapped offset in [1000,1100), got %d", off)
}

func TestEnableLoopRejectsEndNotAfterStart(t *testing.T) {
	m := newMixerWithOneRegion(t, 1000)
	assert.Error(t, m.EnableLoop(500, 500))
}

func TestSeekDoesNotAlterLooping(t *testing.T) {
	m := newMixerWithOneRegion(t, 5000)
	assert.NoError(t, m.EnableLoop(1000, 2000))
	m.SetTransportOffset(1500)
	assert.True(t, m.Looping())
}
