package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/progress"
)

type fakeSource struct {
	channels int
	data     [][]float32 // [channel][frame]
}

func (f *fakeSource) NFrames() int   { return len(f.data[0]) }
func (f *fakeSource) Channels() int  { return f.channels }
func (f *fakeSource) Sample(ch, fr int) (float32, error) {
	return f.data[ch][fr], nil
}

func TestBuildAndQueryConstantTime(t *testing.T) {
	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(i%21) - 10
	}
	src := &fakeSource{channels: 1, data: [][]float32{data}}

	c, err := Build(src, []int{10, 100}, nil)
	assert.NoError(t, err)

	mm, err := c.Query(0, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, float32(-10), mm.Min)

	mm100, err := c.Query(0, 100, 0)
	assert.NoError(t, err)
	assert.True(t, mm100.Max >= mm.Max)
}

func TestGetCacheIndexNoSuitable(t *testing.T) {
	src := &fakeSource{channels: 1, data: [][]float32{make([]float32, 50)}}
	c, err := Build(src, []int{10, 100}, nil)
	assert.NoError(t, err)
	_, err = c.GetCacheIndex(7)
	assert.Error(t, err)

	idx, err := c.GetCacheIndex(1000)
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestBuildCancellable(t *testing.T) {
	data := make([]float32, 100000)
	src := &fakeSource{channels: 1, data: [][]float32{data}}
	calls := 0
	reporter := progress.NewReporter(func(progress.Update) bool {
		calls++
		return false
	})
	_, err := Build(src, []int{10, 100}, reporter)
	assert.Error(t, err)
	assert.Greater(t, calls, 0)
}
