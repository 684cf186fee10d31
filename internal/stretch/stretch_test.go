package stretch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearStretcherPreservesEndpoints(t *testing.T) {
	pcm := make([]float32, 100)
	for i := range pcm {
		pcm[i] = float32(i)
	}
	out, err := LinearStretcher{}.Stretch(pcm, 1, 1.5)
	assert.NoError(t, err)
	assert.Equal(t, pcm[0], out[0])
	assert.Equal(t, pcm[len(pcm)-1], out[len(out)-1])
	assert.InDelta(t, 150, len(out), 1)
}

func TestLinearStretcherRejectsMisalignedChannels(t *testing.T) {
	_, err := LinearStretcher{}.Stretch([]float32{1, 2, 3}, 2, 1.0)
	assert.Error(t, err)
}

func TestRatioForThreePoint(t *testing.T) {
	first, second := RatioForThreePoint(0, 5000, 6000, 8000)
	assert.InDelta(t, 1.2, first, 1e-9)
	assert.InDelta(t, 2.0/3.0, second, 1e-9)
}

func TestRatioForThreePointDegenerate(t *testing.T) {
	first, second := RatioForThreePoint(100, 100, 150, 100)
	assert.Equal(t, 0.0, first)
	assert.Equal(t, 0.0, second)
}
