// Package master implements MasterBus: the final summation point for all
// track outputs, carrying its own fader gain and peak meters, and the
// session-wide solo-active flag.
package master

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/nymdaw/nymdaw-core/internal/meter"
	"github.com/nymdaw/nymdaw-core/internal/track"
)

// Bus sums every track's mixed output into a single stereo pair, applies a
// master fader gain, and feeds a master peak meter.
type Bus struct {
	sampleRate  int
	faderGainDB atomic.Int64

	soloGroup *track.SoloGroup
	meters    *meter.Stereo

	scratchLeft, scratchRight []float32
}

// New creates a MasterBus sharing soloGroup with the tracks it sums.
func New(sampleRate int, soloGroup *track.SoloGroup) *Bus {
	return &Bus{sampleRate: sampleRate, soloGroup: soloGroup, meters: meter.NewStereo()}
}

func (b *Bus) FaderGainDB() float64 {
	return math.Float64frombits(uint64(b.faderGainDB.Load()))
}

// SetFaderGainDB sets the master fader gain in dBFS.
func (b *Bus) SetFaderGainDB(db float64) {
	b.faderGainDB.Store(int64(math.Float64bits(db)))
}

// Meters returns the master peak meter pair.
func (b *Bus) Meters() *meter.Stereo { return b.meters }

// SoloActive reports the session-wide solo flag: true when any track has
// solo enabled, meaning non-soloed tracks contribute silence.
func (b *Bus) SoloActive() bool {
	return b.soloGroup != nil && b.soloGroup.Active()
}

// Sum mixes every track in tracks for bufNFrames frames starting at
// offsetFrames, sums them, and applies the master fader, writing the
// result into outLeft/outRight. Called from the real-time thread; the
// scratch buffers are reused across calls to avoid allocation.
func (b *Bus) Sum(tracks []*track.Track, offsetFrames, bufNFrames int, outLeft, outRight []float32) {
	if cap(b.scratchLeft) < bufNFrames {
		b.scratchLeft = make([]float32, bufNFrames)
		b.scratchRight = make([]float32, bufNFrames)
	}
	sl := b.scratchLeft[:bufNFrames]
	sr := b.scratchRight[:bufNFrames]

	for i := 0; i < bufNFrames; i++ {
		outLeft[i] = 0
		outRight[i] = 0
	}
	for _, t := range tracks {
		t.Mix(offsetFrames, bufNFrames, sl, sr)
		for i := 0; i < bufNFrames; i++ {
			outLeft[i] += sl[i]
			outRight[i] += sr[i]
		}
	}

	factor := float32(math.Pow(10, b.FaderGainDB()/20))
	var peakL, peakR float32
	for i := 0; i < bufNFrames; i++ {
		outLeft[i] *= factor
		outRight[i] *= factor
		if a := abs32(outLeft[i]); a > peakL {
			peakL = a
		}
		if a := abs32(outRight[i]); a > peakR {
			peakR = a
		}
	}

	elapsed := time.Duration(0)
	if b.sampleRate > 0 {
		elapsed = time.Duration(float64(bufNFrames) / float64(b.sampleRate) * float64(time.Second))
	}
	b.meters.Update(peakL, peakR, elapsed)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
