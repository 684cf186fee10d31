// Package track implements Track: an ordered mix bus of Regions with its
// own fader gain, mute, and solo state. Track.Mix is called from the
// real-time audio thread (§5 of the core's concurrency model): it never
// allocates on the steady-state path and reads the region list through an
// atomically-published snapshot pointer rather than a lock.
package track

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/nymdaw/nymdaw-core/internal/meter"
	"github.com/nymdaw/nymdaw-core/internal/region"
)

// SoloGroup is a shared, lock-free tally of how many tracks in a mix have
// solo enabled, so Track.Mix can test "does any solo exist" in O(1) without
// scanning its siblings. All tracks on one Mixer/session share one group.
type SoloGroup struct {
	count atomic.Int32
}

// NewSoloGroup returns an empty solo tally.
func NewSoloGroup() *SoloGroup { return &SoloGroup{} }

// Active reports whether at least one track in the group is soloed.
func (g *SoloGroup) Active() bool { return g.count.Load() > 0 }

func (g *SoloGroup) set(was, now bool) {
	switch {
	case !was && now:
		g.count.Add(1)
	case was && !now:
		g.count.Add(-1)
	}
}

// Track is an ordered set of Regions sharing a mix bus.
type Track struct {
	id, name    string
	sampleRate  int
	faderGainDB atomic.Int64 // bits of a float64, for lock-free reads from Mix
	mute        atomic.Bool
	solo        atomic.Bool
	leftSolo    atomic.Bool
	rightSolo   atomic.Bool

	soloGroup *SoloGroup
	regions   atomic.Pointer[[]*region.Region]
	meters    *meter.Stereo
}

// New creates an empty Track. soloGroup may be shared across every Track on
// the same Mixer so solo state tallies across the whole session.
func New(id, name string, sampleRate int, soloGroup *SoloGroup) *Track {
	t := &Track{id: id, name: name, sampleRate: sampleRate, soloGroup: soloGroup, meters: meter.NewStereo()}
	empty := make([]*region.Region, 0)
	t.regions.Store(&empty)
	return t
}

func (t *Track) ID() string   { return t.id }
func (t *Track) Name() string { return t.name }

// FaderGainDB returns the current fader gain in dBFS.
func (t *Track) FaderGainDB() float64 {
	return math.Float64frombits(uint64(t.faderGainDB.Load()))
}

// SetFaderGainDB sets the fader gain in dBFS; safe to call from the UI
// thread while the audio thread is mixing.
func (t *Track) SetFaderGainDB(db float64) {
	t.faderGainDB.Store(int64(math.Float64bits(db)))
}

func (t *Track) Mute() bool     { return t.mute.Load() }
func (t *Track) SetMute(m bool) { t.mute.Store(m) }

func (t *Track) Solo() bool { return t.solo.Load() }

// SetSolo enables/disables this track's solo flag and updates the shared
// SoloGroup tally.
func (t *Track) SetSolo(s bool) {
	was := t.solo.Swap(s)
	if t.soloGroup != nil {
		t.soloGroup.set(was, s)
	}
}

func (t *Track) LeftSolo() bool  { return t.leftSolo.Load() }
func (t *Track) RightSolo() bool { return t.rightSolo.Load() }

// SetLeftSolo enables left-channel-only monitoring, clearing right-solo
// (at most one of left_solo/right_solo is true at a time).
func (t *Track) SetLeftSolo(v bool) {
	t.leftSolo.Store(v)
	if v {
		t.rightSolo.Store(false)
	}
}

// SetRightSolo enables right-channel-only monitoring, clearing left-solo.
func (t *Track) SetRightSolo(v bool) {
	t.rightSolo.Store(v)
	if v {
		t.leftSolo.Store(false)
	}
}

// Meters returns this track's peak meter pair.
func (t *Track) Meters() *meter.Stereo { return t.meters }

// Regions returns the current region snapshot, oldest-inserted first.
func (t *Track) Regions() []*region.Region {
	p := t.regions.Load()
	out := make([]*region.Region, len(*p))
	copy(out, *p)
	return out
}

// AddRegion appends r, publishing a new region-list snapshot atomically.
func (t *Track) AddRegion(r *region.Region) {
	for {
		old := t.regions.Load()
		next := make([]*region.Region, len(*old)+1)
		copy(next, *old)
		next[len(*old)] = r
		if t.regions.CompareAndSwap(old, &next) {
			return
		}
	}
}

// RemoveRegion detaches the region with the given ID, if present, and
// returns it (so the caller can Close it once no longer in use elsewhere).
func (t *Track) RemoveRegion(id string) *region.Region {
	for {
		old := t.regions.Load()
		idx := -1
		for i, r := range *old {
			if r.ID() == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		next := make([]*region.Region, 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if t.regions.CompareAndSwap(old, &next) {
			return (*old)[idx]
		}
	}
}

func dbToLinear(db float64) float32 {
	return float32(math.Pow(10, db/20))
}

// Mix renders bufNFrames stereo frames starting at the absolute timeline
// offset offsetFrames into outLeft/outRight, which must each have length
// >= bufNFrames. Mix never allocates and never blocks: region lookups use
// the snapshot already published by AddRegion/RemoveRegion.
func (t *Track) Mix(offsetFrames, bufNFrames int, outLeft, outRight []float32) {
	for i := 0; i < bufNFrames; i++ {
		outLeft[i] = 0
		outRight[i] = 0
	}
	if t.mute.Load() {
		return
	}
	if t.soloGroup != nil && t.soloGroup.Active() && !t.solo.Load() {
		return
	}

	regions := *t.regions.Load()
	for _, r := range regions {
		if r.Mute() {
			continue
		}
		mixRegionInto(r, offsetFrames, bufNFrames, outLeft, outRight)
	}

	factor := dbToLinear(t.FaderGainDB())
	var peakL, peakR float32
	for i := 0; i < bufNFrames; i++ {
		outLeft[i] *= factor
		outRight[i] *= factor
		if t.rightSolo.Load() {
			outLeft[i] = 0
		}
		if t.leftSolo.Load() {
			outRight[i] = 0
		}
		if a := abs32(outLeft[i]); a > peakL {
			peakL = a
		}
		if a := abs32(outRight[i]); a > peakR {
			peakR = a
		}
	}

	elapsed := time.Duration(0)
	if t.sampleRate > 0 {
		elapsed = time.Duration(float64(bufNFrames) / float64(t.sampleRate) * float64(time.Second))
	}
	t.meters.Update(peakL, peakR, elapsed)
}

func mixRegionInto(r *region.Region, offsetFrames, bufNFrames int, outLeft, outRight []float32) {
	seq := r.Sequence()
	channels := seq.Channels()
	for i := 0; i < bufNFrames; i++ {
		absFrame := offsetFrames + i
		local := absFrame - r.Offset()
		if local < 0 || local >= r.NFrames() {
			continue // silence outside the region's global window
		}
		seqFrame := r.SliceStart() + local
		left, err := seq.Sample(0, seqFrame)
		if err != nil {
			continue
		}
		var right float32
		if channels > 1 {
			right, err = seq.Sample(1, seqFrame)
			if err != nil {
				right = left
			}
		} else {
			right = left
		}
		outLeft[i] += left
		outRight[i] += right
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
