// Package mixer implements the Mixer/Timeline: the transport state machine
// (Stopped / Playing / Reached-End), and the per-process-call scheduling of
// frame windows to tracks and the master bus. Process is the real-time
// entry point invoked by the host audio callback; every other method here
// that is safe to call concurrently with it says so.
package mixer

import (
	"sync/atomic"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/master"
	"github.com/nymdaw/nymdaw-core/internal/track"
)

// State is the transport's coarse playback state.
type State int32

const (
	Stopped State = iota
	Playing
	ReachedEnd
)

// Mixer owns the transport and drives MasterBus.Sum across the current
// track list on every process call.
type Mixer struct {
	bus    *master.Bus
	tracks atomic.Pointer[[]*track.Track]

	state          atomic.Int32
	transportFrame atomic.Int64
	lastFrame      atomic.Int64

	looping    atomic.Bool
	loopStart  atomic.Int64
	loopEnd    atomic.Int64
}

// New creates a Mixer driving bus, initially Stopped with an empty track list.
func New(bus *master.Bus) *Mixer {
	m := &Mixer{bus: bus}
	empty := make([]*track.Track, 0)
	m.tracks.Store(&empty)
	return m
}

// Tracks returns the current track snapshot.
func (m *Mixer) Tracks() []*track.Track {
	p := m.tracks.Load()
	out := make([]*track.Track, len(*p))
	copy(out, *p)
	return out
}

// SetTracks atomically publishes a new track list, e.g. after the session
// adds or removes a track.
func (m *Mixer) SetTracks(tracks []*track.Track) {
	cp := make([]*track.Track, len(tracks))
	copy(cp, tracks)
	m.tracks.Store(&cp)
}

// State returns the current transport state.
func (m *Mixer) State() State { return State(m.state.Load()) }

// TransportOffset returns the current playhead, in frames.
func (m *Mixer) TransportOffset() int64 { return m.transportFrame.Load() }

// SetTransportOffset seeks the playhead. Per the core's design this is a
// seek operation only: it never implicitly touches looping, distinct from
// the loop-wrap that Process performs on its own.
func (m *Mixer) SetTransportOffset(frame int64) {
	if frame < 0 {
		frame = 0
	}
	if last := m.lastFrame.Load(); frame > last {
		frame = last
	}
	m.transportFrame.Store(frame)
}

// LastFrame returns the current known timeline extent.
func (m *Mixer) LastFrame() int64 { return m.lastFrame.Load() }

// ResizeIfNecessary grows LastFrame monotonically to cover newEnd.
func (m *Mixer) ResizeIfNecessary(newEnd int64) {
	for {
		cur := m.lastFrame.Load()
		if newEnd <= cur {
			return
		}
		if m.lastFrame.CompareAndSwap(cur, newEnd) {
			return
		}
	}
}

// Play transitions Stopped/Reached-End -> Playing.
func (m *Mixer) Play() {
	m.state.Store(int32(Playing))
}

// Pause transitions Playing -> Stopped, leaving the playhead in place.
func (m *Mixer) Pause() {
	m.state.Store(int32(Stopped))
}

// EnableLoop sets the loop range [start, end); end must be > start.
func (m *Mixer) EnableLoop(start, end int64) error {
	if end <= start {
		return corerrors.NewOutOfRange("loop range", int(end), int(start), int(end))
	}
	m.loopStart.Store(start)
	m.loopEnd.Store(end)
	m.looping.Store(true)
	return nil
}

// DisableLoop turns off looping without altering the stored bounds.
func (m *Mixer) DisableLoop() {
	m.looping.Store(false)
}

// Looping reports whether looping is currently enabled.
func (m *Mixer) Looping() bool { return m.looping.Load() }

// LoopRange returns the current loop bounds.
func (m *Mixer) LoopRange() (start, end int64) {
	return m.loopStart.Load(), m.loopEnd.Load()
}

// Process mixes bufNFrames frames into outLeft/outRight starting at the
// current transport offset, then advances the transport according to the
// state machine: on reaching loop_end while looping, wraps to loop_start;
// on reaching last_frame while not looping, transitions to Stopped and
// clamps the offset. Must be called only from the real-time audio thread.
func (m *Mixer) Process(bufNFrames int, outLeft, outRight []float32) {
	if m.State() != Playing {
		for i := 0; i < bufNFrames; i++ {
			outLeft[i] = 0
			outRight[i] = 0
		}
		return
	}

	offset := m.transportFrame.Load()
	tracks := *m.tracks.Load()
	m.bus.Sum(tracks, int(offset), bufNFrames, outLeft, outRight)

	next := offset + int64(bufNFrames)
	if m.looping.Load() {
		loopEnd := m.loopEnd.Load()
		if next >= loopEnd {
			next = m.loopStart.Load()
		}
		m.transportFrame.Store(next)
		return
	}

	last := m.lastFrame.Load()
	if next >= last {
		m.transportFrame.Store(last)
		// Reached-End is instantaneous: the state machine auto-transitions
		// to Stopped within the same process call, per the core's design.
		m.state.Store(int32(Stopped))
		return
	}
	m.transportFrame.Store(next)
}
