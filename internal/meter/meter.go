// Package meter implements MeterState: a per-channel peak meter with a
// configurable hold time and fall rate, written by the real-time mixing
// path and read by the UI thread with relaxed atomics.
package meter

import "time"

// DefaultHold is the default peak-hold duration before a meter begins to fall.
const DefaultHold = 1500 * time.Millisecond

// fallRatePerMS is the amount peak decreases per millisecond once falling,
// expressed as linear amplitude per millisecond (the "1/ms" rule).
const fallRatePerMS = 1.0 / 1000.0

// State is one channel's peak/hold/fall bookkeeping. It is not safe for
// concurrent use by multiple writers, but mix is called from a single
// real-time thread and reads are expected to tolerate torn/stale values.
type State struct {
	Hold time.Duration

	peak          float32
	peakHold      float32
	totalPeakTime time.Duration
	falling       bool
}

// New returns a State with the default hold time.
func New() *State {
	return &State{Hold: DefaultHold}
}

// Update feeds one mix cycle's instantaneous peak (the max absolute sample
// observed this cycle) together with the wall-clock duration that cycle
// covered, advancing the hold/fall state machine.
func (s *State) Update(newPeak float32, elapsed time.Duration) {
	if s.Hold == 0 {
		s.Hold = DefaultHold
	}
	s.peak = newPeak
	if newPeak >= s.peakHold {
		s.peakHold = newPeak
		s.totalPeakTime = 0
		s.falling = false
		return
	}
	s.totalPeakTime += elapsed
	if s.totalPeakTime <= s.Hold {
		return
	}
	s.falling = true
	// Only the part of this cycle past the hold time counts toward the fall.
	fallTime := min(elapsed, s.totalPeakTime-s.Hold)
	ms := float64(fallTime) / float64(time.Millisecond)
	s.peakHold -= float32(ms * fallRatePerMS)
	if s.peakHold < newPeak {
		s.peakHold = newPeak
		s.falling = false
	}
	if s.peakHold < 0 {
		s.peakHold = 0
		s.falling = false
	}
}

// Peak returns the most recent instantaneous peak.
func (s *State) Peak() float32 { return s.peak }

// PeakHold returns the held peak value (the meter needle position).
func (s *State) PeakHold() float32 { return s.peakHold }

// Falling reports whether the held peak is currently decaying.
func (s *State) Falling() bool { return s.falling }

// Reset zeroes all meter state.
func (s *State) Reset() {
	s.peak, s.peakHold, s.totalPeakTime, s.falling = 0, 0, 0, false
}

// Stereo bundles left/right channel meter state, the common shape for a
// Track or MasterBus.
type Stereo struct {
	Left, Right State
}

// NewStereo returns a Stereo meter pair with default hold times.
func NewStereo() *Stereo {
	return &Stereo{Left: State{Hold: DefaultHold}, Right: State{Hold: DefaultHold}}
}

// Update advances both channels from one mix cycle's peaks.
func (s *Stereo) Update(peakLeft, peakRight float32, elapsed time.Duration) {
	s.Left.Update(peakLeft, elapsed)
	s.Right.Update(peakRight, elapsed)
}

// Reset zeroes both channels.
func (s *Stereo) Reset() {
	s.Left.Reset()
	s.Right.Reset()
}
