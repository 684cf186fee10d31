// Package onset detects transients in a PCM stream, used as anchors for
// three-point time-stretch. The actual spectral-flux/FFT engine is treated
// as a black box behind the Detector interface; this package owns the
// hop/window plumbing, channel-link/silence-threshold handling, and the
// strictly-increasing invariant that callers depend on.
package onset

import (
	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/progress"
)

const (
	WindowSize = 512
	HopSize    = 256
)

// Onset is a detected transient, local to the sequence it was found in.
type Onset struct {
	Frame int
	// LeftSource/RightSource are optional persistent snapshots of the
	// sequence slices adjacent to this onset, captured so a later
	// three-point stretch can be replayed on undo. They are never live
	// references into a mutable buffer.
	LeftSource, RightSource []float32
}

// Detector is the black-box transient detector: given one fixed-size hop
// window it reports whether a transient occurred within it. Hop is always
// HopSize samples; Window is always WindowSize samples (the last window in
// a stream may be short-padded with silence by the caller).
type Detector interface {
	// DetectHop receives one window of samples (length WindowSize, single
	// channel) and returns true if a transient onset falls within the
	// hop's HopSize-sample stride.
	DetectHop(window []float32, onsetThreshold, silenceThresholdDB float64) bool
}

// Params configures a detection run.
type Params struct {
	OnsetThreshold   float64 // in [0,1]
	SilenceThreshold float64 // in [-90,0] dBFS
	LinkChannels     bool
	Channel          int // used only when !LinkChannels
}

// Source is the minimal read interface onset detection needs.
type Source interface {
	NFrames() int
	Channels() int
	Sample(channel, frame int) (float32, error)
}

// Detect runs det over src's frames and returns a strictly-increasing,
// local-frame-indexed onset sequence. It is cancelable via report.
func Detect(det Detector, src Source, p Params, report *progress.Reporter) ([]Onset, error) {
	nframes := src.NFrames()
	var onsets []Onset
	last := -1

	hopWindow := make([]float32, WindowSize)
	totalHops := ceilDiv(nframes, HopSize)

	for hop := 0; hop*HopSize < nframes; hop++ {
		if report != nil && !report.Report("onset", float64(hop)/float64(max(totalHops, 1))) {
			return nil, corerrors.ErrCancelled
		}
		start := hop * HopSize
		for i := 0; i < WindowSize; i++ {
			frame := start + i
			if frame >= nframes {
				hopWindow[i] = 0
				continue
			}
			hopWindow[i] = sampleForHop(src, p, frame)
		}
		if det.DetectHop(hopWindow, p.OnsetThreshold, p.SilenceThreshold) {
			frame := start
			if frame <= last {
				return nil, corerrors.ErrOnsetSequenceCorrupt
			}
			left := materializeRange(src, max(frame-WindowSize, 0), frame)
			right := materializeRange(src, frame, min(frame+WindowSize, nframes))
			onsets = append(onsets, Onset{Frame: frame, LeftSource: left, RightSource: right})
			last = frame
		}
	}
	return onsets, nil
}

func sampleForHop(src Source, p Params, frame int) float32 {
	if p.LinkChannels {
		var sum float32
		for ch := 0; ch < src.Channels(); ch++ {
			v, err := src.Sample(ch, frame)
			if err == nil {
				sum += v
			}
		}
		return sum
	}
	v, err := src.Sample(p.Channel, frame)
	if err != nil {
		return 0
	}
	return v
}

// materializeRange reads interleaved samples for [start,end) across every
// channel, for persisting alongside a detected onset.
func materializeRange(src Source, start, end int) []float32 {
	if end <= start {
		return nil
	}
	channels := src.Channels()
	out := make([]float32, 0, (end-start)*channels)
	for frame := start; frame < end; frame++ {
		for ch := 0; ch < channels; ch++ {
			v, err := src.Sample(ch, frame)
			if err != nil {
				v = 0
			}
			out = append(out, v)
		}
	}
	return out
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Sequence maintains an ordered, strictly-increasing set of onsets for one
// region's detached selection and owns them exclusively.
type Sequence struct {
	onsets []Onset
}

// NewSequence validates that onsets are strictly increasing before
// accepting them.
func NewSequence(onsets []Onset) (*Sequence, error) {
	for i := 1; i < len(onsets); i++ {
		if onsets[i].Frame <= onsets[i-1].Frame {
			return nil, corerrors.ErrOnsetSequenceCorrupt
		}
	}
	cp := append([]Onset(nil), onsets...)
	return &Sequence{onsets: cp}, nil
}

// Onsets returns the current ordered onset list.
func (s *Sequence) Onsets() []Onset { return s.onsets }

// Replace swaps the full onset set (used when link-channels toggles: per
// spec, enabling link-channels replaces the linked onset set rather than
// merging with the per-channel sets, and disabling it recomputes per-channel
// sets from scratch).
func (s *Sequence) Replace(onsets []Onset) error {
	next, err := NewSequence(onsets)
	if err != nil {
		return err
	}
	s.onsets = next.onsets
	return nil
}
