// Package sequence implements AudioSequence: a versioned, interleaved PCM
// sample sequence identified by name/sample-rate/channel-count, backed by a
// piecetable.Table[float32]. Every Region, whether created by region.New,
// SoftCopy or HardCopy, holds a counted reference (Retain/Release) to its
// sequence; SoftLinks are non-owning and never counted.
package sequence

import (
	"sync"
	"sync/atomic"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/piecetable"
)

// SoftLink is a non-owning, human-readable reference to a sequence held by
// a Region. It stores the target's ID only — never a pointer — so it can
// never extend the sequence's lifetime. Resolve it against the owning
// session's registry (Session.Sequence reports ok=false for a target that
// is gone); SoftLinks does not drop such dangling entries from its list.
type SoftLink struct {
	SequenceID string
	Name       string
}

// AudioSequence wraps a piece-table of interleaved samples.
type AudioSequence struct {
	id         string
	sampleRate int
	channels   int
	table      *piecetable.Table[float32]

	refs atomic.Int32

	linksMu sync.Mutex
	links   []SoftLink
}

// New creates a sequence from interleaved PCM samples. len(samples) must be
// a multiple of channels.
func New(id string, sampleRate, channels int, samples []float32) (*AudioSequence, error) {
	if channels <= 0 {
		return nil, corerrors.NewAudioError("channel count must be >= 1")
	}
	if len(samples)%channels != 0 {
		return nil, corerrors.NewAudioError("samples.length must be a multiple of channels")
	}
	return &AudioSequence{
		id:         id,
		sampleRate: sampleRate,
		channels:   channels,
		table:      piecetable.New(samples),
	}, nil
}

// ID returns the sequence's immutable identity used by soft-links.
func (s *AudioSequence) ID() string { return s.id }

// Name returns the sequence's display name (same as ID; sequences are
// addressed by name per the data model).
func (s *AudioSequence) Name() string { return s.id }

// SampleRate returns the sequence's sample rate in Hz.
func (s *AudioSequence) SampleRate() int { return s.sampleRate }

// Channels returns the channel count.
func (s *AudioSequence) Channels() int { return s.channels }

// NFrames returns the frame count: samples.length / channels.
func (s *AudioSequence) NFrames() int { return s.table.Length() / s.channels }

// Retain increments the reference count; called when a Region attaches.
func (s *AudioSequence) Retain() { s.refs.Add(1) }

// Release decrements the reference count and reports whether it reached
// zero (the sequence has no more owning Region and may be dropped by its
// session).
func (s *AudioSequence) Release() bool { return s.refs.Add(-1) <= 0 }

// RefCount returns the current owning-reference count.
func (s *AudioSequence) RefCount() int32 { return s.refs.Load() }

// Sample returns the PCM value at (channel, frame).
func (s *AudioSequence) Sample(channel, frame int) (float32, error) {
	if channel < 0 || channel >= s.channels {
		return 0, corerrors.NewOutOfRange("channel", channel, 0, s.channels-1)
	}
	idx := frame*s.channels + channel
	return s.table.At(idx)
}

// Slice returns a snapshot of the interleaved samples covering
// [frameStart,frameEnd), usable as an insertion source elsewhere.
func (s *AudioSequence) Slice(frameStart, frameEnd int) (piecetable.Snapshot[float32], error) {
	if frameStart < 0 || frameEnd < frameStart || frameEnd > s.NFrames() {
		return piecetable.Snapshot[float32]{}, corerrors.NewOutOfRange("frame range", frameEnd, frameStart, s.NFrames())
	}
	return s.table.Slice(frameStart*s.channels, frameEnd*s.channels)
}

// Insert splices snap into the sequence at frame atFrame.
func (s *AudioSequence) Insert(snap piecetable.Snapshot[float32], atFrame int) error {
	if snap.Length()%s.channels != 0 {
		return corerrors.NewAudioError("inserted samples must align to channel count")
	}
	if atFrame < 0 || atFrame > s.NFrames() {
		return corerrors.NewOutOfRange("insert at frame", atFrame, 0, s.NFrames())
	}
	return s.table.Insert(atFrame*s.channels, snap)
}

// Remove deletes the frame range [frameStart,frameEnd).
func (s *AudioSequence) Remove(frameStart, frameEnd int) error {
	if frameStart < 0 || frameEnd < frameStart || frameEnd > s.NFrames() {
		return corerrors.NewOutOfRange("frame range", frameEnd, frameStart, s.NFrames())
	}
	return s.table.Remove(frameStart*s.channels, frameEnd*s.channels)
}

// Replace atomically substitutes [frameStart,frameEnd) with snap as one
// history entry.
func (s *AudioSequence) Replace(snap piecetable.Snapshot[float32], frameStart, frameEnd int) error {
	if snap.Length()%s.channels != 0 {
		return corerrors.NewAudioError("replacement samples must align to channel count")
	}
	if frameStart < 0 || frameEnd < frameStart || frameEnd > s.NFrames() {
		return corerrors.NewOutOfRange("frame range", frameEnd, frameStart, s.NFrames())
	}
	return s.table.Replace(snap, frameStart*s.channels, frameEnd*s.channels)
}

// AddSoftLink registers a non-owning back-reference to this sequence.
func (s *AudioSequence) AddSoftLink(link SoftLink) {
	s.linksMu.Lock()
	defer s.linksMu.Unlock()
	s.links = append(s.links, link)
}

// SoftLinks returns the sequence's current soft-links. Dangling entries
// (whose target no longer resolves) are the enumerator's responsibility to
// filter; this call returns the raw, possibly-stale list.
func (s *AudioSequence) SoftLinks() []SoftLink {
	s.linksMu.Lock()
	defer s.linksMu.Unlock()
	out := make([]SoftLink, len(s.links))
	copy(out, s.links)
	return out
}

// Undo reverts the most recent edit to this sequence's piece-table.
func (s *AudioSequence) Undo() error { return s.table.Undo() }

// Redo re-applies the most recently undone edit.
func (s *AudioSequence) Redo() error { return s.table.Redo() }

// Snapshot returns the current logical sample sequence. The audio thread
// reads this once at the top of each process call and holds that snapshot
// for the call's duration, per the core's publication rule.
func (s *AudioSequence) Snapshot() piecetable.Snapshot[float32] { return s.table.Snapshot() }

// Clone returns a new, independent AudioSequence with the same samples —
// the backing for Region.HardCopy.
func (s *AudioSequence) Clone(newID string) *AudioSequence {
	return &AudioSequence{
		id:         newID,
		sampleRate: s.sampleRate,
		channels:   s.channels,
		table:      piecetable.New(s.table.Snapshot().Materialize()),
	}
}
