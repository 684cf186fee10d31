// Package region implements Region: a windowed, editable view onto an
// AudioSequence placed at a global frame offset on a Track. Region owns no
// samples itself; every sample-mutating operation delegates to the
// underlying AudioSequence's piece-table, while Region keeps its own
// parallel edit history over its *viewport* state (slice bounds, offset,
// subregion selection) per the core's two-history design.
package region

import (
	"math"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/history"
	"github.com/nymdaw/nymdaw-core/internal/piecetable"
	"github.com/nymdaw/nymdaw-core/internal/progress"
	"github.com/nymdaw/nymdaw-core/internal/sequence"
	"github.com/nymdaw/nymdaw-core/internal/stretch"
)

// MinSliceWidth is the minimum non-empty visible width a Region may shrink to.
const MinSliceWidth = 1

// EditState is the per-Region undo/redo payload: a snapshot of the
// region's viewport, captured alongside (but separate from) the
// underlying sequence's own piece-table history.
type EditState struct {
	SliceStart, SliceEnd int
	Offset               int
	SelStart, SelEnd     int // subregion selection; SelEnd < SelStart means "no selection"
	Mute                 bool
	// SampleEdit marks that reaching this state also involved a mutation
	// of the underlying AudioSequence's piece-table, so undoing past it
	// must also pop one entry from the sequence's own undo stack to keep
	// the two histories in lockstep.
	SampleEdit bool
}

// InvalidateFunc is called after any sample-mutating operation so an
// observer (typically the owning Track/Session) can drop or recompute a
// WaveformCache. It is never called from the audio thread.
type InvalidateFunc func()

// Region is a windowed view onto an AudioSequence.
type Region struct {
	id   string
	name string
	seq  *sequence.AudioSequence
	soft bool // true if created by SoftCopy (seq is shared with the source region; the reference is still retained)

	sliceStart, sliceEnd int
	offset               int
	mute                 bool
	selStart, selEnd     int

	editHistory *history.StateHistory[EditState]
	onInvalidate InvalidateFunc
}

// New creates a Region attached to seq, owning a reference to it (hard
// attach). sliceStart/sliceEnd are frames local to seq.
func New(id, name string, seq *sequence.AudioSequence, sliceStart, sliceEnd, offset int) (*Region, error) {
	if err := validateSlice(seq, sliceStart, sliceEnd); err != nil {
		return nil, err
	}
	seq.Retain()
	r := &Region{
		id: id, name: name, seq: seq,
		sliceStart: sliceStart, sliceEnd: sliceEnd, offset: offset,
		selStart: 0, selEnd: -1,
		editHistory: history.New[EditState](0),
	}
	r.editHistory.AppendState(r.snapshot(), "create")
	return r, nil
}

func validateSlice(seq *sequence.AudioSequence, start, end int) error {
	if start < 0 || end < start || end > seq.NFrames() {
		return corerrors.NewOutOfRange("slice range", end, start, seq.NFrames())
	}
	return nil
}

func (r *Region) snapshot() EditState {
	return EditState{
		SliceStart: r.sliceStart, SliceEnd: r.sliceEnd, Offset: r.offset,
		SelStart: r.selStart, SelEnd: r.selEnd, Mute: r.mute,
	}
}

func (r *Region) restore(s EditState) {
	r.sliceStart, r.sliceEnd, r.offset = s.SliceStart, s.SliceEnd, s.Offset
	r.selStart, r.selEnd, r.mute = s.SelStart, s.SelEnd, s.Mute
}

func (r *Region) push(description string) {
	r.pushTagged(description, false)
}

func (r *Region) pushTagged(description string, sampleEdit bool) {
	s := r.snapshot()
	s.SampleEdit = sampleEdit
	r.editHistory.AppendState(s, description)
}

// ID, Name, Mute, Sequence, SliceStart, SliceEnd, Offset, NFrames accessors.
func (r *Region) ID() string                          { return r.id }
func (r *Region) Name() string                         { return r.name }
func (r *Region) Mute() bool                           { return r.mute }
func (r *Region) SetMute(m bool)                       { r.mute = m; r.push("mute") }
func (r *Region) Sequence() *sequence.AudioSequence    { return r.seq }
func (r *Region) SliceStart() int                      { return r.sliceStart }
func (r *Region) SliceEnd() int                        { return r.sliceEnd }
func (r *Region) Offset() int                          { return r.offset }
func (r *Region) NFrames() int                         { return r.sliceEnd - r.sliceStart }
func (r *Region) GlobalEnd() int                        { return r.offset + r.NFrames() }
func (r *Region) SetOnInvalidate(f InvalidateFunc)      { r.onInvalidate = f }

// SetOffset moves the region's placement on the timeline without touching
// samples.
func (r *Region) SetOffset(offset int) {
	r.offset = offset
	r.push("move")
}

// Select sets the subregion selection, local to the region's visible
// window ([0, NFrames())). StretchSubregion moves the selection to the
// stretched range.
func (r *Region) Select(start, end int) error {
	if start < 0 || end < start || end > r.NFrames() {
		return corerrors.NewOutOfRange("selection", end, start, r.NFrames())
	}
	r.selStart, r.selEnd = start, end
	r.push("select")
	return nil
}

// Selection returns the current subregion selection; ok is false if none.
func (r *Region) Selection() (start, end int, ok bool) {
	if r.selEnd < r.selStart {
		return 0, 0, false
	}
	return r.selStart, r.selEnd, true
}

// ClearSelection removes the subregion selection.
func (r *Region) ClearSelection() {
	r.selStart, r.selEnd = 0, -1
	r.push("clear-selection")
}

// absRange maps a region-local frame range to sequence-absolute frames.
func (r *Region) absRange(frameStart, frameEnd int) (int, int, error) {
	if frameStart < 0 || frameEnd < frameStart || frameEnd > r.NFrames() {
		return 0, 0, corerrors.NewOutOfRange("frame range", frameEnd, frameStart, r.NFrames())
	}
	return r.sliceStart + frameStart, r.sliceStart + frameEnd, nil
}

func (r *Region) invalidate() {
	if r.onInvalidate != nil {
		r.onInvalidate()
	}
}

// Gain multiplies samples in [frameStart,frameEnd) by 10^(db/20).
func (r *Region) Gain(db float64, frameStart, frameEnd int, report *progress.Reporter) error {
	lo, hi, err := r.absRange(frameStart, frameEnd)
	if err != nil {
		return err
	}
	factor := float32(math.Pow(10, db/20))
	return r.transformRange(lo, hi, report, func(samples []float32) {
		for i := range samples {
			samples[i] *= factor
		}
	})
}

// Normalize scales samples in [frameStart,frameEnd) so their peak maps to
// 10^(targetDB/20); a zero peak is a no-op.
func (r *Region) Normalize(targetDB float64, frameStart, frameEnd int, report *progress.Reporter) error {
	lo, hi, err := r.absRange(frameStart, frameEnd)
	if err != nil {
		return err
	}
	snap, err := r.seq.Slice(lo, hi)
	if err != nil {
		return err
	}
	samples := snap.Materialize()
	var peak float32
	for _, s := range samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return nil
	}
	target := float32(math.Pow(10, targetDB/20))
	factor := target / peak
	return r.transformRange(lo, hi, report, func(s []float32) {
		for i := range s {
			s[i] *= factor
		}
	})
}

// Reverse reverses frames within [frameStart,frameEnd) in place (per
// channel ordering preserved within each frame).
func (r *Region) Reverse(frameStart, frameEnd int) error {
	lo, hi, err := r.absRange(frameStart, frameEnd)
	if err != nil {
		return err
	}
	channels := r.seq.Channels()
	return r.transformRange(lo, hi, nil, func(s []float32) {
		nframes := len(s) / channels
		for i, j := 0, nframes-1; i < j; i, j = i+1, j-1 {
			for ch := 0; ch < channels; ch++ {
				s[i*channels+ch], s[j*channels+ch] = s[j*channels+ch], s[i*channels+ch]
			}
		}
	})
}

// FadeIn applies a linear [0,1] amplitude ramp over [frameStart,frameEnd).
func (r *Region) FadeIn(frameStart, frameEnd int) error {
	return r.fade(frameStart, frameEnd, false)
}

// FadeOut applies a linear [1,0] amplitude ramp over [frameStart,frameEnd).
func (r *Region) FadeOut(frameStart, frameEnd int) error {
	return r.fade(frameStart, frameEnd, true)
}

func (r *Region) fade(frameStart, frameEnd int, out bool) error {
	lo, hi, err := r.absRange(frameStart, frameEnd)
	if err != nil {
		return err
	}
	channels := r.seq.Channels()
	return r.transformRange(lo, hi, nil, func(s []float32) {
		nframes := len(s) / channels
		denom := float64(max(nframes-1, 1))
		for f := 0; f < nframes; f++ {
			t := float64(f) / denom
			if out {
				t = 1 - t
			}
			for ch := 0; ch < channels; ch++ {
				s[f*channels+ch] *= float32(t)
			}
		}
	})
}

// transformRange reads [lo,hi), applies fn to the materialized samples, and
// replaces the range atomically as one history entry; it invalidates any
// attached waveform cache afterward.
func (r *Region) transformRange(lo, hi int, report *progress.Reporter, fn func([]float32)) error {
	snap, err := r.seq.Slice(lo, hi)
	if err != nil {
		return err
	}
	samples := snap.Materialize()
	fn(samples)
	if report != nil && !report.Report("edit", 1.0) {
		return corerrors.ErrCancelled
	}
	newSnap, err := toSnapshot(samples)
	if err != nil {
		return err
	}
	if err := r.seq.Replace(newSnap, lo, hi); err != nil {
		return err
	}
	r.pushTagged("transform", true)
	r.invalidate()
	return nil
}

func toSnapshot(samples []float32) (piecetable.Snapshot[float32], error) {
	tmp := piecetable.New(samples)
	return tmp.Slice(0, tmp.Length())
}

// StretchSubregion replaces [frameStart,frameEnd) with its time-stretched
// version and returns the new end frame, which becomes the subregion's new
// end: the selection is set to [frameStart, new end).
func (r *Region) StretchSubregion(frameStart, frameEnd int, ratio float64, s stretch.Stretcher, report *progress.Reporter) (int, error) {
	lo, hi, err := r.absRange(frameStart, frameEnd)
	if err != nil {
		return 0, err
	}
	snap, err := r.seq.Slice(lo, hi)
	if err != nil {
		return 0, err
	}
	out, err := s.Stretch(snap.Materialize(), r.seq.Channels(), ratio)
	if err != nil {
		return 0, err
	}
	if report != nil && !report.Report("stretch", 1.0) {
		return 0, corerrors.ErrCancelled
	}
	newSnap, err := toSnapshot(out)
	if err != nil {
		return 0, err
	}
	if err := r.seq.Replace(newSnap, lo, hi); err != nil {
		return 0, err
	}
	oldLenFrames := hi - lo
	newLenFrames := newSnap.Length() / r.seq.Channels()
	r.sliceEnd += newLenFrames - oldLenFrames
	newLocalEnd := frameStart + newLenFrames
	r.selStart, r.selEnd = frameStart, newLocalEnd
	r.pushTagged("stretch-subregion", true)
	r.invalidate()
	return newLocalEnd, nil
}

// ThreePointOpts configures an onset-drag three-point stretch.
type ThreePointOpts struct {
	LinkChannels bool
	Channel      int
	LeftSource   []float32 // optional persisted snapshot for undo replay
	RightSource  []float32
}

// StretchThreePoint time-stretches [start,src) so src maps to dest, and
// [src,end) so end stays fixed; start and end are invariant.
func (r *Region) StretchThreePoint(start, src, dest, end int, s stretch.Stretcher, opts ThreePointOpts, report *progress.Reporter) error {
	if start < 0 || src < start || dest < start || end < dest || end > r.NFrames() {
		return corerrors.NewOutOfRange("three-point bounds", end, start, r.NFrames())
	}
	firstRatio, secondRatio := stretch.RatioForThreePoint(start, src, dest, end)

	lo, hi, err := r.absRange(start, end)
	if err != nil {
		return err
	}
	channels := r.seq.Channels()
	firstLen := (src - start) * channels

	// When the caller supplies persisted onset snapshots (replaying a
	// redo after the live sequence around the onset has since moved),
	// use those in place of a fresh read off the mutable sequence.
	firstHalf := opts.LeftSource
	secondHalf := opts.RightSource
	if firstHalf == nil || secondHalf == nil {
		snap, err := r.seq.Slice(lo, hi)
		if err != nil {
			return err
		}
		all := snap.Materialize()
		if firstHalf == nil {
			firstHalf = append([]float32(nil), all[:firstLen]...)
		}
		if secondHalf == nil {
			secondHalf = append([]float32(nil), all[firstLen:]...)
		}
	}

	var out []float32
	if firstRatio > 0 {
		stretched, err := s.Stretch(firstHalf, channels, firstRatio)
		if err != nil {
			return err
		}
		out = append(out, stretched...)
	}
	if secondRatio > 0 {
		stretched, err := s.Stretch(secondHalf, channels, secondRatio)
		if err != nil {
			return err
		}
		out = append(out, stretched...)
	}
	if report != nil && !report.Report("three-point-stretch", 1.0) {
		return corerrors.ErrCancelled
	}
	newSnap, err := toSnapshot(out)
	if err != nil {
		return err
	}
	if err := r.seq.Replace(newSnap, lo, hi); err != nil {
		return err
	}
	r.pushTagged("stretch-three-point", true)
	r.invalidate()
	// LinkChannels/Channel identify which onset.Sequence the caller should
	// update after this call; Region has no onset sequence of its own to
	// touch here.
	return nil
}

// ShrinkResult reports the outcome of a shrink operation.
type ShrinkResult struct {
	Success bool
	Delta   int
}

// ShrinkStart moves the visible window's start to correspond to
// newGlobalStart, preserving the minimum width and staying within
// [0, sequence.nframes].
func (r *Region) ShrinkStart(newGlobalStart int) ShrinkResult {
	delta := newGlobalStart - r.offset
	newSliceStart := r.sliceStart + delta
	if newSliceStart < 0 || r.sliceEnd-newSliceStart < MinSliceWidth {
		return ShrinkResult{Success: false}
	}
	r.sliceStart = newSliceStart
	r.offset = newGlobalStart
	r.push("shrink-start")
	return ShrinkResult{Success: true, Delta: delta}
}

// ShrinkEnd moves the visible window's end to correspond to newGlobalEnd.
func (r *Region) ShrinkEnd(newGlobalEnd int) ShrinkResult {
	delta := newGlobalEnd - r.GlobalEnd()
	newSliceEnd := r.sliceEnd + delta
	if newSliceEnd > r.seq.NFrames() || newSliceEnd-r.sliceStart < MinSliceWidth {
		return ShrinkResult{Success: false}
	}
	r.sliceEnd = newSliceEnd
	r.push("shrink-end")
	return ShrinkResult{Success: true, Delta: delta}
}

// InsertLocal splices piece into the region's sequence at a region-local
// frame, a non-destructive splice delegated to AudioSequence.
func (r *Region) InsertLocal(piece piecetable.Snapshot[float32], atLocalFrame int) error {
	if atLocalFrame < 0 || atLocalFrame > r.NFrames() {
		return corerrors.NewOutOfRange("insert at", atLocalFrame, 0, r.NFrames())
	}
	if err := r.seq.Insert(piece, r.sliceStart+atLocalFrame); err != nil {
		return err
	}
	r.sliceEnd += piece.Length() / r.seq.Channels()
	r.pushTagged("insert-local", true)
	r.invalidate()
	return nil
}

// RemoveLocal deletes [start,end) (region-local) via AudioSequence.Remove.
func (r *Region) RemoveLocal(start, end int) error {
	lo, hi, err := r.absRange(start, end)
	if err != nil {
		return err
	}
	if err := r.seq.Remove(lo, hi); err != nil {
		return err
	}
	r.sliceEnd -= hi - lo
	r.pushTagged("remove-local", true)
	r.invalidate()
	return nil
}

// GetSliceLocal returns a piece-table snapshot of [start,end) suitable for
// clipboard use.
func (r *Region) GetSliceLocal(start, end int) (piecetable.Snapshot[float32], error) {
	lo, hi, err := r.absRange(start, end)
	if err != nil {
		return piecetable.Snapshot[float32]{}, err
	}
	return r.seq.Slice(lo, hi)
}

// SoftCopy returns a new Region sharing the same AudioSequence: edits to
// one are visible in the other.
func (r *Region) SoftCopy(newID string) *Region {
	r.seq.Retain()
	cp := &Region{
		id: newID, name: r.name, seq: r.seq, soft: true,
		sliceStart: r.sliceStart, sliceEnd: r.sliceEnd, offset: r.offset,
		selStart: r.selStart, selEnd: r.selEnd,
		editHistory: history.New[EditState](0),
	}
	cp.editHistory.AppendState(cp.snapshot(), "soft-copy")
	return cp
}

// HardCopy returns a new Region with a freshly cloned AudioSequence: no
// sample sharing with the original.
func (r *Region) HardCopy(newID, newSeqID string) *Region {
	clone := r.seq.Clone(newSeqID)
	clone.Retain()
	cp := &Region{
		id: newID, name: r.name, seq: clone,
		sliceStart: r.sliceStart, sliceEnd: r.sliceEnd, offset: r.offset,
		selStart: r.selStart, selEnd: r.selEnd,
		editHistory: history.New[EditState](0),
	}
	cp.editHistory.AppendState(cp.snapshot(), "hard-copy")
	return cp
}

// UndoEdit reverts the most recent region-viewport edit, and also pops the
// sequence's own piece-table undo stack if that edit was a sample
// mutation, keeping the two histories in lockstep.
func (r *Region) UndoEdit() error {
	cur, ok := r.editHistory.Current()
	if !ok {
		return corerrors.ErrNoHistory
	}
	prev, err := r.editHistory.Undo()
	if err != nil {
		return err
	}
	r.restore(prev)
	if cur.SampleEdit {
		return r.seq.Undo()
	}
	return nil
}

// RedoEdit re-applies the most recently undone region-viewport edit, and
// the sample edit it accompanied, if any.
func (r *Region) RedoEdit() error {
	next, err := r.editHistory.Redo()
	if err != nil {
		return err
	}
	r.restore(next)
	if next.SampleEdit {
		return r.seq.Redo()
	}
	return nil
}

// Close releases this region's reference to its sequence. Whoever removes
// the region must call Close (Track.RemoveRegion returns the region for
// that purpose; Session.RemoveTrack closes the removed track's regions).
func (r *Region) Close() bool {
	return r.seq.Release()
}
