// Package session implements CoreSession: the top-level owner of tracks,
// sequences, and markers, and the orchestrator of arrange-wide undo/redo,
// copy/paste, and the Arrange vs EditRegion mode split described by the
// core's data model.
package session

import (
	"sync"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/history"
	"github.com/nymdaw/nymdaw-core/internal/master"
	"github.com/nymdaw/nymdaw-core/internal/mixer"
	"github.com/nymdaw/nymdaw-core/internal/region"
	"github.com/nymdaw/nymdaw-core/internal/sequence"
	"github.com/nymdaw/nymdaw-core/internal/track"
)

// Mode records whether the user is arranging or editing a region. Session
// does not route undo by it: UndoArrange always targets the arrange
// history, and a region's own history is undone through Region.UndoEdit.
type Mode int

const (
	Arrange Mode = iota
	EditRegion
)

// Marker is a named jump target on the timeline, keyed by a single
// character for quick recall.
type Marker struct {
	OffsetFrames int64
	Name         string
}

// ArrangeStateKind discriminates the five arms of ArrangeState. Each kind
// populates exactly one of ArrangeState's payload fields; never mix two
// kinds' semantics into one snapshot.
type ArrangeStateKind int

const (
	KindMasterGain ArrangeStateKind = iota
	KindTracks
	KindSelectedTrack
	KindSelectedRegions
	KindRegionEdit
)

// ArrangeState is a tagged-union snapshot of the mutated subset of session
// state, captured for the session-level arrange history. For KindTracks,
// Tracks holds the full ordered track list itself (not just IDs), so a
// removed track's object — with whatever regions it still holds — survives
// in the history and can be restored verbatim by undo.
type ArrangeState struct {
	Kind ArrangeStateKind

	MasterGainDB float64

	Tracks []*track.Track

	SelectedTrackID string

	SelectedRegionIDs []string

	RegionEdit region.EditState
}

// CopyMode selects whether a paste shares the source sequence (Soft) or
// clones it (Hard).
type CopyMode int

const (
	CopySoft CopyMode = iota
	CopyHard
)

type clipboardEntry struct {
	region *region.Region
	offset int // original global offset, used to compute paste translation
}

// Session is the top-level owner of every Track, AudioSequence, and Marker
// in an editing project. It is not itself real-time safe: all mutation
// happens on the UI thread, publishing snapshots the Mixer's audio thread
// can read lock-free.
type Session struct {
	mu sync.Mutex

	tracks    []*track.Track
	soloGroup *track.SoloGroup
	sequences map[string]*sequence.AudioSequence
	markers   map[byte]Marker

	mixer *mixer.Mixer
	bus   *master.Bus

	mode           Mode
	arrangeHistory *history.StateHistory[ArrangeState]

	clipboardMode CopyMode
	clipboard     []clipboardEntry
}

// New creates an empty Session driving its own Mixer/MasterBus pair at the
// given sample rate.
func New(sampleRate int) *Session {
	group := track.NewSoloGroup()
	bus := master.New(sampleRate, group)
	m := mixer.New(bus)
	s := &Session{
		soloGroup:      group,
		sequences:      make(map[string]*sequence.AudioSequence),
		markers:        make(map[byte]Marker),
		mixer:          m,
		bus:            bus,
		arrangeHistory: history.New[ArrangeState](0),
	}
	s.arrangeHistory.AppendState(ArrangeState{Kind: KindTracks}, "init")
	return s
}

// Mixer returns the session's Mixer/Timeline, the object the audio driver
// calls Process on.
func (s *Session) Mixer() *mixer.Mixer { return s.mixer }

// Mode returns the current editing mode.
func (s *Session) Mode() Mode { return s.mode }

// SetMode switches between Arrange and EditRegion. It only records the
// mode; it does not change what UndoArrange/RedoArrange act on.
func (s *Session) SetMode(m Mode) { s.mode = m }

// AddSequence registers an AudioSequence with the session so it can be
// referenced by ID (e.g. for soft-link resolution).
func (s *Session) AddSequence(seq *sequence.AudioSequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[seq.ID()] = seq
}

// Sequence resolves a sequence by ID, or ok=false if none is registered
// (e.g. a dangling soft-link).
func (s *Session) Sequence(id string) (*sequence.AudioSequence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[id]
	return seq, ok
}

// AddTrack appends a new track owned by the session and publishes the new
// track list to the Mixer.
func (s *Session) AddTrack(t *track.Track) {
	s.mu.Lock()
	s.tracks = append(s.tracks, t)
	tracks := append([]*track.Track(nil), s.tracks...)
	s.mu.Unlock()

	s.mixer.SetTracks(tracks)
	s.pushArrange(ArrangeState{Kind: KindTracks, Tracks: tracks}, "add-track")
}

// RemoveTrack detaches the track with the given ID from the live session and
// republishes the track list. The Track object itself is not destroyed: the
// arrange-history entry pushed just before this removal still holds it, so
// UndoArrange can restore it with its regions intact. Each region's
// reference on its sequence is released immediately, pruning any sequence
// that drops to zero references from the session's by-ID registry; this
// only affects soft-link/ID lookup, never the region's own playable samples,
// so a later UndoArrange still restores fully audible regions.
func (s *Session) RemoveTrack(id string) {
	s.mu.Lock()
	idx := -1
	for i, t := range s.tracks {
		if t.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.tracks[idx]
	s.tracks = append(s.tracks[:idx], s.tracks[idx+1:]...)
	tracks := append([]*track.Track(nil), s.tracks...)
	s.mu.Unlock()

	s.mixer.SetTracks(tracks)
	s.pushArrange(ArrangeState{Kind: KindTracks, Tracks: tracks}, "remove-track")
	s.pruneDetachedSequences(removed)
}

// pruneDetachedSequences releases t's regions' references on the sequences
// they hold and drops any sequence whose reference count reaches zero from
// the session's registry.
func (s *Session) pruneDetachedSequences(t *track.Track) {
	for _, r := range t.Regions() {
		seqID := r.Sequence().ID()
		if r.Close() {
			s.mu.Lock()
			delete(s.sequences, seqID)
			s.mu.Unlock()
		}
	}
}

// Tracks returns a snapshot of the current track list.
func (s *Session) Tracks() []*track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*track.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// NewTrack is a convenience constructor that builds a Track sharing the
// session's solo group and registers it.
func (s *Session) NewTrack(id, name string, sampleRate int) *track.Track {
	t := track.New(id, name, sampleRate, s.soloGroup)
	s.AddTrack(t)
	return t
}

func (s *Session) pushArrange(st ArrangeState, description string) {
	s.arrangeHistory.AppendState(st, description)
}

// applyArrange re-publishes an ArrangeState snapshot onto live session
// state. Called after both Undo and Redo, since either direction lands on
// a concrete snapshot that must become the session's current reality.
func (s *Session) applyArrange(st ArrangeState) {
	switch st.Kind {
	case KindTracks:
		s.mu.Lock()
		s.tracks = append([]*track.Track(nil), st.Tracks...)
		tracks := append([]*track.Track(nil), s.tracks...)
		s.mu.Unlock()
		s.mixer.SetTracks(tracks)
	case KindMasterGain:
		s.bus.SetFaderGainDB(st.MasterGainDB)
	case KindSelectedTrack, KindSelectedRegions, KindRegionEdit:
		// Pure UI-selection bookkeeping: nothing in the audio-facing
		// session state depends on these, so there is nothing to replay.
	}
}

// UndoArrange reverts the most recent arrange-level change and re-applies
// the resulting snapshot to live session state. It only ever targets
// session-wide state (track order, selection, master gain), never a
// region's own edit history, keeping the two undo stacks independent.
func (s *Session) UndoArrange() (ArrangeState, error) {
	st, err := s.arrangeHistory.Undo()
	if err != nil {
		return ArrangeState{}, err
	}
	s.applyArrange(st)
	return st, nil
}

// RedoArrange re-applies the most recently undone arrange-level change, and
// then re-applies its snapshot to live session state.
func (s *Session) RedoArrange() (ArrangeState, error) {
	st, err := s.arrangeHistory.Redo()
	if err != nil {
		return ArrangeState{}, err
	}
	s.applyArrange(st)
	return st, nil
}

// SetMasterGainDB sets the master fader and records an arrange-history entry.
func (s *Session) SetMasterGainDB(db float64) {
	s.bus.SetFaderGainDB(db)
	s.pushArrange(ArrangeState{Kind: KindMasterGain, MasterGainDB: db}, "master-gain")
}

// SetMarker records a jump target keyed by a single character.
func (s *Session) SetMarker(key byte, name string, offsetFrames int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[key] = Marker{OffsetFrames: offsetFrames, Name: name}
}

// JumpToMarker seeks the transport to the marker keyed by key.
func (s *Session) JumpToMarker(key byte) error {
	s.mu.Lock()
	m, ok := s.markers[key]
	s.mu.Unlock()
	if !ok {
		return corerrors.NewOutOfRange("marker", int(key), 0, 0)
	}
	s.mixer.SetTransportOffset(m.OffsetFrames)
	return nil
}

// Copy stages regions for a later Paste, recording whether the paste should
// share sequences (soft) or clone them (hard).
func (s *Session) Copy(regions []*region.Region, mode CopyMode) {
	s.clipboardMode = mode
	s.clipboard = s.clipboard[:0]
	for _, r := range regions {
		s.clipboard = append(s.clipboard, clipboardEntry{region: r, offset: r.Offset()})
	}
}

// Paste materializes the staged clipboard onto targetTrack, translating
// every pasted region by the delta between the earliest copied region's
// offset and atOffset, and extends the Mixer's last_frame as needed. For
// hard copies, each pasted region gets an independently cloned sequence.
func (s *Session) Paste(targetTrack *track.Track, atOffset int64, idPrefix string) ([]*region.Region, error) {
	if len(s.clipboard) == 0 {
		return nil, nil
	}
	earliest := s.clipboard[0].offset
	for _, e := range s.clipboard[1:] {
		if e.offset < earliest {
			earliest = e.offset
		}
	}
	delta := int(atOffset) - earliest

	pasted := make([]*region.Region, 0, len(s.clipboard))
	for _, e := range s.clipboard {
		newID := idPrefix + e.region.ID()
		var cp *region.Region
		if s.clipboardMode == CopyHard {
			cp = e.region.HardCopy(newID, newID+"-seq")
			s.AddSequence(cp.Sequence())
		} else {
			cp = e.region.SoftCopy(newID)
		}
		cp.SetOffset(e.offset + delta)
		targetTrack.AddRegion(cp)
		pasted = append(pasted, cp)
		s.mixer.ResizeIfNecessary(int64(cp.GlobalEnd()))
	}
	s.pushArrange(ArrangeState{Kind: KindSelectedRegions, SelectedRegionIDs: regionIDs(pasted)}, "paste")
	return pasted, nil
}

func regionIDs(regions []*region.Region) []string {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID()
	}
	return ids
}
