// Package driver defines the AudioDriver capability the core expects from
// its host: a way to learn the output sample rate and block size, and to
// register the per-block process callback. Per the core's redesign notes,
// this replaces an inheritance-based driver hierarchy with a capability
// interface, and guards against double-construction of the (conceptually
// process-wide singleton) real driver.
package driver

import (
	"sync"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

// ProcessFunc is the real-time callback: nframes frames are requested, and
// must be written into outLeft/outRight (each of length >= nframes).
type ProcessFunc func(nframes int, outLeft, outRight []float32)

// AudioDriver is implemented by whatever host embeds the core (JACK,
// CoreAudio, a test harness). Initialize is called at most once between
// Cleanup calls.
type AudioDriver interface {
	Initialize(cb ProcessFunc) error
	Cleanup() error
	SampleRate() int
	MaxBlockSize() int
}

// guard wraps an AudioDriver so a second Initialize call fails descriptively
// instead of the host accidentally double-initializing process-wide audio
// state.
type guard struct {
	inner AudioDriver
	mu    sync.Mutex
	ready bool
}

// Guard wraps d so repeated Initialize calls after the first return a
// descriptive error rather than re-touching process-wide driver state.
func Guard(d AudioDriver) AudioDriver {
	return &guard{inner: d}
}

func (g *guard) Initialize(cb ProcessFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return corerrors.NewAudioError("audio driver already initialized")
	}
	if err := g.inner.Initialize(cb); err != nil {
		return err
	}
	g.ready = true
	return nil
}

func (g *guard) Cleanup() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ready {
		return nil
	}
	g.ready = false
	return g.inner.Cleanup()
}

func (g *guard) SampleRate() int   { return g.inner.SampleRate() }
func (g *guard) MaxBlockSize() int { return g.inner.MaxBlockSize() }

// NullDriver is a host-less stand-in used by the CLI and tests: it never
// calls back on its own, but exposes Tick so callers can drive the process
// callback synchronously.
type NullDriver struct {
	sampleRate   int
	maxBlockSize int
	cb           ProcessFunc
}

// NewNullDriver returns a NullDriver advertising the given rate/block size.
func NewNullDriver(sampleRate, maxBlockSize int) *NullDriver {
	return &NullDriver{sampleRate: sampleRate, maxBlockSize: maxBlockSize}
}

func (n *NullDriver) Initialize(cb ProcessFunc) error {
	n.cb = cb
	return nil
}

func (n *NullDriver) Cleanup() error { n.cb = nil; return nil }

func (n *NullDriver) SampleRate() int   { return n.sampleRate }
func (n *NullDriver) MaxBlockSize() int { return n.maxBlockSize }

// Tick synchronously invokes the registered process callback for nframes,
// as a real driver would from its own real-time thread.
func (n *NullDriver) Tick(nframes int, outLeft, outRight []float32) {
	if n.cb != nil {
		n.cb(nframes, outLeft, outRight)
	}
}
