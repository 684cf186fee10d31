// Package progress carries typed stage/fraction updates for long-running
// tasks (onset detection, waveform recompute, stretch, file load/export)
// across the UI/worker thread boundary. A worker hands each update to a
// callback (Func) and cancellation is that callback returning false. The
// callback runs synchronously on the worker's goroutine; this package owns
// no channel, so a Func that must reach another goroutine forwards the
// update itself.
package progress

// Update is one reported step of a long-running task.
type Update struct {
	Stage    string
	Fraction float64 // in [0,1]
}

// Func is called by a worker with each Update; returning false requests
// cancellation. The worker must observe a false return reasonably soon and
// must not publish partial edits after honoring it.
type Func func(Update) (cont bool)

// Reporter adapts a Func into the shape long operations poll internally:
// Report pushes an update and returns whether to continue; Cancelled is a
// cheap check usable in tight loops without constructing an Update.
type Reporter struct {
	fn        Func
	cancelled bool
}

// NewReporter wraps fn. A nil fn reports unconditionally continue.
func NewReporter(fn Func) *Reporter {
	return &Reporter{fn: fn}
}

// Report delivers stage/fraction and returns true if the task should
// continue. Once cancellation is observed it is sticky: subsequent calls
// always return false without invoking fn again.
func (r *Reporter) Report(stage string, fraction float64) bool {
	if r == nil || r.fn == nil {
		return true
	}
	if r.cancelled {
		return false
	}
	if !r.fn(Update{Stage: stage, Fraction: fraction}) {
		r.cancelled = true
		return false
	}
	return true
}

// Cancelled reports whether a prior Report call observed cancellation.
func (r *Reporter) Cancelled() bool {
	return r != nil && r.cancelled
}
