// Package stretch defines the pitch-preserving time-stretch contract the
// core drives but never implements itself: the DSP engine (phase vocoder or
// similar) is an external, swappable Stretcher. This package owns the
// three-point ratio math used for onset-dragging and a deterministic linear
// resampler used as a test double / last-resort fallback.
package stretch

import "github.com/nymdaw/nymdaw-core/internal/corerrors"

// Stretcher transforms PCM by a ratio, preserving pitch. newLen ==
// len(pcm)*ratio (rounded), channels preserved, interleaved in and out.
type Stretcher interface {
	Stretch(pcm []float32, channels int, ratio float64) (out []float32, err error)
}

// LinearStretcher is a deterministic stand-in for a real phase-vocoder
// engine: it resamples by linear interpolation. It preserves duration
// ratio exactly but not pitch; it exists so the core's three-point-stretch
// plumbing is testable without a real DSP vendor library.
type LinearStretcher struct{}

func (LinearStretcher) Stretch(pcm []float32, channels int, ratio float64) ([]float32, error) {
	if channels <= 0 || len(pcm)%channels != 0 {
		return nil, corerrors.NewAudioError("pcm length must align to channel count")
	}
	if ratio <= 0 {
		return nil, corerrors.NewAudioError("stretch ratio must be > 0")
	}
	inFrames := len(pcm) / channels
	outFrames := int(float64(inFrames)*ratio + 0.5)
	if outFrames < 1 {
		outFrames = 1
	}
	out := make([]float32, outFrames*channels)
	if inFrames == 1 {
		for f := 0; f < outFrames; f++ {
			copy(out[f*channels:(f+1)*channels], pcm[0:channels])
		}
		return out, nil
	}
	for f := 0; f < outFrames; f++ {
		// Map output frame f to a fractional input position.
		pos := float64(f) / float64(max(outFrames-1, 1)) * float64(inFrames-1)
		i0 := int(pos)
		i1 := min(i0+1, inFrames-1)
		frac := pos - float64(i0)
		for ch := 0; ch < channels; ch++ {
			a := pcm[i0*channels+ch]
			b := pcm[i1*channels+ch]
			out[f*channels+ch] = float32(float64(a)*(1-frac) + float64(b)*frac)
		}
	}
	return out, nil
}

// RatioForThreePoint computes the (firstHalf, secondHalf) ratios for a
// three-point stretch per spec: first-half ratio = (dest-start)/(src-start)
// when src>start else 0; second-half ratio = (end-dest)/(end-src) when
// end>src else 0.
func RatioForThreePoint(start, src, dest, end int) (first, second float64) {
	if src > start {
		first = float64(dest-start) / float64(src-start)
	}
	if end > src {
		second = float64(end-dest) / float64(end-src)
	}
	return
}
