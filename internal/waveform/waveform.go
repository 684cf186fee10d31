// Package waveform implements WaveformCache: a multi-resolution min/max
// pyramid per channel supporting constant-time zoom queries, rebuilt in
// full (but cancelably) after any mutation of the underlying sequence.
package waveform

import (
	"github.com/nymdaw/nymdaw-core/internal/corerrors"
	"github.com/nymdaw/nymdaw-core/internal/progress"
)

// MinMax is the peak pair for one bin.
type MinMax struct {
	Min, Max float32
}

// level is the min/max pyramid for a single bin size, one entry per channel.
type level struct {
	binSize int
	bins    [][]MinMax // [channel][bin]
}

// Cache holds one pyramid level per configured bin size, built from raw
// samples for the smallest size and derived from the previous level for
// every larger size (so larger caches never re-scan raw samples).
type Cache struct {
	channels int
	binSizes []int
	levels   []level
}

// DefaultBinSizes matches the spec's defaults (10 and 100 samples).
var DefaultBinSizes = []int{10, 100}

// SampleSource is the minimal read interface the cache needs from a
// sequence: per-channel sample access plus frame count.
type SampleSource interface {
	NFrames() int
	Channels() int
	Sample(channel, frame int) (float32, error)
}

// Build computes a fresh pyramid for src using the given bin sizes (which
// must be ascending and pairwise divisible so larger levels can be derived
// from smaller ones, matching get_cache_index's "largest cache whose bin
// divides requested_bin" contract). Build is cancelable via report.
func Build(src SampleSource, binSizes []int, report *progress.Reporter) (*Cache, error) {
	if len(binSizes) == 0 {
		binSizes = DefaultBinSizes
	}
	c := &Cache{channels: src.Channels(), binSizes: append([]int(nil), binSizes...)}
	nframes := src.NFrames()

	// Smallest level: scan raw samples.
	base := binSizes[0]
	nbins := ceilDiv(nframes, base)
	baseBins := make([][]MinMax, c.channels)
	for ch := 0; ch < c.channels; ch++ {
		baseBins[ch] = make([]MinMax, nbins)
	}
	for bin := 0; bin < nbins; bin++ {
		if bin%256 == 0 && report != nil {
			if !report.Report("waveform", float64(bin)/float64(nbins)) {
				return nil, corerrors.ErrCancelled
			}
		}
		start := bin * base
		end := min(start+base, nframes)
		for ch := 0; ch < c.channels; ch++ {
			mn, mx := float32(0), float32(0)
			first := true
			for f := start; f < end; f++ {
				v, err := src.Sample(ch, f)
				if err != nil {
					continue
				}
				if first {
					mn, mx, first = v, v, false
				} else {
					if v < mn {
						mn = v
					}
					if v > mx {
						mx = v
					}
				}
			}
			baseBins[ch][bin] = MinMax{mn, mx}
		}
	}
	c.levels = append(c.levels, level{binSize: base, bins: baseBins})

	// Larger levels: derive from the immediately smaller level's bins.
	for li := 1; li < len(binSizes); li++ {
		prev := c.levels[li-1]
		factor := binSizes[li] / prev.binSize
		if factor <= 0 || binSizes[li]%prev.binSize != 0 {
			return nil, corerrors.NewAudioError("bin sizes must be ascending and pairwise divisible")
		}
		nb := ceilDiv(len(prev.bins[0]), factor)
		bins := make([][]MinMax, c.channels)
		for ch := 0; ch < c.channels; ch++ {
			bins[ch] = make([]MinMax, nb)
			for b := 0; b < nb; b++ {
				start := b * factor
				end := min(start+factor, len(prev.bins[ch]))
				mn, mx := prev.bins[ch][start].Min, prev.bins[ch][start].Max
				for k := start + 1; k < end; k++ {
					if prev.bins[ch][k].Min < mn {
						mn = prev.bins[ch][k].Min
					}
					if prev.bins[ch][k].Max > mx {
						mx = prev.bins[ch][k].Max
					}
				}
				bins[ch][b] = MinMax{mn, mx}
			}
		}
		c.levels = append(c.levels, level{binSize: binSizes[li], bins: bins})
		if report != nil && !report.Report("waveform", float64(li+1)/float64(len(binSizes))) {
			return nil, corerrors.ErrCancelled
		}
	}
	return c, nil
}

// GetCacheIndex returns the index of the largest cache level whose bin
// size divides requestedBin, or an error if none does.
func (c *Cache) GetCacheIndex(requestedBin int) (int, error) {
	best := -1
	for i, bs := range c.binSizes {
		if requestedBin%bs == 0 {
			if best == -1 || bs > c.binSizes[best] {
				best = i
			}
		}
	}
	if best == -1 {
		return 0, corerrors.NewAudioError("no suitable cache for requested bin size")
	}
	return best, nil
}

// Query returns the min/max covering [offset*binSize, (offset+1)*binSize)
// for the given channel, in constant time.
func (c *Cache) Query(channel, binSize, offset int) (MinMax, error) {
	if channel < 0 || channel >= c.channels {
		return MinMax{}, corerrors.NewOutOfRange("channel", channel, 0, c.channels-1)
	}
	idx, err := c.GetCacheIndex(binSize)
	if err != nil {
		return MinMax{}, err
	}
	lvl := c.levels[idx]
	// offset is in units of the requested bin size; translate to this
	// level's own bin units.
	factor := binSize / lvl.binSize
	lo := offset * factor
	hi := lo + factor
	if lo < 0 || lo >= len(lvl.bins[channel]) {
		return MinMax{}, corerrors.NewOutOfRange("bin offset", offset, 0, len(lvl.bins[channel])/max(factor, 1))
	}
	if hi > len(lvl.bins[channel]) {
		hi = len(lvl.bins[channel])
	}
	mn, mx := lvl.bins[channel][lo].Min, lvl.bins[channel][lo].Max
	for i := lo + 1; i < hi; i++ {
		if lvl.bins[channel][i].Min < mn {
			mn = lvl.bins[channel][i].Min
		}
		if lvl.bins[channel][i].Max > mx {
			mx = lvl.bins[channel][i].Max
		}
	}
	return MinMax{mn, mx}, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
