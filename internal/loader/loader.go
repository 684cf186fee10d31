// Package loader implements the file-loader contract: decoding an audio
// file on disk into a PCMBuffer the session can wrap in an AudioSequence.
// The format-specific decoders themselves are out of the core's scope; only
// a WAV path is wired here, the one format the retrieved stack carries a
// decoder for (FLAC/OGG/AIFF/CAF are advertised by the contract but require
// decoders this module does not depend on).
package loader

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

// ConverterQuality selects a sample-rate-conversion tradeoff when a loaded
// file's rate doesn't match the mixer's.
type ConverterQuality int

const (
	Best ConverterQuality = iota
	Medium
	Fastest
)

// PCMBuffer is a fully-decoded, in-memory audio file: interleaved float32
// samples in [-1, 1], ready to seed an AudioSequence.
type PCMBuffer struct {
	Name       string
	SampleRate int
	Channels   int
	Samples    []float32
}

// ResampleDialog is invoked when a file's sample rate disagrees with the
// target rate; returning ok=false cancels the load.
type ResampleDialog func(originalSR, newSR int) (quality ConverterQuality, ok bool)

// FileLoader decodes a path into a PCMBuffer.
type FileLoader interface {
	Load(path string, targetSampleRate int, resample ResampleDialog) (PCMBuffer, error)
}

// DefaultLoader decodes WAV files via go-audio/wav.
type DefaultLoader struct{}

// Load implements FileLoader for WAV input. If the file's sample rate
// differs from targetSampleRate (and targetSampleRate > 0), resample is
// consulted; declining cancels the load with corerrors.ErrCancelled.
func (DefaultLoader) Load(path string, targetSampleRate int, resample ResampleDialog) (PCMBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCMBuffer{}, corerrors.NewFileError(path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return PCMBuffer{}, corerrors.NewFileError(path, fmt.Errorf("not a valid WAV file"))
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCMBuffer{}, corerrors.NewFileError(path, fmt.Errorf("decode PCM: %w", err))
	}

	sourceSR := buf.Format.SampleRate
	if targetSampleRate > 0 && sourceSR != targetSampleRate && resample != nil {
		if _, ok := resample(sourceSR, targetSampleRate); !ok {
			return PCMBuffer{}, corerrors.ErrCancelled
		}
		// The actual resampling DSP is an external collaborator (§6); the
		// core only negotiates whether the load proceeds.
	}

	samples := make([]float32, len(buf.Data))
	max := float32(int(1) << uint(buf.SourceBitDepth-1))
	if max == 0 {
		max = 1
	}
	for i, v := range buf.Data {
		samples[i] = float32(v) / max
	}

	return PCMBuffer{
		Name:       path,
		SampleRate: sourceSR,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}
