package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"

	"github.com/nymdaw/nymdaw-core/internal/corerrors"
)

func writeTestWAV(t *testing.T, path string, sampleRate, channels int, values []int) {
	t.Helper()
	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           values,
		SourceBitDepth: 16,
	}
	assert.NoError(t, enc.Write(buf))
	assert.NoError(t, enc.Close())
}

func TestLoadDecodesMonoWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")
	writeTestWAV(t, path, 44100, 1, []int{0, 16384, -16384, 32767})

	l := DefaultLoader{}
	buf, err := l.Load(path, 0, nil)
	assert.NoError(t, err)
	assert.Equal(t, 44100, buf.SampleRate)
	assert.Equal(t, 1, buf.Channels)
	assert.Len(t, buf.Samples, 4)
	assert.InDelta(t, 0.0, buf.Samples[0], 1e-6)
	assert.InDelta(t, 1.0, buf.Samples[3], 1e-3)
}

func TestLoadCancelledOnResampleDecline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.wav")
	writeTestWAV(t, path, 22050, 1, []int{0, 1, 2, 3})

	l := DefaultLoader{}
	_, err := l.Load(path, 44100, func(orig, target int) (ConverterQuality, bool) {
		return Best, false
	})
	assert.ErrorIs(t, err, corerrors.ErrCancelled)
}

func TestLoadMissingFileIsFileError(t *testing.T) {
	l := DefaultLoader{}
	_, err := l.Load("/nonexistent/path.wav", 0, nil)
	assert.ErrorIs(t, err, corerrors.ErrFile)
}
