package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardRejectsDoubleInitialize(t *testing.T) {
	d := NewNullDriver(44100, 512)
	g := Guard(d)
	assert.NoError(t, g.Initialize(func(int, []float32, []float32) {}))
	assert.Error(t, g.Initialize(func(int, []float32, []float32) {}))
}

func TestGuardAllowsReinitializeAfterCleanup(t *testing.T) {
	d := NewNullDriver(44100, 512)
	g := Guard(d)
	assert.NoError(t, g.Initialize(func(int, []float32, []float32) {}))
	assert.NoError(t, g.Cleanup())
	assert.NoError(t, g.Initialize(func(int, []float32, []float32) {}))
}

func TestNullDriverTicksRegisteredCallback(t *testing.T) {
	d := NewNullDriver(44100, 512)
	called := false
	assert.NoError(t, d.Initialize(func(n int, l, r []float32) {
		called = true
		assert.Equal(t, 4, n)
	}))
	d.Tick(4, make([]float32, 4), make([]float32, 4))
	assert.True(t, called)
}
