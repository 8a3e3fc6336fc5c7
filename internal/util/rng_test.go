package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_ZeroSeed(t *testing.T) {
	assert.Equal(t, New(1).Int63(), New(0).Int63())
	assert.Equal(t, New(42).Int63(), New(42).Int63())
}

func TestJitter(t *testing.T) {
	r := New(7)
	for i := 0; i < 200; i++ {
		v := Jitter(r, 10, 0.1)
		assert.GreaterOrEqual(t, v, 9.0)
		assert.LessOrEqual(t, v, 11.0)
	}
	assert.Equal(t, 10.0, Jitter(r, 10, 0))
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, int64(5), SeedFor(5, 0))
	assert.NotEqual(t, SeedFor(5, 1), SeedFor(5, 2))
}
