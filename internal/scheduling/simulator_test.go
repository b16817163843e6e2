package scheduling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulatorAlwaysAvailable(t *testing.T) {
	sim := NewSimulator(nil, WithRate(1))
	for i := 0; i < 20; i++ {
		assert.True(t, sim.CheckAvailability(context.Background(), "lunes", "10:00"))
	}
}

func TestSimulatorNeverAvailable(t *testing.T) {
	sim := NewSimulator(nil, WithRate(0))
	for i := 0; i < 20; i++ {
		assert.False(t, sim.CheckAvailability(context.Background(), "lunes", "10:00"))
	}
}

func TestSimulatorSeedIsDeterministic(t *testing.T) {
	a := NewSimulator(nil, WithRate(0.5), WithSeed(42))
	b := NewSimulator(nil, WithRate(0.5), WithSeed(42))

	for i := 0; i < 50; i++ {
		assert.Equal(t,
			a.CheckAvailability(context.Background(), "martes", "16:30"),
			b.CheckAvailability(context.Background(), "martes", "16:30"),
		)
	}
}

func TestWithRateIgnoresOutOfRange(t *testing.T) {
	sim := NewSimulator(nil, WithRate(1), WithRate(1.5), WithRate(-0.1))
	assert.True(t, sim.CheckAvailability(context.Background(), "lunes", "10:00"))
}
