// Package scheduling provides the clinic availability capability. The real
// clinic has no calendar integration yet, so availability is simulated with
// a configurable success rate.
package scheduling

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

const defaultAvailabilityRate = 0.8

// Simulator answers availability checks with a weighted coin flip. A fixed
// seed makes the sequence deterministic for tests.
type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	rate   float64
	logger *logging.Logger
}

// SimulatorOption configures the simulator.
type SimulatorOption func(*Simulator)

// WithRate overrides the fraction of checks that succeed (0 to 1).
func WithRate(rate float64) SimulatorOption {
	return func(s *Simulator) {
		if rate >= 0 && rate <= 1 {
			s.rate = rate
		}
	}
}

// WithSeed makes the simulator deterministic.
func WithSeed(seed int64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSimulator creates an availability simulator.
func NewSimulator(logger *logging.Logger, opts ...SimulatorOption) *Simulator {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Simulator{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		rate:   defaultAvailabilityRate,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAvailability reports whether the requested slot is free.
func (s *Simulator) CheckAvailability(_ context.Context, day, hour string) bool {
	s.mu.Lock()
	available := s.rng.Float64() < s.rate
	s.mu.Unlock()

	s.logger.Debug("availability check",
		"day", day,
		"hour", hour,
		"available", available,
	)
	return available
}
