package engine

import (
	"math/rand"
	"sync"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// RNG wraps math/rand.Rand with deterministic position tracking.
// Every draw consumes exactly one value from the source, so Position
// can be replayed by RestoreRNG. Safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  *rand.Rand
	pos  int64
}

var _ types.Random = (*RNG)(nil)

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// next returns one raw 63-bit value. Callers must hold mu.
func (r *RNG) next() int64 {
	r.pos++
	return r.src.Int63()
}

// Range returns a random integer in [min, max]. If max < min, min is returned
// without consuming a draw.
func (r *RNG) Range(min, max int) int {
	if max <= min {
		return min
	}
	span := int64(max-min) + 1
	r.mu.Lock()
	v := r.next()
	r.mu.Unlock()
	return min + int(v%span)
}

// Float64 returns a random number in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	v := r.next()
	r.mu.Unlock()
	return float64(v>>10) / (1 << 53)
}

// WeightedSelect returns an index chosen by weighted random selection.
// Entries with weight <= 0 are never chosen. Returns -1 when no weight is
// positive. Equal weights resolve in declaration order of the cumulative walk.
func (r *RNG) WeightedSelect(weights []float64) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}
	roll := r.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return last
}

// Seed returns the seed the RNG was created or last reset with.
func (r *RNG) Seed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}

// Position returns the number of source draws made since creation.
func (r *RNG) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	rng.Reset(seed, position)
	return rng
}

// Reset reseeds r in place and advances it to position. Holders of r see
// the restored sequence without being rewired.
func (r *RNG) Reset(seed int64, position int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seed = seed
	r.src = rand.New(rand.NewSource(seed))
	r.pos = 0
	for r.pos < position {
		r.next()
	}
}
