package sim

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// === SimulationKey ===

// SimulationKey identifies a reproducible arrival schedule. Two runs with the
// same key and configuration draw identical inter-arrival delays; the
// interleaving of goroutines is still up to the scheduler.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemArrivals is the RNG subsystem for inter-arrival delays.
	// Uses master seed directly.
	SubsystemArrivals = "arrivals"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemArrivals: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemArrivals {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === Arrivals ===

// ArrivalSampler produces the delay between two consecutive client arrivals.
type ArrivalSampler interface {
	Next() time.Duration
}

// UniformArrivals draws delays uniformly from [min, max).
type UniformArrivals struct {
	min, max time.Duration
	rng      *rand.Rand
}

// NewUniformArrivals creates a sampler over [min, max). When max <= min every
// delay equals min.
func NewUniformArrivals(min, max time.Duration, rng *rand.Rand) *UniformArrivals {
	if rng == nil {
		panic("NewUniformArrivals: rng must not be nil")
	}
	return &UniformArrivals{min: min, max: max, rng: rng}
}

func (u *UniformArrivals) Next() time.Duration {
	if u.max <= u.min {
		return u.min
	}
	return u.min + time.Duration(u.rng.Int63n(int64(u.max-u.min)))
}
