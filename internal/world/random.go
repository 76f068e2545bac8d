package world

import (
	"hash/fnv"
	"math/rand"
)

// inclusiveSteps is the resolution used for closed-interval sampling; 2^53 is
// the largest power of two a float64 represents exactly.
const inclusiveSteps = 1 << 53

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	seedValue := DeterministicSeedValue(rootSeed, label)
	return rand.New(rand.NewSource(seedValue))
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return fallbackRNG().Float64()
	}
	return rng.Float64()
}

// RandomUnit returns a value in the closed interval [0, 1].
func RandomUnit(rng *rand.Rand) float64 {
	if rng == nil {
		rng = fallbackRNG()
	}
	return float64(rng.Int63n(inclusiveSteps+1)) / inclusiveSteps
}

// RandomRange samples uniformly from [min, max).
func RandomRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomFloat(rng)*(max-min)
}

// RandomRangeInclusive samples uniformly from [min, max].
func RandomRangeInclusive(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomUnit(rng)*(max-min)
}

func fallbackRNG() *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world")))
}
