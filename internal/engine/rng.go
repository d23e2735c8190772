package engine

import (
	"hash/fnv"
	"math/rand"
)

// ReplicaStreams holds the independent pseudo-random streams one replica
// draws from. Demand and route draws are split onto separate streams
// (derived from the replica seed) so they never share state, per the
// RNG service's "split by domain" requirement.
type ReplicaStreams struct {
	Demand *rand.Rand
	Route  *rand.Rand
}

// DeriveReplicaSeed computes the deterministic per-replica seed from a
// scenario's base seed, its ID, and the replica index, using a bijective
// 64-bit mix so replicas never correlate.
func DeriveReplicaSeed(baseSeed int64, scenarioID string, replicaIndex int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scenarioID))
	scenarioMix := int64(h.Sum64())
	indexMix := splitmix64(uint64(replicaIndex) + 1)
	return baseSeed ^ scenarioMix ^ int64(indexMix)
}

// NewReplicaStreams builds the demand/route sub-streams for a replica
// seed by mixing in a small domain-specific salt before seeding.
func NewReplicaStreams(replicaSeed int64) ReplicaStreams {
	return ReplicaStreams{
		Demand: rand.New(rand.NewSource(int64(splitmix64(uint64(replicaSeed) ^ 0x9E3779B97F4A7C15)))),
		Route:  rand.New(rand.NewSource(int64(splitmix64(uint64(replicaSeed) ^ 0xD1B54A32D192ED03)))),
	}
}

// splitmix64 is a fast, well-mixed 64-bit bijective finalizer, used to
// decorrelate seeds derived from small, structured inputs like replica
// indices.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
