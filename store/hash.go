package store

import "github.com/eth-sri/nice2predict/dictionary"

// labelMix is the finalizer of a 64-bit splittable-mix integer hash
// (the SplitMix64 / MurmurHash3 finalizer), applied per label id before
// summing. It is a fixed bijective mixing function so that summing mixed
// values is the only source of (intentional) collision.
func labelMix(id dictionary.Id) uint64 {
	x := uint64(uint32(id)) + 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return x
}

// FactorHash computes the commutative hash of a label-id multiset: the sum
// of the mixed hash of each label. Being additive, it does not depend on
// iteration order, satisfying the commutativity requirement of spec §4.3
// and testable property 6.
func FactorHash(ids []dictionary.Id) uint64 {
	var sum uint64
	for _, id := range ids {
		sum += labelMix(id)
	}
	return sum
}
