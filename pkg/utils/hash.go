package utils

const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// HashString hashes a string with 64-bit FNV-1a.
func HashString(s string) uint64 {
	return HashStringSeed(fnvOffset64, s)
}

// HashStringSeed folds s into an existing hash state.
func HashStringSeed(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// HashUint64 folds v into an existing hash state, byte by byte.
func HashUint64(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnvPrime64
		v >>= 8
	}
	return h
}

// Combine mixes an ordered sequence of hashes.
func Combine(h, next uint64) uint64 {
	return h*31 + next
}

// Mix scrambles a hash so that order-insensitive sums of many hashes
// do not collapse on small inputs.
func Mix(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}
