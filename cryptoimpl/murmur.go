package cryptoimpl

import "github.com/twmb/murmur3"

// Murmur128 computes the x64 variant of MurmurHash3 over data with the
// given seed, returning the 16-byte little-endian digest per §6's
// bit-exact wire format. Unlike the SHA/RIPEMD family above, it is not
// part of collab.HashFn: nothing in the consensus/ledger critical path
// consumes it, but peer-policy bucketing (netpolicy.NetGroup) needs a fast
// non-cryptographic hash with a tunable seed, and this is the one the
// wider protocol specifies.
func (Provider) Murmur128(data []byte, seed uint32) [16]byte {
	h1, h2 := murmur3.SeedSum128(uint64(seed), uint64(seed), data)
	var out [16]byte
	putU64LE(out[0:8], h1)
	putU64LE(out[8:16], h2)
	return out
}

func putU64LE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}
