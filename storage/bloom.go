package storage

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/holiman/bloomfilter/v2"
)

// bloom wraps a holiman/bloomfilter/v2 filter sized by the standard
// m/k formulas, clamped to k in [1, 7], with the double-hash derivation the
// underlying filter already performs internally from a single 64-bit
// digest. xxhash (XXH64) stands in for xxh3 here: no xxh3 implementation
// appears anywhere in the reference pack, and XXH64 satisfies the same
// "single 64-bit digest, double-hashed" contract the sizing formula
// assumes.
type bloom struct {
	filter *bloomfilter.Filter
}

// newBloom sizes a filter for up to n expected entries at false-positive
// rate p, per m = ceil(-n*ln(p) / (ln2)^2), k = ceil((m/n)*ln2) clamped to
// [1, 7].
func newBloom(n uint64, p float64) (*bloom, error) {
	if n == 0 {
		n = 1
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint64(math.Ceil((float64(m) / float64(n)) * ln2))
	if k < 1 {
		k = 1
	}
	if k > 7 {
		k = 7
	}
	f, err := bloomfilter.New(m, k)
	if err != nil {
		return nil, err
	}
	return &bloom{filter: f}, nil
}

func bloomDigest(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// insert sets every bit the key's digest maps to; a Bloom filter never
// produces a false negative, so insertion must never be skipped (P8).
func (b *bloom) insert(key []byte) {
	b.filter.Add(bloomDigest(key))
}

// mightContain reports false only when key was definitely never inserted.
func (b *bloom) mightContain(key []byte) bool {
	return b.filter.Contains(bloomDigest(key))
}
