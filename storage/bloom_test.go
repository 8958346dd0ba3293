package storage

import (
	"fmt"
	"testing"
)

func TestBloomNoFalseNegatives(t *testing.T) {
	b, err := newBloom(1000, 0.01)
	if err != nil {
		t.Fatalf("newBloom: %v", err)
	}
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%d", i))
		b.insert(keys[i])
	}
	for _, k := range keys {
		if !b.mightContain(k) {
			t.Fatalf("Bloom filter false negative for %q", k)
		}
	}
}

func TestBloomAbsentKeyUsuallyNegative(t *testing.T) {
	b, err := newBloom(100, 0.01)
	if err != nil {
		t.Fatalf("newBloom: %v", err)
	}
	b.insert([]byte("present"))
	if b.mightContain([]byte("definitely-absent-key-xyz")) {
		// A single false positive at p=0.01 is plausible but unlikely enough
		// that hitting it would indicate a broken filter; fail loudly.
		t.Fatal("unexpected false positive for an unrelated key")
	}
}

func TestNewBloomClampsKKiloRange(t *testing.T) {
	// A very small n relative to false-positive tolerance pushes k toward the
	// upper clamp; this must not error and must still size successfully.
	if _, err := newBloom(1, 1e-12); err != nil {
		t.Fatalf("newBloom with extreme parameters: %v", err)
	}
}

func TestNewBloomZeroExpectedEntries(t *testing.T) {
	if _, err := newBloom(0, 0.01); err != nil {
		t.Fatalf("newBloom(0, ...) should substitute n=1, got error: %v", err)
	}
}
