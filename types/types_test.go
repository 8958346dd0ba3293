package types

import "testing"

func TestUInt160RoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	u, err := UInt160FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	s := u.String()
	back, err := UInt160FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	if !back.Equals(u) {
		t.Fatalf("roundtrip mismatch: %v != %v", back, u)
	}
}

func TestUInt160FromBytesWrongLength(t *testing.T) {
	if _, err := UInt160FromBytes(make([]byte, 19)); err == nil {
		t.Fatal("expected error for wrong length")
	}
}

func TestUInt160Compare(t *testing.T) {
	var a, b UInt160
	a[19] = 1
	b[19] = 2
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b")
	}
	if b.Compare(a) <= 0 {
		t.Fatalf("expected b > a")
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected a == a")
	}
}

func TestUInt256RoundTrip(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(255 - i)
	}
	u, err := UInt256FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	back, err := UInt256FromString(u.String())
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !back.Equals(u) {
		t.Fatalf("roundtrip mismatch")
	}
	if UInt256Zero.IsZero() != true {
		t.Fatalf("zero value should report IsZero")
	}
	if u.IsZero() {
		t.Fatalf("non-zero value should not report IsZero")
	}
}

func TestECPointCompareXFirst(t *testing.T) {
	a := ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 1)...)}
	b := ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 2)...)}
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b by X coordinate")
	}
}

func TestECPointCompareParityTiebreak(t *testing.T) {
	x := bytesOf(32, 5)
	a := ECPoint{Raw: append([]byte{0x02}, x...)}
	b := ECPoint{Raw: append([]byte{0x03}, x...)}
	if a.Compare(b) >= 0 {
		t.Fatalf("expected 0x02 < 0x03 at equal X")
	}
}

func TestECPointCompareUncompressedY(t *testing.T) {
	x := bytesOf(32, 7)
	y1 := bytesOf(32, 1)
	y2 := bytesOf(32, 2)
	a := ECPoint{Raw: append(append([]byte{0x04}, x...), y1...)}
	b := ECPoint{Raw: append(append([]byte{0x04}, x...), y2...)}
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b by Y coordinate")
	}
}

func bytesOf(n int, v byte) []byte {
	out := make([]byte, n)
	out[n-1] = v
	return out
}

func TestValidatorSetPrimaryAndQuorum(t *testing.T) {
	vs := NewValidatorSet([]Validator{
		{PublicKey: ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 4)...)}},
		{PublicKey: ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 1)...)}},
		{PublicKey: ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 3)...)}},
		{PublicKey: ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 2)...)}},
	})
	if vs.Len() != 4 {
		t.Fatalf("expected 4 validators, got %d", vs.Len())
	}
	// sorted by X ascending: X=1,2,3,4 -> IDs 0,1,2,3
	first, ok := vs.Get(0)
	if !ok {
		t.Fatalf("expected validator 0")
	}
	if first.PublicKey.Compare(ECPoint{Raw: append([]byte{0x02}, bytesOf(32, 1)...)}) != 0 {
		t.Fatalf("expected lowest X first after sort")
	}
	if got := vs.Primary(10, 0); got != 2 {
		t.Fatalf("Primary(10,0) = %d, want 2", got)
	}
	if got := vs.Primary(10, 1); got != 3 {
		t.Fatalf("Primary(10,1) = %d, want 3", got)
	}
	if got := vs.Quorum(); got != 3 {
		t.Fatalf("Quorum() = %d, want 3", got)
	}
}

func TestConflictStubEncodeDecode(t *testing.T) {
	raw := EncodeConflictStub(12345)
	if len(raw) != conflictStubLen {
		t.Fatalf("expected %d bytes, got %d", conflictStubLen, len(raw))
	}
	stub, ok := DecodeConflictStub(raw)
	if !ok {
		t.Fatal("expected stub to decode")
	}
	if stub.BlockIndex != 12345 {
		t.Fatalf("BlockIndex = %d, want 12345", stub.BlockIndex)
	}
}

func TestDecodeConflictStubRejectsWrongLength(t *testing.T) {
	if _, ok := DecodeConflictStub([]byte{ExecTransactionByte, 1, 2, 3}); ok {
		t.Fatal("expected rejection of short input")
	}
	if _, ok := DecodeConflictStub([]byte{ExecTransactionByte, 1, 2, 3, 4, 5}); ok {
		t.Fatal("expected rejection of long input")
	}
}

func TestDecodeConflictStubRejectsWrongDiscriminator(t *testing.T) {
	raw := EncodeConflictStub(1)
	raw[0] = 0x00
	if _, ok := DecodeConflictStub(raw); ok {
		t.Fatal("expected rejection of wrong leading byte")
	}
}

func TestStorageKeyBytesLayout(t *testing.T) {
	key := StorageKey{ContractID: 0x01020304, Suffix: []byte("abc")}
	raw := key.Bytes()
	if raw[0] != StorageKeyPrefix {
		t.Fatalf("expected prefix byte %d, got %d", StorageKeyPrefix, raw[0])
	}
	// 4-byte little-endian contract id
	if raw[1] != 0x04 || raw[2] != 0x03 || raw[3] != 0x02 || raw[4] != 0x01 {
		t.Fatalf("contract id not little-endian: %v", raw[1:5])
	}
	if string(raw[5:]) != "abc" {
		t.Fatalf("suffix mismatch: %q", raw[5:])
	}
}

func TestStorageKeyCompareOrdersByContractThenSuffix(t *testing.T) {
	a := StorageKey{ContractID: 1, Suffix: []byte("z")}
	b := StorageKey{ContractID: 2, Suffix: []byte("a")}
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b by ContractID regardless of Suffix")
	}
	c := StorageKey{ContractID: 1, Suffix: []byte("a")}
	if c.Compare(a) >= 0 {
		t.Fatalf("expected lexicographically smaller suffix to sort first within same contract")
	}
}

func TestContractPrefixMatchesKeyPrefix(t *testing.T) {
	key := StorageKey{ContractID: 42, Suffix: []byte("xyz")}
	prefix := ContractPrefix(42)
	raw := key.Bytes()
	if string(raw[:len(prefix)]) != string(prefix) {
		t.Fatalf("ContractPrefix does not match StorageKey.Bytes() prefix")
	}
}
