package types

import "bytes"

// ECPoint is an elliptic-curve public key in either compressed (33-byte,
// leading 0x02/0x03 parity tag) or uncompressed (65-byte, leading 0x04 plus
// full Y) form. Validator ordering is a total order over ECPoint: X
// coordinate first, then parity for compressed points, then full Y for
// uncompressed ones.
type ECPoint struct {
	Raw []byte
}

// x returns the X-coordinate bytes regardless of encoding.
func (p ECPoint) x() []byte {
	if len(p.Raw) == 0 {
		return nil
	}
	switch p.Raw[0] {
	case 0x02, 0x03:
		if len(p.Raw) >= 33 {
			return p.Raw[1:33]
		}
	case 0x04:
		if len(p.Raw) >= 65 {
			return p.Raw[1:33]
		}
	}
	return nil
}

func (p ECPoint) parity() byte {
	if len(p.Raw) == 0 {
		return 0
	}
	return p.Raw[0]
}

func (p ECPoint) y() []byte {
	if len(p.Raw) >= 65 && p.Raw[0] == 0x04 {
		return p.Raw[33:65]
	}
	return nil
}

// Compare implements the total order: X coordinate first, then parity for
// compressed form, then full Y for uncompressed form.
func (p ECPoint) Compare(o ECPoint) int {
	if c := bytes.Compare(p.x(), o.x()); c != 0 {
		return c
	}
	if p.parity() != o.parity() {
		if p.parity() < o.parity() {
			return -1
		}
		return 1
	}
	return bytes.Compare(p.y(), o.y())
}

func (p ECPoint) Equals(o ECPoint) bool {
	return bytes.Equal(p.Raw, o.Raw)
}

// ValidatorID indexes a Validator within its ValidatorSet's canonical order.
type ValidatorID uint16

// Validator is a single consensus participant.
type Validator struct {
	ID        ValidatorID
	PublicKey ECPoint
}

// ValidatorSet is an ordered sequence of Validators. The order is the total
// order over ECPoint defined above; position in that order is the
// validator's index for primary/quorum arithmetic.
type ValidatorSet struct {
	ordered []Validator
}

// NewValidatorSet sorts the given validators into canonical ECPoint order
// and assigns their IDs by resulting position.
func NewValidatorSet(validators []Validator) ValidatorSet {
	ordered := make([]Validator, len(validators))
	copy(ordered, validators)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].PublicKey.Compare(ordered[j-1].PublicKey) < 0; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for i := range ordered {
		ordered[i].ID = ValidatorID(i)
	}
	return ValidatorSet{ordered: ordered}
}

func (vs ValidatorSet) Len() int { return len(vs.ordered) }

// Get returns the validator at index id, if in range.
func (vs ValidatorSet) Get(id ValidatorID) (Validator, bool) {
	if int(id) < 0 || int(id) >= len(vs.ordered) {
		return Validator{}, false
	}
	return vs.ordered[id], true
}

func (vs ValidatorSet) All() []Validator {
	out := make([]Validator, len(vs.ordered))
	copy(out, vs.ordered)
	return out
}

// Primary returns the index of the validator designated to propose a block
// for (height, view): (height + view) mod len.
func (vs ValidatorSet) Primary(height uint64, view uint16) ValidatorID {
	n := uint64(len(vs.ordered))
	if n == 0 {
		return 0
	}
	return ValidatorID((height + uint64(view)) % n)
}

// Quorum is the minimum agreement required to finalize a decision:
// n - f, where f = (n - 1) / 3 (integer division) is the number of faulty
// validators tolerated.
func (vs ValidatorSet) Quorum() int {
	n := len(vs.ordered)
	if n == 0 {
		return 0
	}
	f := (n - 1) / 3
	return n - f
}
