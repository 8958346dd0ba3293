// Package cryptoimpl implements the collab.HashFn, collab.SignatureVerifier,
// and collab.KeyRecover collaborators the core is specified against. It is
// the only package in the module that imports a concrete cryptography
// stack; everything else depends on the collab interfaces.
package cryptoimpl

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for Neo's Hash160.
)

// Provider implements collab.HashFn, collab.SignatureVerifier, and
// collab.KeyRecover using the standard library plus the secp256k1 and
// ripemd160 packages for the curves/digests Neo specifies.
type Provider struct{}

func (Provider) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (Provider) RIPEMD160(data []byte) [20]byte {
	h := ripemd160.New()
	_, _ = h.Write(data)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hash160 is ripemd160(sha256(script)), Neo's script-hash derivation.
func (p Provider) Hash160(script []byte) [20]byte {
	s := p.SHA256(script)
	return p.RIPEMD160(s[:])
}

// Hash256 is sha256(sha256(data)), used for block and transaction hashes.
func (p Provider) Hash256(data []byte) [32]byte {
	first := p.SHA256(data)
	return p.SHA256(first[:])
}

// MerkleRoot computes a pairwise Hash256 Merkle root over leaves, pairing
// the last node of an odd-sized level with itself and treating the empty
// list as the zero hash.
func (p Provider) MerkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			pair := make([]byte, 64)
			copy(pair[:32], level[i][:])
			copy(pair[32:], right[:])
			next = append(next, p.Hash256(pair))
		}
		level = next
	}
	return level[0]
}

// Verify checks signature over digest under the named curve: "secp256r1"
// for consensus messages, "secp256k1" for transaction witnesses.
func (Provider) Verify(curve string, pubKey []byte, digest [32]byte, signature []byte) bool {
	switch curve {
	case "secp256r1":
		return verifyP256(pubKey, digest, signature)
	case "secp256k1":
		return verifySecp256k1(pubKey, digest, signature)
	default:
		return false
	}
}

func verifyP256(pubKey []byte, digest [32]byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), pubKey)
	if x == nil {
		x, y = unmarshalUncompressed(elliptic.P256(), pubKey)
		if x == nil {
			return false
		}
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

func verifySecp256k1(pubKey []byte, digest [32]byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	var r, s secp256k1.ModNScalar
	r.SetByteSlice(signature[:32])
	s.SetByteSlice(signature[32:])
	sig := dcrecdsa.NewSignature(&r, &s)
	return sig.Verify(digest[:], pub)
}

func unmarshalUncompressed(curve elliptic.Curve, data []byte) (*big.Int, *big.Int) {
	return elliptic.Unmarshal(curve, data)
}

// RecoverPublicKey recovers a compressed secp256k1 public key from digest,
// a 64-byte (r, s) signature, and a recovery id in [0, 3].
func (Provider) RecoverPublicKey(digest [32]byte, signature []byte, recoveryID byte) ([]byte, error) {
	if len(signature) != 64 {
		return nil, errInvalidSignatureLength
	}
	sig := make([]byte, 65)
	sig[0] = recoveryID + 27
	copy(sig[1:], signature)
	pub, _, err := dcrecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

var errInvalidSignatureLength = &lengthError{msg: "cryptoimpl: signature must be 64 bytes"}

// lengthError is a minimal sentinel error shared by the provider's
// fixed-length argument checks.
type lengthError struct{ msg string }

func (e *lengthError) Error() string { return e.msg }
