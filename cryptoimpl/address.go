package cryptoimpl

import (
	"github.com/mr-tron/base58"

	"neonode.dev/core/types"
)

// Address renders hash as Neo's base58check address string: the address
// version byte prepended to the script hash, sha256(sha256(.)) checksum
// appended, whole thing base58-encoded.
func (p Provider) Address(hash types.UInt160, addressVersion byte) string {
	payload := make([]byte, 0, 1+20+4)
	payload = append(payload, addressVersion)
	payload = append(payload, hash.Bytes()...)
	checksum := p.Hash256(payload)
	payload = append(payload, checksum[:4]...)
	return base58.Encode(payload)
}

// AddressToScriptHash parses a base58check address produced by Address,
// verifying the version byte and checksum.
func (p Provider) AddressToScriptHash(address string, addressVersion byte) (types.UInt160, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return types.UInt160{}, errAddress("base58 decode: " + err.Error())
	}
	if len(raw) != 1+20+4 {
		return types.UInt160{}, errAddress("wrong payload length")
	}
	if raw[0] != addressVersion {
		return types.UInt160{}, errAddress("wrong address version")
	}
	body := raw[:1+20]
	checksum := p.Hash256(body)
	for i := 0; i < 4; i++ {
		if raw[1+20+i] != checksum[i] {
			return types.UInt160{}, errAddress("bad checksum")
		}
	}
	return types.UInt160FromBytes(raw[1:21])
}

func errAddress(reason string) error {
	return &lengthError{msg: "cryptoimpl: address: " + reason}
}
