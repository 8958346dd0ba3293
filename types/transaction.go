package types

import "fmt"

// WitnessScope restricts which contracts a signer's witness is valid for.
type WitnessScope byte

const (
	ScopeNone            WitnessScope = 0x00
	ScopeCalledByEntry    WitnessScope = 0x01
	ScopeCustomContracts WitnessScope = 0x10
	ScopeCustomGroups    WitnessScope = 0x20
	ScopeGlobal          WitnessScope = 0x80
)

// Signer is one transaction signer and the scope its witness covers.
type Signer struct {
	Account          UInt160
	Scopes           WitnessScope
	AllowedContracts []UInt160
	AllowedGroups    []ECPoint
}

// AttributeKind tags the variant held by a TransactionAttribute. Only one
// attribute of each kind is permitted per transaction.
type AttributeKind byte

const (
	AttrHighPriority    AttributeKind = iota
	AttrOracleResponse
	AttrNotValidBefore
	AttrConflicts
)

// TransactionAttribute is a tagged union; only the fields relevant to Kind
// are meaningful.
type TransactionAttribute struct {
	Kind AttributeKind

	// OracleResponse
	OracleID     uint64
	OracleCode   byte
	OracleResult []byte

	// NotValidBefore
	NotValidBeforeHeight uint32

	// Conflicts
	ConflictsHash UInt256
}

// Transaction is a Neo transaction. Hash is deterministic over all
// non-witness fields (signature/witness bytes are excluded).
type Transaction struct {
	Version         byte
	Nonce           uint32
	SystemFee       int64
	NetworkFee      int64
	ValidUntilBlock uint32
	Signers         []Signer
	Attributes      []TransactionAttribute
	Script          []byte
	Witnesses       []Witness
}

// ConflictHashes returns the set of UInt256 this transaction declares as
// conflicts via its Conflicts attributes.
func (tx Transaction) ConflictHashes() []UInt256 {
	var out []UInt256
	for _, a := range tx.Attributes {
		if a.Kind == AttrConflicts {
			out = append(out, a.ConflictsHash)
		}
	}
	return out
}

// SignerAccounts returns every account listed as a signer.
func (tx Transaction) SignerAccounts() []UInt160 {
	out := make([]UInt160, len(tx.Signers))
	for i, s := range tx.Signers {
		out[i] = s.Account
	}
	return out
}

// TxAttributes summarizes the attribute fields admission's conflict
// predicates need (§4.C step 3) without exposing the full attribute list.
type TxAttributes struct {
	HasOracleResponse    bool
	OracleResponseID     uint64
	HasNotValidBefore    bool
	NotValidBeforeHeight uint32
}

// ConflictAttributes extracts the OracleResponse/NotValidBefore fields the
// admission oracle's conflict check consults, from an already-decoded
// transaction.
func (tx Transaction) ConflictAttributes() TxAttributes {
	var out TxAttributes
	for _, a := range tx.Attributes {
		switch a.Kind {
		case AttrOracleResponse:
			out.HasOracleResponse = true
			out.OracleResponseID = a.OracleID
		case AttrNotValidBefore:
			out.HasNotValidBefore = true
			out.NotValidBeforeHeight = a.NotValidBeforeHeight
		}
	}
	return out
}

// ValidateAttributeArity enforces that at most one attribute of each kind
// is present, per the data model's "only one attribute of each kind"
// constraint (OracleResponse and NotValidBefore are further restricted to
// exactly one occurrence; Conflicts may repeat in the wire format but is
// modeled here as already expanded to one entry per declared hash).
func (tx Transaction) ValidateAttributeArity() error {
	seen := map[AttributeKind]bool{}
	for _, a := range tx.Attributes {
		if a.Kind == AttrConflicts {
			continue
		}
		if seen[a.Kind] {
			return fmt.Errorf("types: duplicate attribute kind %d", a.Kind)
		}
		seen[a.Kind] = true
	}
	return nil
}
