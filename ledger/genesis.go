package ledger

import "neonode.dev/core/types"

// GenesisParams is the minimal set of protocol-settings-derived values
// needed to synthesise a genesis block. NextConsensus is the script hash a
// real deployment derives from its standby committee's multi-signature
// verification script; the ledger treats it as an opaque input.
type GenesisParams struct {
	Network       uint32
	Timestamp     uint64
	NextConsensus types.UInt160
}

// EnsureGenesis bootstraps the ledger if CURRENT_BLOCK is absent: it
// synthesises a genesis block from params, runs OnPersist/PostPersist
// against it, and commits. It is a no-op if a current block already
// exists.
func (l *Ledger) EnsureGenesis(params GenesisParams) error {
	_, exists, err := l.CurrentIndex()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	header := types.BlockHeader{
		Version:       0,
		PrevHash:      types.UInt256Zero,
		MerkleRoot:    types.UInt256Zero,
		Timestamp:     params.Timestamp,
		Nonce:         0,
		Index:         0,
		PrimaryIndex:  0,
		NextConsensus: params.NextConsensus,
	}
	genesis := types.Block{Header: header}

	if err := l.OnPersist(genesis); err != nil {
		return err
	}
	return l.PostPersist(genesis)
}
