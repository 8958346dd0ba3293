// Package admission implements the contains-check authority every sync and
// relay path consults before accepting an inventory item: is a transaction
// already known (in the mempool or the ledger), and does it conflict with
// something already committed.
package admission

import "neonode.dev/core/types"

// Status is the three-valued result of a transaction existence check.
type Status byte

const (
	NotExist Status = iota
	ExistsInPool
	ExistsInLedger
)

// Mempool is the minimal view the oracle needs of the transaction pool.
type Mempool interface {
	Len() int
	Contains(hash types.UInt256) bool
}

// Ledger is the minimal view the oracle needs of the ledger.
type Ledger interface {
	ContainsTransaction(hash types.UInt256) (bool, error)
	ContainsConflictHash(hash types.UInt256, signers []types.UInt160, maxTraceable uint32) (bool, error)
	CurrentIndex() (uint32, bool, error)
	TransactionAttributes(hash types.UInt256) (types.TxAttributes, bool, error)
	ContainsConsumedOracleResponse(id uint64) (bool, error)
}

// PolicySource resolves the traceability window in effect at the current
// height, falling back to a protocol-settings default.
type PolicySource interface {
	MaxTraceableBlocks(fallback uint32) uint32
}

// Oracle combines mempool and ledger state into admission decisions. It is
// read-only and side-effect-free; callers may cache results for the
// duration of a block.
type Oracle struct {
	mempool Mempool
	ledger  Ledger
	policy  PolicySource
	// defaultMaxTraceable is the protocol-settings fallback used when
	// policy is nil or declines to override it.
	defaultMaxTraceable uint32
}

func New(mempool Mempool, ledger Ledger, policy PolicySource, defaultMaxTraceable uint32) *Oracle {
	return &Oracle{mempool: mempool, ledger: ledger, policy: policy, defaultMaxTraceable: defaultMaxTraceable}
}

// ContainsTransaction short-circuits mempool, then ledger.
func (o *Oracle) ContainsTransaction(hash types.UInt256) (Status, error) {
	if o.mempool != nil && o.mempool.Len() > 0 && o.mempool.Contains(hash) {
		return ExistsInPool, nil
	}
	inLedger, err := o.ledger.ContainsTransaction(hash)
	if err != nil {
		return NotExist, err
	}
	if inLedger {
		return ExistsInLedger, nil
	}
	return NotExist, nil
}

// ContainsConflictHash evaluates the three conflict predicates from §4.C
// step 3, OR'd together: a persisted Conflicts-attribute stub
// (ledger.ContainsConflictHash), a NotValidBefore attribute on the
// transaction persisted at hash that has not yet reached its activation
// height, and an OracleResponse attribute on that transaction whose
// response id has already been consumed by some other committed
// transaction. Height 0 (no history) always rejects with no conflict
// possible.
func (o *Oracle) ContainsConflictHash(hash types.UInt256, signers []types.UInt160) (bool, error) {
	current, ok, err := o.ledger.CurrentIndex()
	if err != nil {
		return false, err
	}
	if !ok || current == 0 {
		return false, nil
	}

	maxTraceable := o.defaultMaxTraceable
	if o.policy != nil {
		maxTraceable = o.policy.MaxTraceableBlocks(o.defaultMaxTraceable)
	}

	stubConflict, err := o.ledger.ContainsConflictHash(hash, signers, maxTraceable)
	if err != nil {
		return false, err
	}
	if stubConflict {
		return true, nil
	}

	attrs, ok, err := o.ledger.TransactionAttributes(hash)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if attrs.HasNotValidBefore && current < attrs.NotValidBeforeHeight {
		return true, nil
	}
	if attrs.HasOracleResponse {
		consumed, err := o.ledger.ContainsConsumedOracleResponse(attrs.OracleResponseID)
		if err != nil {
			return false, err
		}
		if consumed {
			return true, nil
		}
	}
	return false, nil
}
