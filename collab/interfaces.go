// Package collab defines the narrow interfaces the core consumes from its
// surrounding system: durable storage, peer transport, VM execution, and
// cryptography. None of these are implemented here — the core is written
// against them so that wire codecs, transport, and the execution engine stay
// swappable without touching consensus, ledger, or sync logic.
package collab

import "context"

// Op is a single mutation in a Store batch.
type Op int

const (
	OpPut Op = iota
	OpDelete
)

// BatchItem is one entry of a Store.PutBatch call.
type BatchItem struct {
	Key   []byte
	Value []byte // ignored when Op == OpDelete
	Op    Op
}

// SeekDirection controls the order Store.Seek walks a key prefix in.
type SeekDirection int

const (
	SeekForward SeekDirection = iota
	SeekBackward
)

// KVPair is one entry yielded by a Store.Seek iterator.
type KVPair struct {
	Key   []byte
	Value []byte
}

// Store is the durable key/value collaborator the storage cache and ledger
// are built on. Implementations are synchronous from the caller's
// perspective; batching internals are free to defer flush until Commit-like
// boundaries the implementation defines for itself.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	PutBatch(items []BatchItem) error
	// Seek yields entries whose key has the given prefix, walking in the
	// requested direction. The returned sequence must stop iteration once
	// the caller's yield function returns false.
	Seek(prefix []byte, dir SeekDirection, yield func(KVPair) bool) error
	Close() error
}

// SendError is returned by PeerSink.Send when a message could not be
// delivered to a specific peer.
type SendError struct {
	PeerID string
	Reason string
}

func (e *SendError) Error() string {
	return "collab: send to " + e.PeerID + " failed: " + e.Reason
}

// PeerSink is the outbound half of the peer transport collaborator.
type PeerSink interface {
	Send(peerID string, message any) error
	Disconnect(peerID string, reason string)
	Broadcast(message any)
}

// PeerStream is the inbound half of the peer transport collaborator; it is
// implemented by the transport layer and driven by the task scheduler.
// Events delivers every inbound event, of whatever kind, on one channel as
// an untyped value; a concrete transport adapts its own wire decode into
// the event values tasks.Scheduler.Dispatch accepts.
type PeerStream interface {
	Events() <-chan any
}

// ContractExecutor runs a script against a storage snapshot under the VM
// collaborator and reports its outcome. Container is whatever execution
// context the caller supplies (typically a transaction or block header);
// Snapshot is the Store-backed view the script may read and write through.
type ContractExecutor interface {
	Execute(ctx context.Context, script []byte, container any, snapshot Store, gasLimit int64, trigger TriggerType) (VMOutcome, error)
}

// TriggerType selects which native-contract trigger context a script runs
// under (OnPersist, PostPersist, Verification, Application, ...).
type TriggerType byte

// VMOutcome is the result of a ContractExecutor.Execute call.
type VMOutcome struct {
	State         VMState
	GasConsumed   int64
	Notifications []Notification
	ResultStack   []StackItem
}

type VMState byte

const (
	VMStateNone VMState = iota
	VMStateHalt
	VMStateFault
	VMStateBreak
)

// Notification is a single runtime notify-event raised by a contract.
type Notification struct {
	ScriptHash [20]byte
	EventName  string
	State      []StackItem
}

// StackItem is an opaque VM value; the core never interprets its contents,
// only threads it between the executor and its callers.
type StackItem struct {
	Type  string
	Value any
}

// HashFn is the cryptographic digest collaborator: sha256, ripemd160,
// hash160 (ripemd160(sha256(x))), hash256 (sha256(sha256(x))), and a Merkle
// root over an ordered hash list.
type HashFn interface {
	SHA256(data []byte) [32]byte
	RIPEMD160(data []byte) [20]byte
	Hash160(script []byte) [20]byte
	Hash256(data []byte) [32]byte
	MerkleRoot(leaves [][32]byte) [32]byte
}

// SignatureVerifier verifies a signature over a digest against a public key
// under a named curve ("secp256r1" for consensus, "secp256k1" for
// transaction witnesses).
type SignatureVerifier interface {
	Verify(curve string, pubKey []byte, digest [32]byte, signature []byte) bool
}

// KeyRecover recovers a compressed secp256k1 public key from a digest and a
// recoverable signature, used by transaction signer recovery.
type KeyRecover interface {
	RecoverPublicKey(digest [32]byte, signature []byte, recoveryID byte) ([]byte, error)
}
