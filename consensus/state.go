package consensus

import "neonode.dev/core/types"

// DecisionKind tags the outcome of a successfully processed message.
type DecisionKind byte

const (
	DecisionPending DecisionKind = iota
	DecisionProposal
	DecisionViewChange
)

// QuorumDecision is returned by a successful Engine.ProcessMessage call.
// Only the fields relevant to Kind are populated.
type QuorumDecision struct {
	Kind     DecisionKind
	MsgKind  MessageKind
	Proposal types.UInt256
	NewView  uint16
	Missing  []types.ValidatorID
}

// receivedKey indexes one registered message by its kind and sender within
// the engine's current (height, view).
type receivedKey struct {
	kind      MessageKind
	validator types.ValidatorID
}

// snapshotState is the deterministic, deep-copyable state a ConsensusState
// owns for a single (height, view). It is exclusively owned by the engine
// and mutated only through ProcessMessage / AdvanceHeight.
type snapshotState struct {
	height            uint64
	view              uint16
	hasProposal       bool
	proposal          types.UInt256
	proposalTxHashes  []types.UInt256
	received          map[receivedKey]SignedMessage
	changeViewIntents map[types.ValidatorID]uint16
}

func newSnapshotState(height uint64) snapshotState {
	return snapshotState{
		height:            height,
		view:              0,
		received:          make(map[receivedKey]SignedMessage),
		changeViewIntents: make(map[types.ValidatorID]uint16),
	}
}

func (s *snapshotState) resetRound() {
	s.hasProposal = false
	s.proposal = types.UInt256{}
	s.proposalTxHashes = nil
	s.received = make(map[receivedKey]SignedMessage)
	s.changeViewIntents = make(map[types.ValidatorID]uint16)
}

func (s *snapshotState) countKind(kind MessageKind) int {
	n := 0
	for k := range s.received {
		if k.kind == kind {
			n++
		}
	}
	return n
}

func (s *snapshotState) validatorsForKind(kind MessageKind) []types.ValidatorID {
	var out []types.ValidatorID
	for k := range s.received {
		if k.kind == kind {
			out = append(out, k.validator)
		}
	}
	return out
}

func (s *snapshotState) countChangeView(newView uint16) int {
	n := 0
	for _, v := range s.changeViewIntents {
		if v == newView {
			n++
		}
	}
	return n
}
