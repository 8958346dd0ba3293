// Package consensus implements the dBFT multi-view state machine: a
// single-threaded, per-height actor that turns a stream of SignedMessages
// into QuorumDecisions. It owns no I/O; signature verification and
// digesting are delegated to the collab.SignatureVerifier / collab.HashFn
// collaborators so the engine stays free of a concrete crypto dependency.
package consensus

import (
	"neonode.dev/core/collab"
	"neonode.dev/core/types"
)

// Engine is the single-threaded dBFT state machine for one validator set.
// It must not be invoked concurrently; callers serialise all calls onto one
// logical goroutine.
type Engine struct {
	validators types.ValidatorSet
	verifier   collab.SignatureVerifier
	hasher     collab.HashFn
	curve      string

	state snapshotState
}

// NewEngine constructs an engine for the given validator set, starting at
// height 0, view 0. curve names the signature scheme validators sign with
// (secp256r1 for Neo consensus messages).
func NewEngine(validators types.ValidatorSet, verifier collab.SignatureVerifier, hasher collab.HashFn, curve string) *Engine {
	return &Engine{
		validators: validators,
		verifier:   verifier,
		hasher:     hasher,
		curve:      curve,
		state:      newSnapshotState(0),
	}
}

func (e *Engine) Height() uint64 { return e.state.height }
func (e *Engine) View() uint16   { return e.state.view }

// Proposal returns the registered proposal hash for the current round, if
// any.
func (e *Engine) Proposal() (types.UInt256, bool) {
	return e.state.proposal, e.state.hasProposal
}

// Primary returns the validator designated to propose for the current
// (height, view).
func (e *Engine) Primary() types.ValidatorID {
	return e.validators.Primary(e.state.height, e.state.view)
}

// ProcessMessage validates and registers signed, returning the decision it
// produces. Every failure returned here leaves engine state byte-for-byte
// unchanged (I4, P4): checks run strictly before the Insert step.
func (e *Engine) ProcessMessage(signed SignedMessage) (QuorumDecision, error) {
	validator, ok := e.validators.Get(signed.Validator)
	if !ok {
		return QuorumDecision{}, errUnknownValidator(signed.Validator)
	}

	digest := e.hasher.SHA256(signed.Digest())
	if !e.verifier.Verify(e.curve, validator.PublicKey.Raw, digest, signed.Signature) {
		return QuorumDecision{}, errInvalidSignature(signed.Validator)
	}

	kind := signed.Message.Kind
	if kind == KindChangeView {
		if signed.View != e.state.view {
			return QuorumDecision{}, errStaleMessage(kind)
		}
	} else if signed.Height != e.state.height || signed.View != e.state.view {
		return QuorumDecision{}, errStaleMessage(kind)
	}

	switch kind {
	case KindPrepareRequest:
		if signed.Validator != e.Primary() {
			return QuorumDecision{}, errInvalidPrimary(e.Primary(), signed.Validator)
		}
	case KindPrepareResponse:
		if !e.state.hasProposal {
			return QuorumDecision{}, errMissingProposal()
		}
		if !signed.Message.Proposal.Equals(e.state.proposal) {
			return QuorumDecision{}, errProposalMismatch()
		}
	case KindCommit:
		if !e.state.hasProposal {
			return QuorumDecision{}, errMissingProposal()
		}
		if !signed.Message.Proposal.Equals(e.state.proposal) {
			return QuorumDecision{}, errProposalMismatch()
		}
		if _, ok := e.state.received[receivedKey{kind: KindPrepareResponse, validator: signed.Validator}]; !ok {
			return QuorumDecision{}, errMissingPrepareResponse(signed.Validator)
		}
	case KindChangeView:
		// no pre-conditions beyond signature/staleness.
	}

	key := receivedKey{kind: kind, validator: signed.Validator}
	if kind == KindChangeView {
		if _, dup := e.state.changeViewIntents[signed.Validator]; dup {
			return QuorumDecision{}, errDuplicateMessage(kind, signed.Validator)
		}
	} else if _, dup := e.state.received[key]; dup {
		return QuorumDecision{}, errDuplicateMessage(kind, signed.Validator)
	}

	switch kind {
	case KindPrepareRequest:
		e.state.received[key] = signed
		e.state.hasProposal = true
		e.state.proposal = signed.Message.Proposal
		e.state.proposalTxHashes = signed.Message.TxHashes
		return QuorumDecision{Kind: DecisionPending}, nil

	case KindPrepareResponse, KindCommit:
		e.state.received[key] = signed
		quorum := e.validators.Quorum()
		count := e.state.countKind(kind)
		if count < quorum {
			return QuorumDecision{Kind: DecisionPending}, nil
		}
		missing := e.missingFrom(e.expectedParticipantsLocked(kind), e.state.validatorsForKind(kind))
		return QuorumDecision{Kind: DecisionProposal, MsgKind: kind, Proposal: e.state.proposal, Missing: missing}, nil

	case KindChangeView:
		e.state.changeViewIntents[signed.Validator] = signed.Message.NewView
		quorum := e.validators.Quorum()
		count := e.state.countChangeView(signed.Message.NewView)
		if count < quorum {
			return QuorumDecision{Kind: DecisionPending}, nil
		}
		var participants []types.ValidatorID
		for v, nv := range e.state.changeViewIntents {
			if nv == signed.Message.NewView {
				participants = append(participants, v)
			}
		}
		missing := e.missingFrom(e.allValidatorIDs(), participants)
		e.state.view = signed.Message.NewView
		e.state.resetRound()
		return QuorumDecision{Kind: DecisionViewChange, NewView: signed.Message.NewView, Missing: missing}, nil
	}

	return QuorumDecision{}, errMissingProposal()
}

// AdvanceHeight moves the engine to newHeight, which must equal Height()+1.
// View resets to 0 and all round state clears.
func (e *Engine) AdvanceHeight(newHeight uint64) error {
	if newHeight != e.state.height+1 {
		return errInvalidHeightTransition("height must advance by exactly one")
	}
	e.state = newSnapshotState(newHeight)
	return nil
}

// ExpectedParticipants reports, for logging/reconciliation, which
// validators are expected to send a message of kind in the current round.
func (e *Engine) ExpectedParticipants(kind MessageKind) []types.ValidatorID {
	return e.expectedParticipantsLocked(kind)
}

func (e *Engine) expectedParticipantsLocked(kind MessageKind) []types.ValidatorID {
	switch kind {
	case KindPrepareRequest:
		return []types.ValidatorID{e.Primary()}
	case KindPrepareResponse, KindCommit:
		return e.state.validatorsForKind(KindPrepareResponse)
	case KindChangeView:
		if len(e.state.changeViewIntents) == 0 {
			return nil
		}
		return e.allValidatorIDs()
	default:
		return nil
	}
}

func (e *Engine) allValidatorIDs() []types.ValidatorID {
	all := e.validators.All()
	out := make([]types.ValidatorID, len(all))
	for i, v := range all {
		out[i] = v.ID
	}
	return out
}

func (e *Engine) missingFrom(expected, have []types.ValidatorID) []types.ValidatorID {
	haveSet := make(map[types.ValidatorID]bool, len(have))
	for _, v := range have {
		haveSet[v] = true
	}
	var missing []types.ValidatorID
	for _, v := range expected {
		if !haveSet[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

// ReplayOutcome tags whether a replayed message applied or was skipped.
type ReplayOutcome byte

const (
	ReplaySkipped ReplayOutcome = iota
	ReplayApplied
)

// ReplayResult pairs a replayed message's outcome with its decision, if any.
type ReplayResult struct {
	Outcome  ReplayOutcome
	Decision QuorumDecision
	Err      error
}

// ReplayMessages applies each message in order via ProcessMessage,
// consuming the entire sequence regardless of individual failures.
func (e *Engine) ReplayMessages(messages []SignedMessage) []ReplayResult {
	out := make([]ReplayResult, len(messages))
	for i, m := range messages {
		decision, err := e.ProcessMessage(m)
		if err != nil {
			out[i] = ReplayResult{Outcome: ReplaySkipped, Err: err}
			continue
		}
		out[i] = ReplayResult{Outcome: ReplayApplied, Decision: decision}
	}
	return out
}
