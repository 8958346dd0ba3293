package consensus

import (
	"fmt"

	"neonode.dev/core/types"
)

// ErrorKind enumerates the closed set of consensus failures process_message
// can report. Every one of these leaves engine state unchanged.
type ErrorKind string

const (
	ErrInvalidSignature       ErrorKind = "InvalidSignature"
	ErrUnknownValidator       ErrorKind = "UnknownValidator"
	ErrInvalidPrimary         ErrorKind = "InvalidPrimary"
	ErrStaleMessage           ErrorKind = "StaleMessage"
	ErrDuplicateMessage       ErrorKind = "DuplicateMessage"
	ErrMissingProposal        ErrorKind = "MissingProposal"
	ErrProposalMismatch       ErrorKind = "ProposalMismatch"
	ErrMissingPrepareResponse ErrorKind = "MissingPrepareResponse"
	ErrInvalidHeightTransition ErrorKind = "InvalidHeightTransition"
)

// Error is the single error type returned by the consensus engine; Kind
// selects which named case applies and the remaining fields carry whatever
// context that case defines.
type Error struct {
	Kind      ErrorKind
	Validator types.ValidatorID
	Expected  types.ValidatorID
	Actual    types.ValidatorID
	MsgKind   MessageKind
	Detail    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidSignature:
		return fmt.Sprintf("consensus: invalid signature from validator %d", e.Validator)
	case ErrUnknownValidator:
		return fmt.Sprintf("consensus: unknown validator %d", e.Validator)
	case ErrInvalidPrimary:
		return fmt.Sprintf("consensus: invalid primary: expected %d, got %d", e.Expected, e.Actual)
	case ErrStaleMessage:
		return fmt.Sprintf("consensus: stale %s message", e.MsgKind)
	case ErrDuplicateMessage:
		return fmt.Sprintf("consensus: duplicate %s from validator %d", e.MsgKind, e.Validator)
	case ErrMissingProposal:
		return "consensus: no proposal registered for this (height, view)"
	case ErrProposalMismatch:
		return "consensus: proposal hash does not match the registered proposal"
	case ErrMissingPrepareResponse:
		return fmt.Sprintf("consensus: missing prior PrepareResponse from validator %d", e.Validator)
	case ErrInvalidHeightTransition:
		return fmt.Sprintf("consensus: invalid height transition: %s", e.Detail)
	default:
		return fmt.Sprintf("consensus: %s", e.Kind)
	}
}

func errInvalidSignature(v types.ValidatorID) error {
	return &Error{Kind: ErrInvalidSignature, Validator: v}
}

func errUnknownValidator(v types.ValidatorID) error {
	return &Error{Kind: ErrUnknownValidator, Validator: v}
}

func errInvalidPrimary(expected, actual types.ValidatorID) error {
	return &Error{Kind: ErrInvalidPrimary, Expected: expected, Actual: actual}
}

func errStaleMessage(kind MessageKind) error {
	return &Error{Kind: ErrStaleMessage, MsgKind: kind}
}

func errDuplicateMessage(kind MessageKind, v types.ValidatorID) error {
	return &Error{Kind: ErrDuplicateMessage, MsgKind: kind, Validator: v}
}

func errMissingProposal() error {
	return &Error{Kind: ErrMissingProposal}
}

func errProposalMismatch() error {
	return &Error{Kind: ErrProposalMismatch}
}

func errMissingPrepareResponse(v types.ValidatorID) error {
	return &Error{Kind: ErrMissingPrepareResponse, Validator: v}
}

func errInvalidHeightTransition(detail string) error {
	return &Error{Kind: ErrInvalidHeightTransition, Detail: detail}
}
