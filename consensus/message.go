package consensus

import "neonode.dev/core/types"

// MessageKind tags the variant held by a ConsensusMessage.
type MessageKind byte

const (
	KindPrepareRequest MessageKind = iota
	KindPrepareResponse
	KindCommit
	KindChangeView
)

func (k MessageKind) String() string {
	switch k {
	case KindPrepareRequest:
		return "PrepareRequest"
	case KindPrepareResponse:
		return "PrepareResponse"
	case KindCommit:
		return "Commit"
	case KindChangeView:
		return "ChangeView"
	default:
		return "Unknown"
	}
}

// ChangeViewReason records why a validator requested a view change.
type ChangeViewReason byte

const (
	ReasonTimeout ChangeViewReason = iota
	ReasonChangeAgreement
	ReasonTxNotFound
	ReasonTxRejectedByPolicy
	ReasonTxInvalid
	ReasonBlockRejectedByPolicy
)

// ConsensusMessage is a tagged union over the four dBFT message shapes.
// Only the fields relevant to Kind are meaningful.
type ConsensusMessage struct {
	Kind MessageKind

	// PrepareRequest
	Proposal types.UInt256
	TxHashes []types.UInt256

	// ChangeView
	NewView uint16
	Reason  ChangeViewReason
}

// SignedMessage is a ConsensusMessage attributed to a validator at a given
// (height, view), together with its signature over Digest().
type SignedMessage struct {
	Height    uint64
	View      uint16
	Validator types.ValidatorID
	Message   ConsensusMessage
	Signature []byte
}

// Digest returns the bytes the signature commits to: the message serialized
// with the signature field absent (there is none in this struct to zero),
// hashed by the caller with sha256 via the HashFn collaborator. This
// function returns the canonical pre-image; hashing it is left to the
// caller so the engine never depends on a concrete hash implementation.
func (m SignedMessage) Digest() []byte {
	buf := make([]byte, 0, 64)
	buf = appendU64(buf, m.Height)
	buf = appendU16(buf, m.View)
	buf = appendU16(buf, uint16(m.Validator))
	buf = append(buf, byte(m.Message.Kind))
	switch m.Message.Kind {
	case KindPrepareRequest:
		buf = append(buf, m.Message.Proposal.Bytes()...)
		buf = appendU32(buf, uint32(len(m.Message.TxHashes)))
		for _, h := range m.Message.TxHashes {
			buf = append(buf, h.Bytes()...)
		}
	case KindPrepareResponse, KindCommit:
		buf = append(buf, m.Message.Proposal.Bytes()...)
	case KindChangeView:
		buf = appendU16(buf, m.Message.NewView)
		buf = append(buf, byte(m.Message.Reason))
	}
	return buf
}

func appendU16(dst []byte, v uint16) []byte {
	return append(dst, byte(v), byte(v>>8))
}

func appendU32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
