package tasks

import "neonode.dev/core/types"

// PeerConnected is raised once a handshake with peerID completes.
type PeerConnected struct {
	PeerID         string
	LastBlockIndex uint32
}

// PeerDisconnected is raised when a peer's transport session ends for any
// reason; it maps to Scheduler.Terminated.
type PeerDisconnected struct {
	PeerID string
}

// PeerAnnouncedHeight is raised on a ping/version update carrying a peer's
// current tip; it maps to Scheduler.Update.
type PeerAnnouncedHeight struct {
	PeerID         string
	LastBlockIndex uint32
}

// InvReceived is raised when a peer advertises new inventory; it maps to
// Scheduler.NewTasks.
type InvReceived struct {
	PeerID string
	Type   types.InvType
	Hashes []types.UInt256
}

// HeadersReceived is raised when a peer delivers the headers batch for an
// outstanding header-prefetch task; it maps to Scheduler.Headers.
type HeadersReceived struct {
	PeerID  string
	Headers []types.BlockHeader
}

// BlockReceived is raised when a peer delivers a full block for an
// outstanding index or inventory task; it maps to
// Scheduler.InventoryCompleted.
type BlockReceived struct {
	PeerID string
	Hash   types.UInt256
	Index  uint32
	Block  types.Block
}

// TransactionReceived is raised when a peer delivers a transaction for an
// outstanding inventory task; it maps to Scheduler.InventoryCompleted with
// a nil index.
type TransactionReceived struct {
	PeerID string
	Hash   types.UInt256
}

// Dispatch routes one inbound event to the matching Scheduler handler. It
// is the single entry point a transport adapter needs to drive the
// scheduler from whatever concrete message types it decodes off the wire.
func (s *Scheduler) Dispatch(event any) {
	switch e := event.(type) {
	case PeerConnected:
		s.Register(e.PeerID)
		s.Update(e.PeerID, e.LastBlockIndex)
	case PeerDisconnected:
		s.Terminated(e.PeerID)
	case PeerAnnouncedHeight:
		s.Update(e.PeerID, e.LastBlockIndex)
	case InvReceived:
		s.NewTasks(e.PeerID, e.Type, e.Hashes)
	case HeadersReceived:
		s.Headers(e.PeerID)
	case BlockReceived:
		idx := e.Index
		s.InventoryCompleted(e.PeerID, e.Hash, &e.Block, &idx)
	case TransactionReceived:
		s.InventoryCompleted(e.PeerID, e.Hash, nil, nil)
	}
}
