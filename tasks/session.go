package tasks

import (
	"time"

	"neonode.dev/core/types"
)

// HeaderTaskHash is the synthetic all-zero hash used to track the
// outstanding header-prefetch task in the same inv-task bookkeeping as
// real block hashes.
var HeaderTaskHash = types.UInt256Zero

// Session is the per-peer scheduling state. It is exclusively owned by the
// Scheduler, which is its only mutator.
type Session struct {
	PeerID          string
	LastBlockIndex  uint32
	MempoolSent     bool
	InvTasks        map[types.UInt256]time.Time
	IndexTasks      map[uint32]time.Time
	AvailableTasks  map[types.UInt256]struct{}
	ReceivedBlock   map[uint32]types.Block
}

func newSession(peerID string) *Session {
	return &Session{
		PeerID:         peerID,
		InvTasks:       make(map[types.UInt256]time.Time),
		IndexTasks:     make(map[uint32]time.Time),
		AvailableTasks: make(map[types.UInt256]struct{}),
		ReceivedBlock:  make(map[uint32]types.Block),
	}
}
