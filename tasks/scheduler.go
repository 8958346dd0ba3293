// Package tasks implements the block-sync task scheduler: per-peer
// inventory and index task tracking that fans out header/block requests,
// enforces timeouts, and disconnects peers that misbehave.
package tasks

import (
	"sync"
	"time"

	"neonode.dev/core/collab"
	"neonode.dev/core/types"
)

// LedgerView is the minimal ledger surface the scheduler consults to avoid
// re-requesting already-persisted data.
type LedgerView interface {
	CurrentIndex() (uint32, bool, error)
	ContainsBlock(hash types.UInt256) (bool, error)
}

// ThrottlePolicy reports whether a peer has accumulated enough misbehaviour
// (per the network error handler's ban score) that its next task should be
// held back rather than issued immediately. Satisfied by *netpolicy.Handler.
type ThrottlePolicy interface {
	ShouldThrottle(peerID string) bool
}

// GetData asks a peer for the bodies of the named inventory items.
type GetData struct {
	Type   types.InvType
	Hashes []types.UInt256
}

// GetHeaders asks a peer for up to count headers starting at index start.
type GetHeaders struct {
	Start uint32
	Count int
}

// GetBlockByIndex asks a peer for count consecutive blocks starting at
// index start.
type GetBlockByIndex struct {
	Start uint32
	Count int
}

// MempoolRequest asks a peer to relay its mempool contents once.
type MempoolRequest struct{}

// Scheduler is the single-threaded (per instance) actor described in
// component E. All handlers run serially; callers must not invoke methods
// concurrently from more than one goroutine.
type Scheduler struct {
	mu sync.Mutex

	sessions map[string]*Session

	invTaskCounts   map[types.UInt256]int
	indexTaskCounts map[uint32]int

	knownHashes     []types.UInt256
	knownHashSet    map[types.UInt256]struct{}
	knownCapacity   int

	ledger   LedgerView
	sink     collab.PeerSink
	throttle ThrottlePolicy
}

// New constructs a Scheduler. mempoolCapacity sizes the known-hash dedupe
// FIFO (max(mempoolCapacity, 1024)).
func New(ledger LedgerView, sink collab.PeerSink, mempoolCapacity int) *Scheduler {
	cap := mempoolCapacity
	if cap < knownHashCapacityFloor {
		cap = knownHashCapacityFloor
	}
	return &Scheduler{
		sessions:        make(map[string]*Session),
		invTaskCounts:   make(map[types.UInt256]int),
		indexTaskCounts: make(map[uint32]int),
		knownHashSet:    make(map[types.UInt256]struct{}),
		knownCapacity:   cap,
		ledger:          ledger,
		sink:            sink,
	}
}

// SetThrottlePolicy installs the ban-score-driven throttle consulted by
// scheduleLocked before issuing a peer's next task. A nil policy (the
// default) never throttles.
func (s *Scheduler) SetThrottlePolicy(tp ThrottlePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = tp
}

// throttledLocked reports whether peerID's next task should be held back
// this round rather than issued immediately. The caller already owns s.mu.
func (s *Scheduler) throttledLocked(peerID string) bool {
	return s.throttle != nil && s.throttle.ShouldThrottle(peerID)
}

// Register creates a session for peerID and schedules its initial task
// request.
func (s *Scheduler) Register(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[peerID]; ok {
		return
	}
	sess := newSession(peerID)
	s.sessions[peerID] = sess
	s.scheduleLocked(sess)
}

// Update bumps peerID's known tip and retriggers scheduling.
func (s *Scheduler) Update(peerID string, lastBlockIndex uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.takeLocked(peerID)
	if !ok {
		return
	}
	sess.LastBlockIndex = lastBlockIndex
	s.reinsertLocked(sess)
	s.scheduleLocked(sess)
}

// NewTasks filters hashes against known-hash bookkeeping and the ledger;
// for unseen hashes not currently scheduled, it claims a global inv-task
// slot per hash (bounded by MaxConcurrentTasks) and registers them on the
// session, then emits a batched GetData.
func (s *Scheduler) NewTasks(peerID string, invType types.InvType, hashes []types.UInt256) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.takeLocked(peerID)
	if !ok {
		return
	}
	defer func() { s.reinsertLocked(sess); s.scheduleLocked(sess) }()

	if s.throttledLocked(peerID) {
		return
	}

	var toRequest []types.UInt256
	for _, h := range hashes {
		if s.isKnownLocked(h) {
			continue
		}
		if ok, _ := s.ledger.ContainsBlock(h); ok {
			continue
		}
		if _, scheduled := sess.InvTasks[h]; scheduled {
			continue
		}
		if s.invTaskCounts[h] >= MaxConcurrentTasks {
			continue
		}
		s.invTaskCounts[h]++
		sess.InvTasks[h] = s.now()
		toRequest = append(toRequest, h)
	}
	if len(toRequest) > 0 && s.sink != nil {
		_ = s.sink.Send(peerID, GetData{Type: invType, Hashes: toRequest})
	}
}

// RestartTasks forgets prior known-state for hashes and re-schedules them.
func (s *Scheduler) RestartTasks(peerID string, invType types.InvType, hashes []types.UInt256) {
	s.mu.Lock()
	for _, h := range hashes {
		delete(s.knownHashSet, h)
	}
	s.removeKnownFromListLocked(hashes)
	s.mu.Unlock()
	s.NewTasks(peerID, invType, hashes)
}

// Headers marks the synthetic header task complete for peerID.
func (s *Scheduler) Headers(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.takeLocked(peerID)
	if !ok {
		return
	}
	s.completeInvTaskLocked(sess, HeaderTaskHash)
	s.reinsertLocked(sess)
	s.scheduleLocked(sess)
}

// InventoryCompleted marks a hash/index pair complete for peerID's session,
// adds the hash to the known-hash set, and records the block under its
// index. If a different block is already
// recorded at that index, the peer is disconnected for a conflicting
// delivery and not rescheduled.
func (s *Scheduler) InventoryCompleted(peerID string, hash types.UInt256, block *types.Block, index *uint32) {
	s.mu.Lock()
	sess, ok := s.takeLocked(peerID)
	if !ok {
		s.mu.Unlock()
		return
	}

	s.completeInvTaskLocked(sess, hash)
	s.rememberKnownLocked(hash)
	if index != nil {
		s.completeIndexTaskLocked(sess, *index)
		if block != nil {
			if existing, ok := sess.ReceivedBlock[*index]; ok {
				if !blockHashEqual(existing, *block) {
					s.mu.Unlock()
					if s.sink != nil {
						s.sink.Disconnect(peerID, "conflicting block received")
					}
					return
				}
			}
			sess.ReceivedBlock[*index] = *block
		}
	}

	s.reinsertLocked(sess)
	s.scheduleLocked(sess)
	s.mu.Unlock()
}

// blockHashEqual is a structural stand-in: two delivered payloads for the
// same index conflict unless their headers match exactly. Hashing is owned
// by the ledger; the scheduler only needs to detect a mismatch, not
// recompute a canonical hash.
func blockHashEqual(a, b types.Block) bool {
	return a.Header.PrevHash.Equals(b.Header.PrevHash) &&
		a.Header.MerkleRoot.Equals(b.Header.MerkleRoot) &&
		a.Header.Timestamp == b.Header.Timestamp &&
		a.Header.Index == b.Header.Index
}

// TimerTick expires inv-tasks and index-tasks older than TaskTimeout across
// every session, decrements the global counters accordingly, and
// retriggers scheduling.
func (s *Scheduler) TimerTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-TaskTimeout)
	for peerID, sess := range s.sessions {
		delete(s.sessions, peerID)
		for h, t := range sess.InvTasks {
			if t.Before(cutoff) {
				s.decrementInvLocked(h)
				delete(sess.InvTasks, h)
			}
		}
		for idx, t := range sess.IndexTasks {
			if t.Before(cutoff) {
				s.decrementIndexLocked(idx)
				delete(sess.IndexTasks, idx)
			}
		}
		s.sessions[peerID] = sess
		s.scheduleLocked(sess)
	}
}

// PersistCompleted removes every session's recorded entry at block.Index.
// Sessions whose recorded hash matches are rescheduled; sessions whose
// recorded hash differs are disconnected.
func (s *Scheduler) PersistCompleted(block types.Block) {
	s.mu.Lock()
	type disconnect struct{ peerID string }
	var toDisconnect []disconnect
	for peerID, sess := range s.sessions {
		existing, had := sess.ReceivedBlock[block.Header.Index]
		delete(sess.ReceivedBlock, block.Header.Index)
		if had && !blockHashEqual(existing, block) {
			toDisconnect = append(toDisconnect, disconnect{peerID})
			continue
		}
		s.scheduleLocked(sess)
	}
	s.mu.Unlock()
	for _, d := range toDisconnect {
		if s.sink != nil {
			s.sink.Disconnect(d.peerID, "persisted block mismatch")
		}
	}
}

// RelayResult handles an Invalid verdict for a block hash at block_index:
// every session carrying that block is disconnected, then rescheduled
// sessions are retriggered.
func (s *Scheduler) RelayResult(hash types.UInt256, blockIndex uint32) {
	s.mu.Lock()
	var toDisconnect []string
	for peerID, sess := range s.sessions {
		_, hasInv := sess.InvTasks[hash]
		_, hasBlock := sess.ReceivedBlock[blockIndex]
		if hasInv || hasBlock {
			toDisconnect = append(toDisconnect, peerID)
		}
	}
	for _, sess := range s.sessions {
		s.scheduleLocked(sess)
	}
	s.mu.Unlock()
	for _, peerID := range toDisconnect {
		if s.sink != nil {
			s.sink.Disconnect(peerID, "relayed invalid block")
		}
	}
}

// Terminated drops peerID's session and decrements every counter it held.
func (s *Scheduler) Terminated(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[peerID]
	if !ok {
		return
	}
	delete(s.sessions, peerID)
	for h := range sess.InvTasks {
		s.decrementInvLocked(h)
	}
	for idx := range sess.IndexTasks {
		s.decrementIndexLocked(idx)
	}
}

func (s *Scheduler) now() time.Time { return time.Now() }

func (s *Scheduler) completeInvTaskLocked(sess *Session, hash types.UInt256) {
	if _, ok := sess.InvTasks[hash]; ok {
		delete(sess.InvTasks, hash)
		s.decrementInvLocked(hash)
	}
}

func (s *Scheduler) completeIndexTaskLocked(sess *Session, index uint32) {
	if _, ok := sess.IndexTasks[index]; ok {
		delete(sess.IndexTasks, index)
		s.decrementIndexLocked(index)
	}
}

func (s *Scheduler) decrementInvLocked(hash types.UInt256) {
	if n, ok := s.invTaskCounts[hash]; ok {
		if n <= 1 {
			delete(s.invTaskCounts, hash)
		} else {
			s.invTaskCounts[hash] = n - 1
		}
	}
}

func (s *Scheduler) decrementIndexLocked(index uint32) {
	if n, ok := s.indexTaskCounts[index]; ok {
		if n <= 1 {
			delete(s.indexTaskCounts, index)
		} else {
			s.indexTaskCounts[index] = n - 1
		}
	}
}

// takeLocked removes peerID's session from the map for the duration of a
// handler's manipulation, guaranteeing no reentrant observer sees a
// partially-mutated session.
func (s *Scheduler) takeLocked(peerID string) (*Session, bool) {
	sess, ok := s.sessions[peerID]
	if !ok {
		return nil, false
	}
	delete(s.sessions, peerID)
	return sess, true
}

func (s *Scheduler) reinsertLocked(sess *Session) {
	s.sessions[sess.PeerID] = sess
}

func (s *Scheduler) isKnownLocked(h types.UInt256) bool {
	_, ok := s.knownHashSet[h]
	return ok
}

func (s *Scheduler) rememberKnownLocked(h types.UInt256) {
	if _, ok := s.knownHashSet[h]; ok {
		return
	}
	s.knownHashSet[h] = struct{}{}
	s.knownHashes = append(s.knownHashes, h)
	if len(s.knownHashes) > s.knownCapacity {
		oldest := s.knownHashes[0]
		s.knownHashes = s.knownHashes[1:]
		delete(s.knownHashSet, oldest)
	}
}

func (s *Scheduler) removeKnownFromListLocked(hashes []types.UInt256) {
	remove := make(map[types.UInt256]struct{}, len(hashes))
	for _, h := range hashes {
		remove[h] = struct{}{}
	}
	filtered := s.knownHashes[:0]
	for _, h := range s.knownHashes {
		if _, drop := remove[h]; !drop {
			filtered = append(filtered, h)
		}
	}
	s.knownHashes = filtered
}

// scheduleLocked implements the per-session scheduling logic bounded by
// MaxConcurrentTasks total in-flight.
func (s *Scheduler) scheduleLocked(sess *Session) {
	if s.throttledLocked(sess.PeerID) {
		return
	}
	if len(sess.AvailableTasks) > 0 {
		s.scheduleAvailableLocked(sess)
		return
	}

	current, _, err := s.ledger.CurrentIndex()
	if err != nil {
		return
	}

	if current < sess.LastBlockIndex && s.invTaskCounts[HeaderTaskHash] < MaxConcurrentTasks {
		if _, scheduled := sess.InvTasks[HeaderTaskHash]; !scheduled {
			s.invTaskCounts[HeaderTaskHash]++
			sess.InvTasks[HeaderTaskHash] = s.now()
			if s.sink != nil {
				_ = s.sink.Send(sess.PeerID, GetHeaders{Start: current + 1, Count: HeaderPrefetchCount})
			}
			return
		}
	}

	if current < sess.LastBlockIndex {
		start, count := s.findContiguousRunLocked(sess, current)
		if count > 0 {
			granted := s.claimIndexSlotsLocked(sess, start, count)
			if granted > 0 && s.sink != nil {
				_ = s.sink.Send(sess.PeerID, GetBlockByIndex{Start: start, Count: granted})
			}
			return
		}
	}

	if !sess.MempoolSent {
		sess.MempoolSent = true
		if s.sink != nil {
			_ = s.sink.Send(sess.PeerID, MempoolRequest{})
		}
	}
}

func (s *Scheduler) scheduleAvailableLocked(sess *Session) {
	var toRequest []types.UInt256
	for h := range sess.AvailableTasks {
		if s.isKnownLocked(h) {
			delete(sess.AvailableTasks, h)
			continue
		}
		if ok, _ := s.ledger.ContainsBlock(h); ok {
			delete(sess.AvailableTasks, h)
			continue
		}
		if s.invTaskCounts[h] >= MaxConcurrentTasks {
			continue
		}
		s.invTaskCounts[h]++
		sess.InvTasks[h] = s.now()
		delete(sess.AvailableTasks, h)
		toRequest = append(toRequest, h)
	}
	if len(toRequest) > 0 && s.sink != nil {
		_ = s.sink.Send(sess.PeerID, GetData{Type: types.InvTypeBlock, Hashes: toRequest})
	}
}

// findContiguousRunLocked finds the longest run of indices starting at
// current+1 with neither a pending index-task nor a received-block entry,
// bounded by MaxHashesCount.
func (s *Scheduler) findContiguousRunLocked(sess *Session, current uint32) (uint32, int) {
	start := current + 1
	count := 0
	for idx := start; count < MaxHashesCount && idx <= sess.LastBlockIndex; idx++ {
		if _, pending := sess.IndexTasks[idx]; pending {
			break
		}
		if _, received := sess.ReceivedBlock[idx]; received {
			break
		}
		count++
	}
	return start, count
}

func (s *Scheduler) claimIndexSlotsLocked(sess *Session, start uint32, count int) int {
	granted := 0
	for i := 0; i < count; i++ {
		idx := start + uint32(i)
		if s.indexTaskCounts[idx] >= MaxConcurrentTasks {
			break
		}
		s.indexTaskCounts[idx]++
		sess.IndexTasks[idx] = s.now()
		granted++
	}
	return granted
}
