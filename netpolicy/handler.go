package netpolicy

import (
	"sync"
	"time"
)

// FailureRecord tracks a peer's accumulated failures.
type FailureRecord struct {
	Count int
	First time.Time
	Last  time.Time
}

// OpContext tracks an in-flight operation's last-seen timestamp, used by
// the maintenance sweep to drop orphaned tasks.
type OpContext struct {
	OpID     string
	Peer     string
	LastSeen time.Time
}

// PeerFailedEvent is emitted when a Critical-severity error disconnects a
// peer (per the spec's "Critical-severity network errors trigger peer
// disconnection and a PeerFailed event").
type PeerFailedEvent struct {
	Peer string
	Kind ErrorKind
}

// Disconnector is the transport collaborator a Handler disconnects a peer
// through on Critical-severity errors.
type Disconnector interface {
	Disconnect(peerID string, reason string)
}

// EventSink receives PeerFailedEvent and NetworkPartitionDetected
// notifications.
type EventSink interface {
	Emit(event any)
}

// Handler is the NetworkErrorHandler: it classifies errors, tracks peer
// failures, and runs the retry executor.
type Handler struct {
	mu sync.Mutex

	failures   map[string]*FailureRecord
	opContexts map[string]*OpContext

	disconnect Disconnector
	events     EventSink
	sleeper    Sleeper
	opTimeout  time.Duration

	knownPeers func() int

	hasher     GroupHasher
	peerGroups map[string]uint32

	banScores map[string]*BanScore
}

// NewHandler constructs a Handler. knownPeers reports the current size of
// the known-peer set, used by the partition-detection sweep; it may be nil
// if partition detection is not wired.
func NewHandler(disconnect Disconnector, events EventSink, knownPeers func() int) *Handler {
	return &Handler{
		failures:   make(map[string]*FailureRecord),
		opContexts: make(map[string]*OpContext),
		disconnect: disconnect,
		events:     events,
		sleeper:    RealSleeper{},
		opTimeout:  DefaultTimeout,
		knownPeers: knownPeers,
		peerGroups: make(map[string]uint32),
		banScores:  make(map[string]*BanScore),
	}
}

// SetGroupHasher installs the netgroup hasher used to bucket peers for
// eclipse-style partition detection. Without it, RecordPeerAddr is a no-op
// and Sweep only ever reports the plain failed/known ratio.
func (h *Handler) SetGroupHasher(hasher GroupHasher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasher = hasher
}

// RecordPeerAddr associates peer with its netgroup, derived from addr (its
// dialed or advertised network address). Call this on connect; it is a
// no-op until a GroupHasher has been installed.
func (h *Handler) RecordPeerAddr(peer, addr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasher == nil {
		return
	}
	h.peerGroups[peer] = NetGroup(h.hasher, addr)
}

// HandleError classifies err's kind and applies the resulting
// RecoveryStrategy: Critical disconnects the peer and emits PeerFailedEvent
// in addition to recording the failure; all strategies are returned so a
// caller driving its own retry loop (outside ExecuteWithRetry) can act on
// them directly.
func (h *Handler) HandleError(peer string, kind ErrorKind) RecoveryStrategy {
	sev := ClassifySeverity(kind)
	strategy := StrategyFor(sev)
	banned := h.recordBanScore(peer, sev)

	if sev == SeverityCritical || banned {
		h.recordFailure(peer)
		if h.disconnect != nil {
			h.disconnect.Disconnect(peer, kind.String())
		}
		if h.events != nil {
			h.events.Emit(PeerFailedEvent{Peer: peer, Kind: kind})
		}
		return MarkAsFailed
	}
	return strategy
}

func (h *Handler) recordFailure(peer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	rec, ok := h.failures[peer]
	if !ok {
		rec = &FailureRecord{First: now}
		h.failures[peer] = rec
	}
	rec.Count++
	rec.Last = now
}

func (h *Handler) clearFailure(peer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, peer)
}

func (h *Handler) recordOpContext(opID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ctx, ok := h.opContexts[opID]
	if !ok {
		ctx = &OpContext{OpID: opID}
		h.opContexts[opID] = ctx
	}
	ctx.LastSeen = time.Now()
}

func (h *Handler) dropOpContext(opID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.opContexts, opID)
}

// FailureRecordFor returns a peer's failure record, for tests and
// diagnostics.
func (h *Handler) FailureRecordFor(peer string) (FailureRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.failures[peer]
	if !ok {
		return FailureRecord{}, false
	}
	return *rec, true
}

// FailedPeerCount reports how many peers currently have an open failure
// record.
func (h *Handler) FailedPeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failures)
}
