package netpolicy

import "time"

const (
	banThreshold      = 100
	throttleThreshold = 50

	// banScoreDecaysPerMinute lets a peer recover from transient trouble
	// instead of staying banned forever on the strength of one bad burst.
	banScoreDecaysPerMinute = 1
)

// BanScore is a decaying misbehaviour counter for a single peer, adapted
// from the network layer's peer-scoring primitive: it is a policy signal,
// never a consensus one.
type BanScore struct {
	score       int
	lastUpdated time.Time
}

// Score returns the current score after applying any decay owed since the
// last update.
func (b *BanScore) Score(now time.Time) int {
	b.decayTo(now)
	return b.score
}

// Add applies delta (which may be negative, though callers normally only
// add positive penalties) and returns the resulting score.
func (b *BanScore) Add(now time.Time, delta int) int {
	b.decayTo(now)
	b.score += delta
	if b.score < 0 {
		b.score = 0
	}
	return b.score
}

// ShouldBan reports whether the peer has crossed banThreshold.
func (b *BanScore) ShouldBan(now time.Time) bool {
	return b.Score(now) >= banThreshold
}

// ShouldThrottle reports whether the peer has crossed throttleThreshold,
// short of an outright ban.
func (b *BanScore) ShouldThrottle(now time.Time) bool {
	return b.Score(now) >= throttleThreshold
}

func (b *BanScore) decayTo(now time.Time) {
	if b.lastUpdated.IsZero() {
		b.lastUpdated = now
		return
	}
	if now.Before(b.lastUpdated) {
		b.lastUpdated = now
		return
	}
	minutes := int(now.Sub(b.lastUpdated) / time.Minute)
	if minutes <= 0 {
		return
	}
	b.score -= minutes * banScoreDecaysPerMinute
	if b.score < 0 {
		b.score = 0
	}
	b.lastUpdated = now
}

// banScoreDelta maps an error's Severity to the penalty added to the
// offending peer's BanScore. Low-severity errors (the ones StrategyFor
// already retries immediately) don't move the score at all; only the
// strategies that already imply something is wrong with the peer do.
func banScoreDelta(sev Severity) int {
	switch sev {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 5
	case SeverityHigh:
		return 20
	case SeverityCritical:
		return 40
	default:
		return 0
	}
}

// recordBanScore applies sev's penalty to peer's BanScore and reports
// whether the peer has now crossed banThreshold.
func (h *Handler) recordBanScore(peer string, sev Severity) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.banScores == nil {
		h.banScores = make(map[string]*BanScore)
	}
	bs, ok := h.banScores[peer]
	if !ok {
		bs = &BanScore{}
		h.banScores[peer] = bs
	}
	now := time.Now()
	bs.Add(now, banScoreDelta(sev))
	return bs.ShouldBan(now)
}

// ShouldThrottle reports whether peer has accumulated enough misbehaviour to
// be throttled rather than banned outright. tasks.Scheduler consults this
// (via the ThrottlePolicy interface) to hold back a peer's next task instead
// of issuing it immediately.
func (h *Handler) ShouldThrottle(peer string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	bs, ok := h.banScores[peer]
	if !ok {
		return false
	}
	return bs.ShouldThrottle(time.Now())
}
