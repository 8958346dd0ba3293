package netpolicy

import "time"

const (
	failureRecordTTL = time.Hour
	opContextTTL     = 5 * time.Minute
	partitionRatio   = 0.5
)

// NetworkPartitionDetected is emitted when the fraction of known peers
// currently marked failed exceeds partitionRatio. DominantGroup and
// GroupShare describe the largest single netgroup among the failed peers,
// when a GroupHasher has been installed: a high GroupShare means the
// failures cluster in one address range rather than spreading evenly,
// which points at a localized link or eclipse attempt rather than this
// node's own connectivity.
type NetworkPartitionDetected struct {
	Failed        int
	Known         int
	Ratio         float64
	DominantGroup uint32
	GroupShare    float64
}

// Sweep runs the periodic maintenance pass: drops failure records whose
// last failure is older than failureRecordTTL, drops op contexts orphaned
// for longer than opContextTTL, and emits NetworkPartitionDetected if the
// failed/known ratio exceeds partitionRatio.
func (h *Handler) Sweep() {
	h.mu.Lock()
	now := time.Now()
	for peer, rec := range h.failures {
		if now.Sub(rec.Last) > failureRecordTTL {
			delete(h.failures, peer)
			delete(h.peerGroups, peer)
		}
	}
	for opID, ctx := range h.opContexts {
		if now.Sub(ctx.LastSeen) > opContextTTL {
			delete(h.opContexts, opID)
		}
	}
	failed := len(h.failures)
	dominantGroup, dominantCount := dominantGroupLocked(h.failures, h.peerGroups)
	h.mu.Unlock()

	if h.knownPeers == nil {
		return
	}
	known := h.knownPeers()
	if known <= 0 {
		return
	}
	ratio := float64(failed) / float64(known)
	if ratio > partitionRatio && h.events != nil {
		share := 0.0
		if failed > 0 {
			share = float64(dominantCount) / float64(failed)
		}
		h.events.Emit(NetworkPartitionDetected{
			Failed:        failed,
			Known:         known,
			Ratio:         ratio,
			DominantGroup: dominantGroup,
			GroupShare:    share,
		})
	}
}

func dominantGroupLocked(failures map[string]*FailureRecord, peerGroups map[string]uint32) (uint32, int) {
	counts := make(map[uint32]int)
	for peer := range failures {
		group, ok := peerGroups[peer]
		if !ok {
			continue
		}
		counts[group]++
	}
	var best uint32
	var bestCount int
	for group, count := range counts {
		if count > bestCount {
			best, bestCount = group, count
		}
	}
	return best, bestCount
}
