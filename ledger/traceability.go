package ledger

// IsTraceable implements I2 / P6: an entity persisted at height target is
// traceable from height current iff target <= current and
// target + max > current. Read operations that accept a historical
// reference must apply this after lookup and report non-traceable hits as
// absent.
func IsTraceable(current, target, max uint32) bool {
	if target > current {
		return false
	}
	return uint64(target)+uint64(max) > uint64(current)
}
