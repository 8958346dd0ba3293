package tasks

import "time"

const (
	TimerInterval       = 3 * time.Second
	TaskTimeout         = 30 * time.Second
	MaxConcurrentTasks  = 30
	MaxHashesCount       = 500
	HeaderPrefetchCount = 2000
)

// knownHashCapacityFloor is the minimum size of the known-hash dedupe FIFO
// when mempool capacity is smaller than this.
const knownHashCapacityFloor = 1024
