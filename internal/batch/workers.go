package batch

import "runtime"

// WorkerCount returns the pool size for a batch. A positive configured
// value wins; otherwise the size is derived from available memory divided
// by memPerRenderMiB. The result is clamped to [1, NumCPU].
func WorkerCount(configured, memPerRenderMiB int) int {
	limit := runtime.NumCPU()
	if configured > 0 {
		return clampWorkers(configured, limit)
	}
	if memPerRenderMiB <= 0 {
		return clampWorkers(limit, limit)
	}
	avail, ok := availableMemory()
	if !ok {
		return clampWorkers(limit, limit)
	}
	return clampWorkers(int(avail/(uint64(memPerRenderMiB)<<20)), limit)
}

func clampWorkers(n, limit int) int {
	if limit < 1 {
		limit = 1
	}
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}
