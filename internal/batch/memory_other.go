//go:build !linux

package batch

func availableMemory() (uint64, bool) { return 0, false }
