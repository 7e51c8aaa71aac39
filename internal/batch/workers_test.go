package batch

import (
	"runtime"
	"testing"
)

func TestWorkerCount(t *testing.T) {
	cpus := runtime.NumCPU()
	if got := WorkerCount(1, 0); got != 1 {
		t.Fatalf("configured 1 -> %d", got)
	}
	if got := WorkerCount(cpus+8, 0); got != cpus {
		t.Fatalf("configured above NumCPU should clamp to %d, got %d", cpus, got)
	}
	if got := WorkerCount(0, 0); got != cpus {
		t.Fatalf("no memory budget should use NumCPU, got %d", got)
	}
	if got := WorkerCount(0, 1<<40); runtime.GOOS == "linux" && got != 1 {
		t.Fatalf("huge per-render budget should floor at 1, got %d", got)
	}
	if got := WorkerCount(0, 1); got < 1 || got > cpus {
		t.Fatalf("memory-derived count out of range: %d", got)
	}
}
