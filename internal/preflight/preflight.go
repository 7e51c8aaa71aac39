package preflight

import (
	"context"
	"os"

	"themereel/internal/config"
)

// MinFreeBytes is the free space required in the output and temp
// directories before a batch starts.
const MinFreeBytes uint64 = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))

	// The asset pool only matters for random backgrounds; a missing pool
	// degrades to the color fallback, so only report when present.
	if dir := cfg.Background.AssetDir; dir != "" {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			results = append(results, CheckDirectoryReadable("Background assets", dir))
		}
	}

	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, MinFreeBytes))
	if cfg.Paths.TempDir != cfg.Paths.OutputDir {
		results = append(results, CheckFreeSpace("Temp free space", cfg.Paths.TempDir, MinFreeBytes))
	}

	if ctx.Err() != nil {
		results = append(results, Result{Name: "Context", Detail: ctx.Err().Error()})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
