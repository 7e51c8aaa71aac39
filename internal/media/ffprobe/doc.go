// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Info: the summary used by the timeline and background resolver
//   - Prober: runs ffprobe through an injectable inspect function
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Prober.Probe: stat + inspect + kind detection for one file
package ffprobe
