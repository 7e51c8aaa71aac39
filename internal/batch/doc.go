// Package batch turns manifests and naming-convention directories into
// theme requests and renders them through a bounded worker pool.
//
// A batch never aborts on a single failure: every request resolves to an
// Outcome, the tally is computed after all workers return, and each attempt
// is appended to the render history when a Recorder is configured. An
// exclusive lock on the output directory keeps concurrent batches from
// interleaving partial files.
package batch
