// Package services defines shared utilities consumed by the composition
// pipeline, the batch driver, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp theme names, batch run IDs, and correlation
//     identifiers for logging.
//   - Structured error markers (validation, missing resource, render, timeout)
//     plus typed errors that carry the offending path, index, theme, and output
//     so batch aggregation can classify failures with errors.Is/As.
//
// Subpackages wrap external services (object storage) behind narrow
// interfaces so they can be faked in tests.
package services
