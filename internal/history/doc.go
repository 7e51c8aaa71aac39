// Package history records every render attempt in SQLite.
//
// Each batch run gets a run id; every theme rendered in that run leaves one
// row with its status, failure kind, truncated diagnostic, output size and
// timings. The CLI lists recent rows and per-run tallies.
//
// Schema changes bump schemaVersion in schema.go; users delete the database to
// adopt the new schema.
package history
