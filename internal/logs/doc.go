// Package logs reads the themereel log file for `themereel logs`.
//
// It returns the last N lines with bounded memory, follows the file as
// renders append to it, and filters lines by theme or batch run so one
// render can be traced through a busy batch. Callers supply a context so
// follow-mode polling stops when the CLI exits.
package logs
