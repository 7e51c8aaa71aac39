// Package main hosts the themereel CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into renders
// (single theme, single clip, or a batch from a manifest or a directory of
// theme<N>_comment<i> files), media probes, render-history queries, and
// environment checks. Configuration resolution, logger construction and
// pipeline wiring live in commandContext so subcommands only describe their
// flags and output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
