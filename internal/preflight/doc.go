// Package preflight provides readiness checks for the filesystem paths and
// external tools a render depends on.
//
// These checks run in two contexts:
//   - The batch command calls RunAll before scheduling any theme. If any
//     check fails, the batch stops before spawning a single encode.
//   - The CLI "themereel doctor" command prints every result, together with
//     the binary and filter checks from package deps.
package preflight
