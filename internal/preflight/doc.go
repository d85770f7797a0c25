// Package preflight provides readiness checks for the filesystem paths and
// external binaries mediafetch depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check as a
//     warning; jobs submitted while a check fails will surface the problem
//     in their own error detail.
//   - The CLI "mediafetch doctor" command renders the same results so an
//     operator can fix the environment before serving.
package preflight
