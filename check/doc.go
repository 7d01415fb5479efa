// Package check implements the repair pipeline run over a workspace.
//
// A Checker bundles handlers keyed by file type with an optional generic
// handler. The Pipeline classifies every pending file, orders files by type
// priority, then walks each one through the registered checkers in
// declaration order. At each step the handler is chosen from the file's
// current type, so a checker that repairs and reclassifies a file changes
// which handlers the later checkers apply. Files created while checking,
// such as unpacked archive members, are picked up in a following round.
// Once no pending file remains, the workspace source type is decided.
//
// Handlers never abort the run: a returned error or a panic is recorded as
// a checker_failed warning on the file and the file is left as it was.
package check
