// Package filetype classifies submission files.
//
// Classification runs in three stages, each of which may short-circuit:
// content-independent path rules, byte signatures over the head of the file,
// and an ordered cascade of line rules over the file content. Every Type has
// a fixed processing priority; files with higher priority are processed
// first.
package filetype
