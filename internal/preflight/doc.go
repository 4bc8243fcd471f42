// Package preflight provides readiness checks for the directories, corpus
// files, and services a preprocessing run depends on.
//
// The CLI "digitprep check" command prints every result; a run itself does not
// call RunAll, it fails on the first real error instead. Checks that only
// matter for an enabled feature (download, ledger) are skipped otherwise.
package preflight
