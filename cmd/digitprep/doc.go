// Package main hosts the digitprep CLI entrypoint and command graph.
//
// Invoked without arguments, digitprep acquires the Speech Commands corpus,
// keeps the ten digit words recorded as one second of 16 kHz audio, moves
// them into per-class folders, and writes the train/val/test manifests. The
// subcommands cover configuration scaffolding, preflight checks, and the run
// ledger.
//
// Keep this package lean: the pipeline lives in internal/prep and its
// collaborators. Commands here resolve configuration, wire logging and
// progress output, and render results.
package main
