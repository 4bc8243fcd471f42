// Package manifest accumulates accepted placements per split, writes the
// train/validation/test manifest files and summarizes sample and speaker
// counts.
//
// Manifests keep arrival order and are rewritten from scratch on every run.
// Speaker totals count the union across splits, so a speaker present in two
// splits is counted once.
package manifest
