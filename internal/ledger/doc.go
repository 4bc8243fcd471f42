// Package ledger records preprocessing runs and their placements in SQLite.
//
// Each run gets a row in runs when it starts and is closed as completed (with
// per-split counts) or failed (with the error text). Every relocated clip is
// written to placements in arrival order, so the manifests of any past run can
// be reconstructed and a partially failed run shows which files already moved.
//
// Schema changes bump schemaVersion in schema.go; users delete the ledger
// database to adopt the new schema.
package ledger
