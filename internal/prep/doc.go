// Package prep runs the digit-subset preprocessing pipeline end to end.
//
// Run acquires the single-instance lock, makes sure the corpus is extracted,
// loads the published validation and testing lists, and walks the catalog in
// order. Each record is classified by partition.Decide before anything on disk
// changes; accepted clips are then moved into <class>/<file> and appended to
// their split. After the manifests are written and the summary reported, the
// extracted tree is removed on a best-effort basis.
//
// Any error before cleanup aborts the run without undoing moves that already
// happened. The ledger, when enabled, keeps the placements of such a run.
package prep
