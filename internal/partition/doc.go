// Package partition decides what happens to each catalog record.
//
// Everything here is pure: given a record, its probed audio format, the
// published reference lists and the acceptance rules, Decide returns either a
// rejection reason or a placement (destination path plus split). Moving files
// and writing manifests are left to callers so the decision logic can be
// exercised without a filesystem.
//
// Reference list entries keep their trailing newline and are compared to
// "<destination>\n" by exact string equality, matching the published list
// format byte for byte.
package partition
