// Package speechcommands acquires the Speech Commands corpus and exposes its
// catalog.
//
// Fetch downloads the published tarball when the extracted tree is missing and
// unpacks it under the dataset directory. Corpus.Catalog walks the extracted
// tree in sorted order and yields one partition.Record per clip, taking the
// class label from the parent folder and the speaker and utterance from the
// "<speaker>_nohash_<n>.wav" file name. The background-noise folder is not
// part of the catalog.
package speechcommands
