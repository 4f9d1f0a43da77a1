// Package simplecms provides the data layer behind a content-management admin
// interface: typed record collections persisted as whole snapshots, the
// related-content selector, and category membership reconciliation.
//
// Every named value lives in a SnapshotStore as one JSON document. Collections
// are read in full, mutated in memory and written back in full; writes to the
// same name are serialized within a process. Implementations of SnapshotStore
// (memory, filesystem, S3, Postgres, Redis, SQLite) are provided under store/.
//
// Schema Versions
//
// Stored values carry a schemaVersion tag. Values written before the tag
// existed (bare JSON arrays or objects) are treated as version 0 and are
// upgraded through the registered Migration chain on every load. Saves always
// write the latest version.
package simplecms
