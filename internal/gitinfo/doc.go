// Package gitinfo reads repository metadata and per-file commit history for
// a docset, backed by a SQLite commit cache and a JSON contribution store
// that persist between builds.
package gitinfo
