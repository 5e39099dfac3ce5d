// Package engine implements the storage core behind the public API: a
// procedural, status-code interface over immutable committed versions.
//
// Every committed state is a version: an array of keyspace states, each
// a sorted slice of entries. Writers build the next version out of
// copy-on-write clones and publish it atomically; readers pin whatever
// version was current when they began. The data file is replaced
// wholesale on commit and loaded back through a memory map, so values
// handed out by lookups alias either the map or writer-owned buffers and
// stay stable for the lifetime of the observing transaction.
//
// All functions return int status codes from codes.go rather than
// errors; the public package is responsible for translating them.
package engine
