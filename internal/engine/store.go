package engine

import (
	"bytes"
	"sort"
)

// Key and value size limits. Keys follow the LMDB default limit; values are
// bounded only by the map size accounting.
const (
	maxKeySize = 511
	maxValSize = 1 << 30
)

// entrySize is the map-size accounting charge for one entry.
func entrySize(key, val []byte) uint64 {
	return uint64(len(key)) + uint64(len(val)) + 16
}

// entry is one key/value pair. Both slices are immutable once stored: they
// alias either the data file map or buffers copied at Put time, and are
// never written through.
type entry struct {
	key []byte
	val []byte
}

// dbState is the committed or in-progress state of one keyspace. Inside a
// committed version a dbState is immutable; write transactions clone it
// before the first mutation.
type dbState struct {
	name    string
	flags   uint
	deleted bool
	entries []entry
	bytes   uint64
}

// version is an immutable committed snapshot. dbs is indexed by DBI; slot 0
// is the unnamed root keyspace.
type version struct {
	txnID uint64
	dbs   []*dbState
	bytes uint64
}

// DBI identifies one keyspace within an environment. The handle value stays
// valid for the lifetime of the environment that produced it.
type DBI uint32

// MainDBI is the handle of the unnamed root keyspace.
const MainDBI DBI = 0

func reverseCompare(a, b []byte) int {
	i, j := len(a)-1, len(b)-1
	for i >= 0 && j >= 0 {
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i--
		j--
	}
	switch {
	case i >= 0:
		return 1
	case j >= 0:
		return -1
	}
	return 0
}

func (d *dbState) keyCmp() func(a, b []byte) int {
	if d.flags&ReverseKey != 0 {
		return reverseCompare
	}
	return bytes.Compare
}

func (d *dbState) dupCmp() func(a, b []byte) int {
	if d.flags&ReverseDup != 0 {
		return reverseCompare
	}
	return bytes.Compare
}

func (d *dbState) isDup() bool {
	return d.flags&DupSort != 0
}

// lowerBound returns the index of the first entry whose key is >= key.
func (d *dbState) lowerBound(key []byte) int {
	cmp := d.keyCmp()
	return sort.Search(len(d.entries), func(i int) bool {
		return cmp(d.entries[i].key, key) >= 0
	})
}

// lowerBoundDup returns the index of the first entry >= (key, val) under
// the keyspace's (key, duplicate) ordering.
func (d *dbState) lowerBoundDup(key, val []byte) int {
	cmp, dcmp := d.keyCmp(), d.dupCmp()
	return sort.Search(len(d.entries), func(i int) bool {
		if c := cmp(d.entries[i].key, key); c != 0 {
			return c > 0
		}
		return dcmp(d.entries[i].val, val) >= 0
	})
}

// find returns the index of the first entry with exactly the given key.
func (d *dbState) find(key []byte) (int, bool) {
	i := d.lowerBound(key)
	if i < len(d.entries) && d.keyCmp()(d.entries[i].key, key) == 0 {
		return i, true
	}
	return i, false
}

// findDup returns the index of the exact (key, val) pair.
func (d *dbState) findDup(key, val []byte) (int, bool) {
	i := d.lowerBoundDup(key, val)
	if i < len(d.entries) &&
		d.keyCmp()(d.entries[i].key, key) == 0 &&
		d.dupCmp()(d.entries[i].val, val) == 0 {
		return i, true
	}
	return i, false
}

// dupRun returns the [first, last] index range of entries sharing the key
// at index i.
func (d *dbState) dupRun(i int) (int, int) {
	cmp := d.keyCmp()
	key := d.entries[i].key
	first, last := i, i
	for first > 0 && cmp(d.entries[first-1].key, key) == 0 {
		first--
	}
	for last+1 < len(d.entries) && cmp(d.entries[last+1].key, key) == 0 {
		last++
	}
	return first, last
}

// clone produces a privately owned copy for copy-on-write mutation. The
// entry headers are copied; key/value buffers are shared since they are
// immutable.
func (d *dbState) clone() *dbState {
	c := &dbState{
		name:    d.name,
		flags:   d.flags,
		deleted: d.deleted,
		bytes:   d.bytes,
	}
	c.entries = make([]entry, len(d.entries), len(d.entries)+8)
	copy(c.entries, d.entries)
	return c
}

// insertAt inserts e at index i. Only valid on an owned state.
func (d *dbState) insertAt(i int, e entry) {
	d.entries = append(d.entries, entry{})
	copy(d.entries[i+1:], d.entries[i:])
	d.entries[i] = e
	d.bytes += entrySize(e.key, e.val)
}

// deleteRange removes entries[first:last+1]. Only valid on an owned state.
func (d *dbState) deleteRange(first, last int) {
	for i := first; i <= last; i++ {
		d.bytes -= entrySize(d.entries[i].key, d.entries[i].val)
	}
	d.entries = append(d.entries[:first], d.entries[last+1:]...)
}
