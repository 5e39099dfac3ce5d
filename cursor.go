package ldbx

import (
	"runtime"

	"github.com/ldbx-io/ldbx/internal/engine"
)

// Cursor iterates a database inside a transaction. A cursor tracks its
// position across writes made through the same transaction.
//
// Cursors must be closed before their transaction resolves, except in
// read-only transactions where Renew can carry one to a new transaction.
type Cursor struct {
	txn *Txn
	h   *engine.Cursor
}

// OpenCursor creates a cursor over dbi.
func (txn *Txn) OpenCursor(dbi DBI) (*Cursor, error) {
	h, rc := engine.CursorOpen(txn.h, engine.DBI(dbi))
	if rc != engine.Success {
		return nil, opError("cursor_open", rc)
	}
	c := &Cursor{txn: txn, h: h}
	runtime.SetFinalizer(c, func(c *Cursor) { c.Close() })
	return c, nil
}

// Close releases the cursor. Idempotent; never fails.
func (c *Cursor) Close() {
	if c.h == nil {
		return
	}
	runtime.SetFinalizer(c, nil)
	engine.CursorClose(c.h)
	c.h = nil
	c.txn = nil
}

// Renew rebinds a closed-over cursor to txn, which must be read-only.
// The position is cleared.
func (c *Cursor) Renew(txn *Txn) error {
	if rc := engine.CursorRenew(txn.h, c.h); rc != engine.Success {
		return opError("cursor_renew", rc)
	}
	c.txn = txn
	return nil
}

// Txn returns the transaction the cursor is bound to.
func (c *Cursor) Txn() *Txn {
	return c.txn
}

// DBI returns the database the cursor iterates.
func (c *Cursor) DBI() DBI {
	return DBI(engine.CursorDBI(c.h))
}

// Get positions the cursor per op and returns the entry there. setKey
// seeds the Set/SetRange family; setVal additionally seeds GetBoth and
// GetBothRange. Running off either end yields (nil, nil, false, nil).
//
// Returned slices alias environment-owned memory; see Val.
func (c *Cursor) Get(setKey, setVal []byte, op CursorOp) (key, val []byte, ok bool, err error) {
	k, v := BytesVal(setKey), BytesVal(setVal)
	rc := engine.CursorGet(c.h, k.raw(), v.raw(), op)
	ok, err = checkFound("cursor_get", rc)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	return k.Bytes(), v.Bytes(), true, nil
}

// Find seeks to key exactly and returns its pair; an absent key reports
// ok=false. Use Get with SetRange for a lower-bound seek.
func (c *Cursor) Find(key []byte) ([]byte, []byte, bool, error) {
	return c.Get(key, nil, Set)
}

// Put stores an entry through the cursor and leaves the cursor on it.
func (c *Cursor) Put(key, val []byte, flags uint) error {
	k, v := BytesVal(key), BytesVal(val)
	return check("cursor_put", engine.CursorPut(c.h, k.raw(), v.raw(), flags))
}

// Del removes the entry under the cursor. With AllDups every duplicate
// of the current key goes at once. The cursor ends up positioned before
// the next entry, so iteration with Next continues cleanly.
func (c *Cursor) Del(flags uint) error {
	return check("cursor_del", engine.CursorDel(c.h, flags))
}

// Count returns the number of duplicates for the current key.
func (c *Cursor) Count() (uint64, error) {
	var n uint64
	if rc := engine.CursorCount(c.h, &n); rc != engine.Success {
		return 0, opError("cursor_count", rc)
	}
	return n, nil
}
