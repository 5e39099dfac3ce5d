package engine

const cursorSignature uint32 = 0x43555231 // "CUR1"

type cursorState uint8

const (
	curUnpositioned cursorState = iota
	curPositioned
	curDeleted
	curEOF
)

// Cursor iterates one keyspace inside one transaction. Positions survive
// writes made through the owning transaction: after the keyspace mutates,
// the cursor re-locates its last key before continuing.
type Cursor struct {
	signature uint32
	txn       *Txn
	dbi       DBI
	pos       int
	state     cursorState
	stamp     uint64

	// last observed position, used to resync after mutations
	lastKey []byte
	lastVal []byte
}

func validCursor(c *Cursor) bool {
	return c != nil && c.signature == cursorSignature && c.txn != nil
}

// CursorOpen creates a cursor over dbi bound to t.
func CursorOpen(t *Txn, dbi DBI) (*Cursor, int) {
	if rc := t.usable(); rc != Success {
		return nil, rc
	}
	if _, rc := t.viewDB(dbi); rc != Success {
		return nil, rc
	}
	c := &Cursor{
		signature: cursorSignature,
		txn:       t,
		dbi:       dbi,
		stamp:     t.stamp,
	}
	t.cursors = append(t.cursors, c)
	return c, Success
}

// CursorClose releases a cursor. Never fails; closing twice is a no-op.
func CursorClose(c *Cursor) {
	if c == nil || c.signature != cursorSignature {
		return
	}
	if c.txn != nil {
		c.txn.removeCursor(c)
		c.txn = nil
	}
	c.signature = 0
}

// CursorRenew rebinds a cursor to a read-only transaction, clearing its
// position. The cursor's original transaction must also have been
// read-only.
func CursorRenew(t *Txn, c *Cursor) int {
	if c == nil || c.signature != cursorSignature {
		return EInvalid
	}
	if rc := t.usable(); rc != Success {
		return rc
	}
	if !t.readonly {
		return EInvalid
	}
	if _, rc := t.viewDB(c.dbi); rc != Success {
		return rc
	}
	if c.txn != nil {
		c.txn.removeCursor(c)
	}
	c.txn = t
	c.state = curUnpositioned
	c.lastKey = nil
	c.lastVal = nil
	c.stamp = t.stamp
	t.cursors = append(t.cursors, c)
	return Success
}

// CursorTxn returns the transaction the cursor is bound to.
func CursorTxn(c *Cursor) *Txn {
	if c == nil || c.signature != cursorSignature {
		return nil
	}
	return c.txn
}

// CursorDBI returns the keyspace handle the cursor iterates.
func CursorDBI(c *Cursor) DBI {
	if c == nil || c.signature != cursorSignature {
		return 0
	}
	return c.dbi
}

func (c *Cursor) view() (*dbState, int) {
	if rc := c.txn.usable(); rc != Success {
		return nil, rc
	}
	return c.txn.viewDB(c.dbi)
}

// resync re-locates the cursor after the keyspace mutated underneath it.
func (c *Cursor) resync(st *dbState) {
	if c.stamp == c.txn.stamp {
		return
	}
	c.stamp = c.txn.stamp
	if c.state != curPositioned && c.state != curDeleted {
		return
	}
	var i int
	if st.isDup() {
		i = st.lowerBoundDup(c.lastKey, c.lastVal)
	} else {
		i = st.lowerBound(c.lastKey)
	}
	c.pos = i
	if i >= len(st.entries) {
		c.state = curEOF
		return
	}
	e := st.entries[i]
	exact := st.keyCmp()(e.key, c.lastKey) == 0 &&
		(!st.isDup() || st.dupCmp()(e.val, c.lastVal) == 0)
	if exact {
		c.state = curPositioned
	} else {
		// The entry under the cursor is gone; pos now names its successor.
		c.state = curDeleted
	}
}

func (c *Cursor) setPos(st *dbState, i int) {
	c.pos = i
	c.state = curPositioned
	c.lastKey = st.entries[i].key
	c.lastVal = st.entries[i].val
}

func (c *Cursor) yield(st *dbState, key, val *Val) int {
	e := st.entries[c.pos]
	if key != nil {
		*key = BytesVal(e.key)
	}
	if val != nil {
		*val = BytesVal(e.val)
	}
	return Success
}

// CursorGet positions the cursor per op and returns the entry there. For
// the Set family key carries the seek key on input; GetBoth additionally
// reads val.
func CursorGet(c *Cursor, key, val *Val, op CursorOp) int {
	if !validCursor(c) {
		return EInvalid
	}
	st, rc := c.view()
	if rc != Success {
		return rc
	}
	c.resync(st)
	n := len(st.entries)

	switch op {
	case OpFirst:
		if n == 0 {
			c.state = curEOF
			return NotFound
		}
		c.setPos(st, 0)

	case OpLast:
		if n == 0 {
			c.state = curEOF
			return NotFound
		}
		c.setPos(st, n-1)

	case OpGetCurrent:
		if c.state != curPositioned {
			return NotFound
		}

	case OpNext, OpNextNoDup, OpNextDup:
		switch c.state {
		case curUnpositioned:
			if op == OpNextDup {
				return EInvalid
			}
			if n == 0 {
				c.state = curEOF
				return NotFound
			}
			c.setPos(st, 0)
		case curEOF:
			return NotFound
		case curDeleted:
			// pos is already the successor entry.
			if op == OpNextDup &&
				(c.pos >= n || st.keyCmp()(st.entries[c.pos].key, c.lastKey) != 0) {
				c.state = curEOF
				return NotFound
			}
			if c.pos >= n {
				c.state = curEOF
				return NotFound
			}
			if op == OpNextNoDup && st.isDup() && st.keyCmp()(st.entries[c.pos].key, c.lastKey) == 0 {
				_, last := st.dupRun(c.pos)
				if last+1 >= n {
					c.state = curEOF
					return NotFound
				}
				c.setPos(st, last+1)
				break
			}
			c.setPos(st, c.pos)
		default:
			next := c.pos + 1
			if op == OpNextNoDup && st.isDup() {
				_, last := st.dupRun(c.pos)
				next = last + 1
			}
			if next >= n {
				c.state = curEOF
				return NotFound
			}
			if op == OpNextDup && st.keyCmp()(st.entries[next].key, st.entries[c.pos].key) != 0 {
				return NotFound
			}
			c.setPos(st, next)
		}

	case OpPrev, OpPrevNoDup, OpPrevDup:
		switch c.state {
		case curUnpositioned, curEOF:
			if op == OpPrevDup {
				return EInvalid
			}
			if n == 0 {
				return NotFound
			}
			c.setPos(st, n-1)
		case curDeleted:
			if c.pos == 0 {
				return NotFound
			}
			if op == OpPrevDup && st.keyCmp()(st.entries[c.pos-1].key, c.lastKey) != 0 {
				return NotFound
			}
			c.setPos(st, c.pos-1)
		default:
			prev := c.pos - 1
			if op == OpPrevNoDup && st.isDup() {
				first, _ := st.dupRun(c.pos)
				prev = first - 1
			}
			if prev < 0 {
				return NotFound
			}
			if op == OpPrevDup && st.keyCmp()(st.entries[prev].key, st.entries[c.pos].key) != 0 {
				return NotFound
			}
			c.setPos(st, prev)
		}

	case OpFirstDup, OpLastDup:
		if c.state != curPositioned {
			return EInvalid
		}
		if !st.isDup() {
			return EInvalid
		}
		first, last := st.dupRun(c.pos)
		if op == OpFirstDup {
			c.setPos(st, first)
		} else {
			c.setPos(st, last)
		}

	case OpSet, OpSetKey:
		k := key.Bytes()
		if len(k) == 0 || len(k) > maxKeySize {
			return BadValSize
		}
		i, found := st.find(k)
		if !found {
			c.state = curEOF
			return NotFound
		}
		c.setPos(st, i)

	case OpSetRange:
		k := key.Bytes()
		if len(k) > maxKeySize {
			return BadValSize
		}
		i := st.lowerBound(k)
		if i >= n {
			c.state = curEOF
			return NotFound
		}
		c.setPos(st, i)

	case OpGetBoth, OpGetBothRange:
		if !st.isDup() {
			return EInvalid
		}
		k := key.Bytes()
		if len(k) == 0 || len(k) > maxKeySize {
			return BadValSize
		}
		v := val.Bytes()
		if op == OpGetBoth {
			i, found := st.findDup(k, v)
			if !found {
				c.state = curEOF
				return NotFound
			}
			c.setPos(st, i)
		} else {
			i := st.lowerBoundDup(k, v)
			if i >= n || st.keyCmp()(st.entries[i].key, k) != 0 {
				c.state = curEOF
				return NotFound
			}
			c.setPos(st, i)
		}

	default:
		return EInvalid
	}

	if op == OpSet {
		// Set returns only the data, leaving the caller's key untouched.
		return c.yield(st, nil, val)
	}
	return c.yield(st, key, val)
}

// CursorPut stores an entry through the cursor and leaves the cursor
// positioned on it.
func CursorPut(c *Cursor, key, val *Val, flags uint) int {
	if !validCursor(c) {
		return EInvalid
	}
	t := c.txn
	if rc := t.writable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(c.dbi)
	if rc != Success {
		return rc
	}
	c.resync(st)

	if flags&Current != 0 {
		if c.state != curPositioned {
			return EInvalid
		}
		v := val.Bytes()
		if len(v) > maxValSize {
			return BadValSize
		}
		old := st.entries[c.pos]
		if st.isDup() {
			// Replacing data in a DupSort keyspace must keep sort order;
			// delete the old pair and insert the new one. The map budget
			// is checked up front so a rejected replacement leaves the
			// old pair in place.
			k := old.key
			if t.bytes-entrySize(k, old.val)+entrySize(k, v) > t.env.mapSize {
				return MapFull
			}
			pos := c.pos
			owned := t.ensureOwned(c.dbi)
			owned.deleteRange(pos, pos)
			t.noteMutation()
			i, rc := t.put(c.dbi, k, v, 0)
			if rc != Success {
				return rc
			}
			st, _ = t.viewDB(c.dbi)
			c.stamp = t.stamp
			c.setPos(st, i)
			return Success
		}
		if t.bytes-entrySize(old.key, old.val)+entrySize(old.key, v) > t.env.mapSize {
			return MapFull
		}
		owned := t.ensureOwned(c.dbi)
		owned.bytes += entrySize(old.key, v) - entrySize(old.key, old.val)
		owned.entries[c.pos] = entry{key: old.key, val: append([]byte(nil), v...)}
		t.noteMutation()
		c.stamp = t.stamp
		c.setPos(owned, c.pos)
		return Success
	}

	i, rc := t.put(c.dbi, key.Bytes(), val.Bytes(), flags)
	if rc != Success {
		return rc
	}
	st, _ = t.viewDB(c.dbi)
	c.stamp = t.stamp
	c.setPos(st, i)
	return Success
}

// CursorDel removes the entry under the cursor. With AllDups all
// duplicates of the current key go at once.
func CursorDel(c *Cursor, flags uint) int {
	if !validCursor(c) {
		return EInvalid
	}
	t := c.txn
	if rc := t.writable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(c.dbi)
	if rc != Success {
		return rc
	}
	c.resync(st)
	if c.state != curPositioned {
		return EInvalid
	}

	first, last := c.pos, c.pos
	if flags&AllDups != 0 && st.isDup() {
		first, last = st.dupRun(c.pos)
	}
	owned := t.ensureOwned(c.dbi)
	owned.deleteRange(first, last)
	t.noteMutation()
	c.stamp = t.stamp
	c.pos = first
	c.state = curDeleted
	return Success
}

// CursorCount returns the number of duplicates for the current key. In a
// non-DupSort keyspace the count is always 1.
func CursorCount(c *Cursor, count *uint64) int {
	if !validCursor(c) {
		return EInvalid
	}
	st, rc := c.view()
	if rc != Success {
		return rc
	}
	c.resync(st)
	if c.state != curPositioned {
		return EInvalid
	}
	if !st.isDup() {
		*count = 1
		return Success
	}
	first, last := st.dupRun(c.pos)
	*count = uint64(last - first + 1)
	return Success
}
