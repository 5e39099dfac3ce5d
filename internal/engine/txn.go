package engine

import "bytes"

// txnSignature marks a live transaction handle.
const txnSignature uint32 = 0x54584E31 // "TXN1"

// Txn owns one in-progress transaction. Read-only transactions pin a
// committed version through a reader slot; write transactions hold the
// single writer slot and mutate copy-on-write clones of the keyspace
// states they touch.
type Txn struct {
	signature uint32
	env       *Env
	parent    *Txn
	child     *Txn
	flags     uint
	id        uint64
	readonly  bool
	done      bool

	// read-only state
	snap  *version
	slot  int
	reset bool

	// write state
	dbs   []*dbState
	owned []bool
	bytes uint64
	dirty bool

	// stamp counts mutations so cursors can revalidate positions.
	stamp uint64

	cursors []*Cursor
}

// TxnBegin starts a transaction. parent may be nil (top level) or an
// active read-write transaction (nesting). Read-only transactions cannot
// be nested.
func TxnBegin(env *Env, parent *Txn, flags uint) (*Txn, int) {
	if !validEnv(env) {
		return nil, Invalid
	}
	if env.panicked.Load() {
		return nil, Panic
	}
	if flags&TxnReadOnly != 0 {
		if parent != nil {
			return nil, EInvalid
		}
		return beginRead(env, flags)
	}
	return beginWrite(env, parent, flags)
}

func beginRead(env *Env, flags uint) (*Txn, int) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	if !env.opened {
		return nil, Invalid
	}

	t := &Txn{
		signature: txnSignature,
		env:       env,
		flags:     flags,
		readonly:  true,
		slot:      -1,
	}
	slot, rc := env.acquireReader(t, 0)
	if rc != Success {
		return nil, rc
	}
	v := env.current.Load()
	if v == nil {
		env.releaseReader(slot)
		return nil, Corrupted
	}
	t.snap = v
	t.slot = slot
	t.id = v.txnID
	env.setReaderTxnID(slot, v.txnID)
	env.txnWg.Add(1)
	env.activeTxns.Add(1)
	return t, Success
}

func beginWrite(env *Env, parent *Txn, flags uint) (*Txn, int) {
	if parent != nil {
		return beginChild(env, parent, flags)
	}
	if env.flags&ReadOnly != 0 {
		return nil, EAccess
	}

	if flags&TxnTry != 0 {
		if !env.writeMu.TryLock() {
			return nil, Busy
		}
	} else {
		env.writeMu.Lock()
	}

	env.mu.RLock()
	defer env.mu.RUnlock()
	if !env.opened {
		env.writeMu.Unlock()
		return nil, Invalid
	}
	v := env.current.Load()
	if v == nil {
		env.writeMu.Unlock()
		return nil, Corrupted
	}

	t := &Txn{
		signature: txnSignature,
		env:       env,
		flags:     flags,
		id:        v.txnID + 1,
		slot:      -1,
		bytes:     v.bytes,
	}
	t.dbs = make([]*dbState, len(v.dbs))
	copy(t.dbs, v.dbs)
	t.owned = make([]bool, len(v.dbs))
	env.txnWg.Add(1)
	env.activeTxns.Add(1)
	return t, Success
}

func beginChild(env *Env, parent *Txn, flags uint) (*Txn, int) {
	if rc := parent.usable(); rc != Success {
		return nil, rc
	}
	if parent.readonly || parent.env != env {
		return nil, BadTxn
	}
	t := &Txn{
		signature: txnSignature,
		env:       env,
		parent:    parent,
		flags:     flags,
		id:        parent.id,
		slot:      -1,
		bytes:     parent.bytes,
	}
	t.dbs = make([]*dbState, len(parent.dbs))
	copy(t.dbs, parent.dbs)
	t.owned = make([]bool, len(parent.dbs))
	parent.child = t
	return t, Success
}

// usable verifies the operation-level preconditions shared by every
// transaction primitive.
func (t *Txn) usable() int {
	if t == nil || t.signature != txnSignature || t.done {
		return BadTxn
	}
	if t.child != nil {
		// The parent is frozen while a nested transaction is active.
		return BadTxn
	}
	if t.env.panicked.Load() {
		return Panic
	}
	if t.readonly && t.reset {
		return BadTxn
	}
	return Success
}

// TxnEnv returns the environment that owns the transaction.
func TxnEnv(t *Txn) *Env {
	if t == nil || t.signature != txnSignature {
		return nil
	}
	return t.env
}

// TxnID returns the snapshot identifier the transaction observes.
func TxnID(t *Txn) uint64 {
	if t == nil || t.signature != txnSignature {
		return 0
	}
	return t.id
}

// finish releases a transaction's hold on the environment. Safe to call
// exactly once per top-level or read transaction.
func (t *Txn) finish() {
	t.done = true
	t.invalidateCursors()
	if t.parent != nil {
		t.parent.child = nil
		return
	}
	if t.readonly {
		t.env.releaseReader(t.slot)
		t.slot = -1
		t.snap = nil
	} else {
		t.env.writeMu.Unlock()
	}
	t.env.txnWg.Done()
	t.env.activeTxns.Add(-1)
}

// TxnCommit durably applies the transaction. On any failure the
// transaction is implicitly aborted and the handle must not be reused.
func TxnCommit(t *Txn) int {
	if t == nil || t.signature != txnSignature || t.done {
		return BadTxn
	}
	if t.child != nil {
		TxnAbort(t)
		return BadTxn
	}
	if t.env.panicked.Load() {
		TxnAbort(t)
		return Panic
	}

	if t.readonly {
		// Committing a read transaction just releases the snapshot.
		t.finish()
		return Success
	}

	if t.parent != nil {
		return commitChild(t)
	}

	if !t.dirty {
		t.finish()
		return Success
	}

	v := &version{txnID: t.id, dbs: t.dbs, bytes: t.bytes}

	env := t.env
	if env.flags&UtterlyNoSync == UtterlyNoSync {
		env.unsynced.Store(true)
	} else {
		sync := env.flags&(SafeNoSync|NoMetaSync) == 0
		if rc := env.writeDataFile(v, sync); rc != Success {
			t.finish()
			return rc
		}
	}
	env.current.Store(v)
	debugf("commit txn=%d bytes=%d", v.txnID, v.bytes)
	t.finish()
	return Success
}

// commitChild folds the child's working set into its parent.
func commitChild(t *Txn) int {
	p := t.parent
	for i := range t.dbs {
		if i < len(p.dbs) {
			if t.owned[i] {
				p.dbs[i] = t.dbs[i]
				p.owned[i] = true
			}
		} else {
			p.dbs = append(p.dbs, t.dbs[i])
			p.owned = append(p.owned, true)
		}
	}
	p.bytes = t.bytes
	p.dirty = p.dirty || t.dirty
	p.stamp++
	t.finish()
	return Success
}

// TxnAbort discards the transaction and, transitively, any active child.
// It never fails; aborting an already resolved handle is a no-op.
func TxnAbort(t *Txn) {
	if t == nil || t.signature != txnSignature || t.done {
		return
	}
	if t.child != nil {
		TxnAbort(t.child)
	}
	t.finish()
}

// TxnReset releases the snapshot held by a read-only transaction while
// keeping its reader slot for cheap reuse. Never fails; resetting a write
// transaction or an already reset handle is a no-op.
func TxnReset(t *Txn) {
	if t == nil || t.signature != txnSignature || t.done || !t.readonly {
		return
	}
	t.snap = nil
	t.reset = true
	t.id = 0
	t.env.setReaderTxnID(t.slot, 0)
}

// TxnRenew reacquires a snapshot for a reset read-only transaction.
func TxnRenew(t *Txn) int {
	if t == nil || t.signature != txnSignature || t.done || !t.readonly {
		return EInvalid
	}
	if t.env.panicked.Load() {
		return Panic
	}
	if !t.env.isOpen() {
		return Invalid
	}
	v := t.env.current.Load()
	if v == nil {
		return Corrupted
	}
	t.snap = v
	t.id = v.txnID
	t.reset = false
	t.env.setReaderTxnID(t.slot, v.txnID)
	return Success
}

// viewDB resolves a DBI against the transaction's view of the world.
func (t *Txn) viewDB(dbi DBI) (*dbState, int) {
	dbs := t.dbs
	if t.readonly {
		if t.snap == nil {
			return nil, BadTxn
		}
		dbs = t.snap.dbs
	}
	if int(dbi) >= len(dbs) || dbs[dbi] == nil || dbs[dbi].deleted {
		return nil, BadDBI
	}
	return dbs[dbi], Success
}

// ensureOwned clones a keyspace state on first mutation.
func (t *Txn) ensureOwned(dbi DBI) *dbState {
	if !t.owned[dbi] {
		t.dbs[dbi] = t.dbs[dbi].clone()
		t.owned[dbi] = true
	}
	return t.dbs[dbi]
}

func (t *Txn) writable() int {
	if rc := t.usable(); rc != Success {
		return rc
	}
	if t.readonly {
		return EAccess
	}
	return Success
}

// DBIOpen obtains the handle for keyspace name, creating it when the
// Create flag is set. The empty name denotes the root keyspace.
func DBIOpen(t *Txn, name string, flags uint) (DBI, int) {
	if rc := t.usable(); rc != Success {
		return 0, rc
	}
	if flags&^(persistentDBFlags|Create) != 0 {
		return 0, EInvalid
	}
	want := flags & persistentDBFlags

	dbs := t.dbs
	if t.readonly {
		dbs = t.snap.dbs
	}

	if name == "" {
		root := dbs[MainDBI]
		if want != 0 && want != root.flags {
			if t.readonly || len(root.entries) != 0 {
				return 0, Incompatible
			}
			st := t.ensureOwned(MainDBI)
			st.flags = want
			t.dirty = true
			t.stamp++
		}
		return MainDBI, Success
	}

	named := 0
	for i, st := range dbs {
		if i == int(MainDBI) || st == nil {
			continue
		}
		if !st.deleted {
			named++
			if st.name == name {
				if want != 0 && want != st.flags {
					return 0, Incompatible
				}
				return DBI(i), Success
			}
		}
	}

	if flags&Create == 0 || t.readonly {
		return 0, NotFound
	}
	if named >= int(t.env.maxDBs) {
		return 0, DBsFull
	}
	st := &dbState{name: name, flags: want}
	t.dbs = append(t.dbs, st)
	t.owned = append(t.owned, true)
	t.dirty = true
	t.stamp++
	return DBI(len(t.dbs) - 1), Success
}

// DBIClose releases a keyspace handle. Handle values are plain indexes
// into the environment, so nothing is freed; the call exists to complete
// the handle-pairing contract and is safe to ignore.
func DBIClose(e *Env, dbi DBI) {
	_ = e
	_ = dbi
}

// Stat describes one keyspace.
type Stat struct {
	PageSize      uint32
	Depth         uint32
	BranchPages   uint64
	LeafPages     uint64
	OverflowPages uint64
	Entries       uint64
}

// DBIStat fills stat for a keyspace.
func DBIStat(t *Txn, dbi DBI, stat *Stat) int {
	if rc := t.usable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(dbi)
	if rc != Success {
		return rc
	}
	var depth uint32
	var overflow uint64
	if len(st.entries) > 0 {
		depth = 1
	}
	for _, e := range st.entries {
		if uint32(len(e.val)) > PageSize {
			overflow += uint64(len(e.val)) / uint64(PageSize)
		}
	}
	*stat = Stat{
		PageSize:      PageSize,
		Depth:         depth,
		LeafPages:     (st.bytes + uint64(PageSize) - 1) / uint64(PageSize),
		OverflowPages: overflow,
		Entries:       uint64(len(st.entries)),
	}
	return Success
}

// DBIFlags returns the flag bits the keyspace was created with.
func DBIFlags(t *Txn, dbi DBI, flags *uint) int {
	if rc := t.usable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(dbi)
	if rc != Success {
		return rc
	}
	*flags = st.flags
	return Success
}

// Get performs a point lookup. For DupSort keyspaces the first duplicate
// is returned. val may be nil for a pure existence check.
func Get(t *Txn, dbi DBI, key, val *Val) int {
	if rc := t.usable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(dbi)
	if rc != Success {
		return rc
	}
	k := key.Bytes()
	if len(k) == 0 || len(k) > maxKeySize {
		return BadValSize
	}
	i, found := st.find(k)
	if !found {
		return NotFound
	}
	if val != nil {
		*val = BytesVal(st.entries[i].val)
	}
	return Success
}

// Put stores a key/value pair, honoring the put flags.
func Put(t *Txn, dbi DBI, key, val *Val, flags uint) int {
	_, rc := t.put(dbi, key.Bytes(), val.Bytes(), flags)
	return rc
}

// put is the shared insert path; it returns the index of the stored entry
// so cursors can position on it.
func (t *Txn) put(dbi DBI, key, val []byte, flags uint) (int, int) {
	if rc := t.writable(); rc != Success {
		return 0, rc
	}
	st, rc := t.viewDB(dbi)
	if rc != Success {
		return 0, rc
	}
	if len(key) == 0 || len(key) > maxKeySize || len(val) > maxValSize {
		return 0, BadValSize
	}
	if t.bytes+entrySize(key, val) > t.env.mapSize {
		return 0, MapFull
	}

	if flags&(Append|AppendDup) != 0 && len(st.entries) > 0 {
		last := st.entries[len(st.entries)-1]
		c := st.keyCmp()(key, last.key)
		if c < 0 || (c == 0 && (!st.isDup() || st.dupCmp()(val, last.val) <= 0)) {
			return 0, KeyExist
		}
	}

	if st.isDup() {
		return t.putDup(dbi, st, key, val, flags)
	}

	i, found := st.find(key)
	if found {
		if flags&NoOverwrite != 0 {
			return i, KeyExist
		}
		owned := t.ensureOwned(dbi)
		old := owned.entries[i]
		owned.bytes += entrySize(key, val) - entrySize(old.key, old.val)
		owned.entries[i] = entry{key: old.key, val: bytes.Clone(val)}
		t.noteMutation()
		return i, Success
	}
	owned := t.ensureOwned(dbi)
	owned.insertAt(i, entry{key: bytes.Clone(key), val: bytes.Clone(val)})
	t.noteMutation()
	return i, Success
}

func (t *Txn) putDup(dbi DBI, st *dbState, key, val []byte, flags uint) (int, int) {
	if i, found := st.findDup(key, val); found {
		if flags&(NoDupData|NoOverwrite) != 0 {
			return i, KeyExist
		}
		// The exact pair already exists; nothing to do.
		return i, Success
	}
	if flags&NoOverwrite != 0 {
		if _, found := st.find(key); found {
			return 0, KeyExist
		}
	}
	i := st.lowerBoundDup(key, val)
	owned := t.ensureOwned(dbi)
	owned.insertAt(i, entry{key: bytes.Clone(key), val: bytes.Clone(val)})
	t.noteMutation()
	return i, Success
}

// Del removes a key, or with val non-nil in a DupSort keyspace, one exact
// duplicate pair.
func Del(t *Txn, dbi DBI, key, val *Val) int {
	if rc := t.writable(); rc != Success {
		return rc
	}
	st, rc := t.viewDB(dbi)
	if rc != Success {
		return rc
	}
	k := key.Bytes()
	if len(k) == 0 || len(k) > maxKeySize {
		return BadValSize
	}

	if st.isDup() && val != nil && val.Ptr != nil {
		i, found := st.findDup(k, val.Bytes())
		if !found {
			return NotFound
		}
		owned := t.ensureOwned(dbi)
		owned.deleteRange(i, i)
		t.noteMutation()
		return Success
	}

	i, found := st.find(k)
	if !found {
		return NotFound
	}
	first, last := i, i
	if st.isDup() {
		first, last = st.dupRun(i)
	}
	owned := t.ensureOwned(dbi)
	owned.deleteRange(first, last)
	t.noteMutation()
	return Success
}

// Drop empties a keyspace; with del true the keyspace itself is removed.
func Drop(t *Txn, dbi DBI, del bool) int {
	if rc := t.writable(); rc != Success {
		return rc
	}
	if _, rc := t.viewDB(dbi); rc != Success {
		return rc
	}
	if dbi == MainDBI && del {
		return EInvalid
	}
	st := t.ensureOwned(dbi)
	st.entries = nil
	st.bytes = 0
	if del {
		st.deleted = true
	}
	t.noteMutation()
	return Success
}

// noteMutation records a write for commit and cursor bookkeeping.
func (t *Txn) noteMutation() {
	t.dirty = true
	t.stamp++
	var total uint64
	for _, st := range t.dbs {
		if st != nil {
			total += st.bytes
		}
	}
	t.bytes = total
}

func (t *Txn) invalidateCursors() {
	for _, c := range t.cursors {
		if c != nil {
			c.txn = nil
		}
	}
	t.cursors = nil
}

func (t *Txn) removeCursor(c *Cursor) {
	for i, cc := range t.cursors {
		if cc == c {
			t.cursors = append(t.cursors[:i], t.cursors[i+1:]...)
			return
		}
	}
}
