package engine

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ldbx-io/ldbx/mmap"
)

// envSignature marks a live environment handle.
const envSignature uint32 = 0x4C444258 // "LDBX"

// File names within an environment directory.
const (
	DataFileName = "ldbx.dat"
	LockFileName = "ldbx.lck"

	// LockSuffix is appended to the path when NoSubdir is used.
	LockSuffix = "-lck"
)

// Defaults applied by EnvCreate.
const (
	DefaultMapSize    uint64 = 10 * 1024 * 1024
	DefaultMaxReaders uint32 = 126
	DefaultMaxDBs     uint32 = 16

	// PageSize is the accounting granularity reported by DBIStat.
	PageSize uint32 = 4096
)

type readerSlot struct {
	active bool
	txnID  uint64
	owner  *Txn
}

// Env owns one opened storage environment: the data file map, the lock
// file, the reader table and the committed snapshot chain.
type Env struct {
	signature uint32
	flags     uint
	path      string
	dataPath  string
	mode      os.FileMode

	mapSize    uint64
	maxReaders uint32
	maxDBs     uint32

	mu       sync.RWMutex // guards opened, dataMap, lock
	opened   bool
	panicked atomic.Bool
	unsynced atomic.Bool

	lock    *lockFile
	dataMap *mmap.Map

	// current is the most recently committed snapshot. Readers pin it;
	// the writer replaces it atomically at commit.
	current atomic.Pointer[version]

	writeMu    sync.Mutex // the single writer slot
	txnWg      sync.WaitGroup
	activeTxns atomic.Int32

	readersMu sync.Mutex
	readers   []readerSlot
}

func validEnv(e *Env) bool {
	return e != nil && e.signature == envSignature
}

// EnvCreate allocates a new environment handle with default configuration.
// The handle must be opened with EnvOpen before transactions can begin.
func EnvCreate() (*Env, int) {
	return &Env{
		signature:  envSignature,
		mapSize:    DefaultMapSize,
		maxReaders: DefaultMaxReaders,
		maxDBs:     DefaultMaxDBs,
	}, Success
}

// EnvSetFlags sets or clears environment flags. After open only the sync
// policy bits may change.
func EnvSetFlags(e *Env, flags uint, onoff bool) int {
	if !validEnv(e) {
		return Invalid
	}
	if flags&^knownEnvFlags != 0 {
		return EInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened && flags&^(SafeNoSync|NoMetaSync|NoReadAhead) != 0 {
		return EInvalid
	}
	if onoff {
		e.flags |= flags
	} else {
		e.flags &^= flags
	}
	return Success
}

// EnvSetMapSize sets the data size budget. The size may be raised on an
// open environment, but not while any transaction is active.
func EnvSetMapSize(e *Env, size uint64) int {
	if !validEnv(e) {
		return Invalid
	}
	if size == 0 {
		return EInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		if e.activeTxns.Load() != 0 {
			return EInvalid
		}
		if v := e.current.Load(); v != nil && v.bytes > size {
			return EInvalid
		}
	}
	e.mapSize = size
	return Success
}

// EnvSetMaxReaders sets the reader table size. Must precede EnvOpen.
func EnvSetMaxReaders(e *Env, n uint32) int {
	if !validEnv(e) {
		return Invalid
	}
	if n == 0 {
		return EInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return EInvalid
	}
	e.maxReaders = n
	return Success
}

// EnvSetMaxDBs sets the named keyspace limit. Must precede EnvOpen.
func EnvSetMaxDBs(e *Env, n uint32) int {
	if !validEnv(e) {
		return Invalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return EInvalid
	}
	e.maxDBs = n
	return Success
}

// EnvOpen binds the handle to the backing store at path and loads the
// committed state through a memory map.
func EnvOpen(e *Env, path string, flags uint, mode os.FileMode) int {
	if !validEnv(e) {
		return Invalid
	}
	if flags&^knownEnvFlags != 0 {
		return EInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return EInvalid
	}

	e.flags |= flags
	e.path = path
	e.mode = mode

	var dataPath, lockPath string
	if e.flags&NoSubdir != 0 {
		dataPath = path
		lockPath = path + LockSuffix
	} else {
		if err := os.MkdirAll(path, mode|0700); err != nil {
			return Invalid
		}
		dataPath = filepath.Join(path, DataFileName)
		lockPath = filepath.Join(path, LockFileName)
	}
	e.dataPath = dataPath

	readonly := e.flags&ReadOnly != 0
	exclusive := !readonly || e.flags&Exclusive != 0
	lf, rc := openLockFile(lockPath, exclusive, mode)
	if rc != Success {
		return rc
	}

	fi, err := os.Stat(dataPath)
	if err != nil || fi.Size() == 0 {
		if readonly {
			lf.close()
			return Invalid
		}
		if rc := e.initNewDB(); rc != Success {
			lf.close()
			return rc
		}
	}

	m, err := mmap.MapFile(dataPath, false)
	if err != nil {
		lf.close()
		return Invalid
	}

	v, rc := decodeVersion(m.Data())
	if rc != Success {
		m.Close()
		lf.close()
		return rc
	}
	if v.bytes > e.mapSize {
		m.Close()
		lf.close()
		return MapFull
	}

	debugf("open %s txn=%d dbs=%d bytes=%d", dataPath, v.txnID, len(v.dbs), v.bytes)

	e.lock = lf
	e.dataMap = m
	e.current.Store(v)
	e.readers = make([]readerSlot, e.maxReaders)
	e.panicked.Store(false)
	e.unsynced.Store(false)
	e.opened = true
	return Success
}

// initNewDB writes an initial data file holding one empty root keyspace.
func (e *Env) initNewDB() int {
	v := &version{
		txnID: 1,
		dbs:   []*dbState{{name: ""}},
	}
	return e.writeDataFile(v, true)
}

// writeDataFile serializes a version to the data file. The snapshot is
// written to a temporary file and renamed into place so a failure cannot
// clobber the previous committed state.
func (e *Env) writeDataFile(v *version, sync bool) int {
	tmp := e.dataPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, e.fileMode())
	if err != nil {
		return Problem
	}
	if _, err := f.Write(encodeVersion(v)); err != nil {
		f.Close()
		os.Remove(tmp)
		return ENoSpace
	}
	if sync {
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(tmp)
			return Problem
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Problem
	}
	if err := os.Rename(tmp, e.dataPath); err != nil {
		// The previous file may be gone if the rename failed midway;
		// in that case the environment can no longer be trusted.
		if _, statErr := os.Stat(e.dataPath); statErr != nil {
			e.panicked.Store(true)
			return Panic
		}
		return Problem
	}
	e.unsynced.Store(!sync)
	return Success
}

func (e *Env) fileMode() os.FileMode {
	if e.mode == 0 {
		return 0644
	}
	return e.mode
}

// EnvSync flushes the committed state to disk. With force true the state is
// rewritten and fsynced even if no commit is pending.
func EnvSync(e *Env, force bool) int {
	if !validEnv(e) {
		return Invalid
	}
	if e.panicked.Load() {
		return Panic
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.opened {
		return Invalid
	}
	if e.flags&ReadOnly != 0 {
		return EAccess
	}
	if !force && !e.unsynced.Load() {
		return Success
	}
	v := e.current.Load()
	if v == nil {
		return Invalid
	}
	return e.writeDataFile(v, true)
}

// EnvClose releases the environment. It is idempotent and never fails.
// Close waits for in-flight transactions before unmapping; resolving them
// first is the caller's obligation.
func EnvClose(e *Env) {
	if !validEnv(e) {
		return
	}
	e.mu.Lock()
	if !e.opened {
		e.mu.Unlock()
		return
	}
	e.opened = false
	e.mu.Unlock()

	e.txnWg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dataMap != nil {
		e.dataMap.Close()
		e.dataMap = nil
	}
	if e.lock != nil {
		e.lock.close()
		e.lock = nil
	}
}

// EnvPath returns the path the environment was opened with.
func EnvPath(e *Env) string {
	if !validEnv(e) {
		return ""
	}
	return e.path
}

// EnvFlags returns the current environment flags.
func EnvFlags(e *Env) (uint, int) {
	if !validEnv(e) {
		return 0, Invalid
	}
	return e.flags, Success
}

// EnvReaderCheck clears stale reader slots and reports how many were
// cleared. In-process readers release their slots on abort, so a non-zero
// result indicates a reader that was leaked without resolving.
func EnvReaderCheck(e *Env) (int, int) {
	if !validEnv(e) {
		return 0, Invalid
	}
	e.readersMu.Lock()
	defer e.readersMu.Unlock()
	cleared := 0
	for i := range e.readers {
		if e.readers[i].active && e.readers[i].owner != nil && e.readers[i].owner.done {
			e.readers[i] = readerSlot{}
			cleared++
		}
	}
	return cleared, Success
}

// acquireReader claims a reader slot, or fails with ReadersFull.
func (e *Env) acquireReader(owner *Txn, txnID uint64) (int, int) {
	e.readersMu.Lock()
	defer e.readersMu.Unlock()
	for i := range e.readers {
		if !e.readers[i].active {
			e.readers[i] = readerSlot{active: true, txnID: txnID, owner: owner}
			return i, Success
		}
	}
	return -1, ReadersFull
}

func (e *Env) releaseReader(slot int) {
	if slot < 0 {
		return
	}
	e.readersMu.Lock()
	if slot < len(e.readers) {
		e.readers[slot] = readerSlot{}
	}
	e.readersMu.Unlock()
}

func (e *Env) setReaderTxnID(slot int, txnID uint64) {
	if slot < 0 {
		return
	}
	e.readersMu.Lock()
	if slot < len(e.readers) {
		e.readers[slot].txnID = txnID
	}
	e.readersMu.Unlock()
}

// isOpen reports whether the environment is usable, without claiming it.
func (e *Env) isOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opened
}
