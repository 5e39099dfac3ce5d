package ldbx

import (
	"os"
	"runtime"

	"github.com/ldbx-io/ldbx/internal/engine"
)

// Env is a handle to a database environment: one data file, one lock
// file, and the transaction machinery over them. An Env must be created
// with NewEnv, then Open-ed before use.
//
// Close is idempotent and safe to call on an Env whose Open failed.
// All other methods must not be called after Close.
type Env struct {
	h *engine.Env
}

// NewEnv allocates an environment configured with flags. Flags may also
// be supplied later via SetFlags or Open.
func NewEnv(flags uint) (*Env, error) {
	h, rc := engine.EnvCreate()
	if rc != engine.Success {
		return nil, opError("env_create", rc)
	}
	env := &Env{h: h}
	if flags != 0 {
		if rc := engine.EnvSetFlags(h, flags, true); rc != engine.Success {
			engine.EnvClose(h)
			return nil, opError("env_set_flags", rc)
		}
	}
	runtime.SetFinalizer(env, func(e *Env) { e.Close() })
	return env, nil
}

// Open associates the environment with path and loads the committed
// state. mode sets the permission bits for files the environment
// creates; 0 means 0644.
func (env *Env) Open(path string, flags uint, mode os.FileMode) error {
	return check("env_open", engine.EnvOpen(env.h, path, flags, mode))
}

// Close releases the environment. It blocks until in-flight transactions
// resolve, then unmaps the data file and drops the process lock. Calling
// Close more than once is a no-op.
func (env *Env) Close() {
	if env.h == nil {
		return
	}
	runtime.SetFinalizer(env, nil)
	engine.EnvClose(env.h)
	env.h = nil
}

// Sync flushes committed state to disk. With force true the state is
// rewritten and fsynced even when nothing is pending, which is how
// UtterlyNoSync environments checkpoint.
func (env *Env) Sync(force bool) error {
	return check("env_sync", engine.EnvSync(env.h, force))
}

// SetFlags turns the given environment flags on or off. After Open only
// the sync-related flags may change.
func (env *Env) SetFlags(flags uint, onoff bool) error {
	return check("env_set_flags", engine.EnvSetFlags(env.h, flags, onoff))
}

// SetMapSize caps the total size of stored data. It fails while any
// transaction is active, or if the environment already holds more data
// than the new cap.
func (env *Env) SetMapSize(size uint64) error {
	return check("env_set_mapsize", engine.EnvSetMapSize(env.h, size))
}

// SetMaxReaders bounds concurrent read transactions. Only valid before
// Open.
func (env *Env) SetMaxReaders(readers uint32) error {
	return check("env_set_maxreaders", engine.EnvSetMaxReaders(env.h, readers))
}

// SetMaxDBs bounds the number of named databases. Only valid before
// Open.
func (env *Env) SetMaxDBs(dbs uint32) error {
	return check("env_set_maxdbs", engine.EnvSetMaxDBs(env.h, dbs))
}

// Path returns the path given to Open.
func (env *Env) Path() (string, error) {
	p := engine.EnvPath(env.h)
	if p == "" {
		return "", opError("env_path", engine.Invalid)
	}
	return p, nil
}

// Flags returns the environment's current flag bits.
func (env *Env) Flags() (uint, error) {
	flags, rc := engine.EnvFlags(env.h)
	if rc != engine.Success {
		return 0, opError("env_flags", rc)
	}
	return flags, nil
}

// Stat returns statistics for the root database.
func (env *Env) Stat() (*Stat, error) {
	var stat *Stat
	err := env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		st, err := txn.Stat(dbi)
		if err != nil {
			return err
		}
		stat = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stat, nil
}

// ReaderCheck clears reader slots whose transactions were dropped without
// resolving, returning the number cleared.
func (env *Env) ReaderCheck() (int, error) {
	n, rc := engine.EnvReaderCheck(env.h)
	if rc != engine.Success {
		return 0, opError("reader_check", rc)
	}
	return n, nil
}

// CloseDBI releases a database handle. Handles are cheap; closing them is
// optional.
func (env *Env) CloseDBI(dbi DBI) {
	engine.DBIClose(env.h, engine.DBI(dbi))
}

// SetDebugLog enables or disables debug logging (for debugging only).
func SetDebugLog(enabled bool) {
	engine.SetDebugLog(enabled)
}

// BeginTxn starts a transaction. parent must be nil unless nesting a
// read-write transaction inside another.
//
// The returned Txn must be resolved exactly once with Commit or Abort.
func (env *Env) BeginTxn(parent *Txn, flags uint) (*Txn, error) {
	var p *engine.Txn
	if parent != nil {
		p = parent.h
	}
	h, rc := engine.TxnBegin(env.h, p, flags)
	if rc != engine.Success {
		return nil, opError("txn_begin", rc)
	}
	return &Txn{env: env, h: h, flags: flags}, nil
}
