// Package ldbx is an embedded transactional key-value store with an
// LMDB-shaped API and a safety layer that makes handle misuse an error
// instead of undefined behavior.
//
// Key features:
//   - MVCC snapshots: readers never block the writer and vice versa
//   - Single writer, multiple readers concurrency model
//   - Zero-copy reads out of a memory-mapped data file
//   - Sorted keys with optional sorted duplicates (DupSort)
//   - Nested read-write transactions
//   - Crash-safe commits via atomic file replacement
//
// Basic usage:
//
//	env, err := ldbx.NewEnv(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	if err := env.Open("/path/to/db", 0, 0644); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = env.Update(func(txn *ldbx.Txn) error {
//	    dbi, err := txn.OpenRoot(0)
//	    if err != nil {
//	        return err
//	    }
//	    return txn.Put(dbi, []byte("hello"), []byte("world"), 0)
//	})
//
// Lookups distinguish absence from failure without allocating:
//
//	val, ok, err := txn.Get(dbi, []byte("hello"))
//
// Values returned by Get and Cursor.Get alias memory owned by the
// environment. They stay valid until the transaction resolves or, in a
// read-write transaction, until the next write. Copy them out to keep
// them longer.
//
// Errors carry an operation origin, an ErrorCode, and a Kind that
// classifies them as runtime conditions, caller logic errors, or fatal
// environment failures. See the Error type.
package ldbx
