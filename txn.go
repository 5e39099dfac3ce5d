package ldbx

import "github.com/ldbx-io/ldbx/internal/engine"

// Txn is a transaction handle. Read-only transactions see an immutable
// snapshot; read-write transactions serialize against each other and
// become visible atomically on Commit.
//
// A Txn is not safe for concurrent use by multiple goroutines.
type Txn struct {
	env   *Env
	h     *engine.Txn
	flags uint
}

// Env returns the environment that started the transaction.
func (txn *Txn) Env() *Env {
	return txn.env
}

// ID returns the snapshot identifier the transaction observes. A reset
// read-only transaction reports 0 until renewed.
func (txn *Txn) ID() uint64 {
	return engine.TxnID(txn.h)
}

// IsReadOnly reports whether the transaction was started read-only.
func (txn *Txn) IsReadOnly() bool {
	return txn.flags&TxnReadOnly != 0
}

// Commit applies the transaction's writes. On error the transaction is
// already aborted; the handle must not be used again either way.
func (txn *Txn) Commit() error {
	if txn.h == nil {
		return opError("txn_commit", engine.BadTxn)
	}
	rc := engine.TxnCommit(txn.h)
	txn.h = nil
	return check("txn_commit", rc)
}

// Abort discards the transaction. Aborting an already resolved handle is
// a no-op; Abort never fails.
func (txn *Txn) Abort() {
	if txn.h == nil {
		return
	}
	engine.TxnAbort(txn.h)
	txn.h = nil
}

// Reset releases the snapshot of a read-only transaction but keeps its
// reader slot, making a later Renew cheap. Reset on a read-write
// transaction is a no-op.
func (txn *Txn) Reset() {
	engine.TxnReset(txn.h)
}

// Renew reacquires a current snapshot for a Reset transaction.
func (txn *Txn) Renew() error {
	return check("txn_renew", engine.TxnRenew(txn.h))
}
