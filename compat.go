package ldbx

// TxnOp is a function that operates on a transaction.
// This is the callback type for View, Update, and RunTxn.
type TxnOp func(txn *Txn) error

// View executes a read-only transaction.
// The transaction is aborted when fn returns, regardless of outcome.
func (env *Env) View(fn TxnOp) error {
	txn, err := env.BeginTxn(nil, TxnReadOnly)
	if err != nil {
		return err
	}
	defer txn.Abort()
	return fn(txn)
}

// Update executes a read-write transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (env *Env) Update(fn TxnOp) error {
	return env.RunTxn(TxnReadWrite, fn)
}

// RunTxn runs a transaction with the given flags.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (env *Env) RunTxn(flags uint, fn TxnOp) error {
	txn, err := env.BeginTxn(nil, flags)
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}
