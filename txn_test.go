package ldbx

import (
	"testing"
)

func TestWriteTransaction(t *testing.T) {
	env := newTestEnv(t, 0)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	if txn.IsReadOnly() {
		t.Error("write transaction reports read-only")
	}

	dbi, err := txn.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	if err := txn.Put(dbi, []byte("key"), []byte("value"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Committed data is visible to a later reader.
	err = env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		val, ok, err := txn.Get(dbi, []byte("key"))
		if err != nil {
			return err
		}
		if !ok || string(val) != "value" {
			t.Errorf("Get: ok=%v val=%q", ok, val)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestAbortDiscards(t *testing.T) {
	env := newTestEnv(t, 0)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	dbi, err := txn.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	if err := txn.Put(dbi, []byte("ghost"), []byte("x"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	txn.Abort()
	txn.Abort() // no-op

	err = env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if ok, err := txn.Has(dbi, []byte("ghost")); err != nil {
			return err
		} else if ok {
			t.Error("aborted write is visible")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestUseAfterCommit(t *testing.T) {
	env := newTestEnv(t, 0)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	dbi, err := txn.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Every use of a resolved handle is a logic error, not a crash.
	err = txn.Put(dbi, []byte("k"), []byte("v"), 0)
	if Code(err) != BadTxn {
		t.Fatalf("Put after Commit: err = %v, want BadTxn", err)
	}
	var e *Error
	if !asError(err, &e) || e.Kind != KindLogic {
		t.Fatalf("err kind = %v, want KindLogic", err)
	}
	if err := txn.Commit(); Code(err) != BadTxn {
		t.Fatalf("double Commit: err = %v, want BadTxn", err)
	}
}

func asError(err error, out **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*out = e
	}
	return ok
}

func TestSnapshotIsolation(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("k"), []byte("old"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reader, err := env.BeginTxn(nil, TxnReadOnly)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer reader.Abort()

	// Writer commits while the reader is live.
	err = env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("k"), []byte("new"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	dbi, err := reader.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	val, ok, err := reader.Get(dbi, []byte("k"))
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(val) != "old" {
		t.Errorf("reader sees %q, want the snapshot value %q", val, "old")
	}
}

func TestResetRenew(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("k"), []byte("v1"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reader, err := env.BeginTxn(nil, TxnReadOnly)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer reader.Abort()
	firstID := reader.ID()

	reader.Reset()

	// Operations on a reset transaction fail until Renew.
	dbi, err := reader.OpenRoot(0)
	if err == nil {
		if _, _, err2 := reader.Get(dbi, []byte("k")); err2 == nil {
			t.Fatal("Get succeeded on a reset transaction")
		}
	}

	err = env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("k"), []byte("v2"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := reader.Renew(); err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if reader.ID() <= firstID {
		t.Errorf("renewed ID = %d, want > %d", reader.ID(), firstID)
	}

	dbi, err = reader.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	val, ok, err := reader.Get(dbi, []byte("k"))
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(val) != "v2" {
		t.Errorf("renewed reader sees %q, want %q", val, "v2")
	}
}

func TestRenewWriteTxn(t *testing.T) {
	env := newTestEnv(t, 0)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer txn.Abort()
	if err := txn.Renew(); err == nil {
		t.Fatal("Renew succeeded on a write transaction")
	}
}

func TestNestedTxnCommit(t *testing.T) {
	env := newTestEnv(t, 0)

	parent, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer parent.Abort()
	dbi, err := parent.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	if err := parent.Put(dbi, []byte("outer"), []byte("1"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	child, err := env.BeginTxn(parent, 0)
	if err != nil {
		t.Fatalf("nested BeginTxn failed: %v", err)
	}
	if err := child.Put(dbi, []byte("inner"), []byte("2"), 0); err != nil {
		t.Fatalf("child Put failed: %v", err)
	}

	// The parent is frozen while the child is active.
	if err := parent.Put(dbi, []byte("x"), []byte("y"), 0); Code(err) != BadTxn {
		t.Fatalf("parent Put during child: err = %v, want BadTxn", err)
	}

	if err := child.Commit(); err != nil {
		t.Fatalf("child Commit failed: %v", err)
	}

	// The child's writes are in the parent, not yet committed.
	if ok, _ := parent.Has(dbi, []byte("inner")); !ok {
		t.Error("child write not visible in parent")
	}
	if err := parent.Commit(); err != nil {
		t.Fatalf("parent Commit failed: %v", err)
	}

	err = env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		for _, k := range []string{"outer", "inner"} {
			if ok, err := txn.Has(dbi, []byte(k)); err != nil || !ok {
				t.Errorf("missing %q after commit: ok=%v err=%v", k, ok, err)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestNestedTxnAbort(t *testing.T) {
	env := newTestEnv(t, 0)

	parent, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer parent.Abort()
	dbi, err := parent.OpenRoot(0)
	if err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	if err := parent.Put(dbi, []byte("keep"), []byte("1"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	child, err := env.BeginTxn(parent, 0)
	if err != nil {
		t.Fatalf("nested BeginTxn failed: %v", err)
	}
	if err := child.Put(dbi, []byte("drop"), []byte("2"), 0); err != nil {
		t.Fatalf("child Put failed: %v", err)
	}
	child.Abort()

	if ok, _ := parent.Has(dbi, []byte("drop")); ok {
		t.Error("aborted child write visible in parent")
	}
	if ok, _ := parent.Has(dbi, []byte("keep")); !ok {
		t.Error("parent write lost after child abort")
	}
}

func TestNestedReadOnly(t *testing.T) {
	env := newTestEnv(t, 0)

	parent, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer parent.Abort()

	if _, err := env.BeginTxn(parent, TxnReadOnly); err == nil {
		t.Fatal("nested read-only transaction accepted")
	}
}

func TestAbortCascades(t *testing.T) {
	env := newTestEnv(t, 0)

	parent, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	child, err := env.BeginTxn(parent, 0)
	if err != nil {
		t.Fatalf("nested BeginTxn failed: %v", err)
	}

	// Aborting the parent resolves the child too.
	parent.Abort()
	if err := child.Commit(); Code(err) != BadTxn {
		t.Fatalf("child Commit after parent Abort: err = %v, want BadTxn", err)
	}
}

func TestTxnTry(t *testing.T) {
	env := newTestEnv(t, 0)

	w, err := env.BeginTxn(nil, 0)
	if err != nil {
		t.Fatalf("BeginTxn failed: %v", err)
	}
	defer w.Abort()

	if _, err := env.BeginTxn(nil, TxnTry); Code(err) != Busy {
		t.Fatalf("TxnTry under writer: err = %v, want Busy", err)
	}
}

func TestWriteOnReadOnlyEnv(t *testing.T) {
	dir := t.TempDir()
	env := reopenEnv(t, dir)
	env.Close()

	ro, err := NewEnv(Default)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	defer ro.Close()
	if err := ro.Open(dir, ReadOnly, 0644); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := ro.BeginTxn(nil, 0); err == nil {
		t.Fatal("write transaction accepted on read-only environment")
	}
}

func TestReadOnlyTxnPut(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("v"), 0); err == nil {
			t.Error("Put succeeded in a read-only transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestCommitPersistence(t *testing.T) {
	dir := t.TempDir()

	env := reopenEnv(t, dir)
	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("durable"), []byte("yes"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	env.Close()

	env2 := reopenEnv(t, dir)
	defer env2.Close()
	err = env2.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		val, ok, err := txn.Get(dbi, []byte("durable"))
		if err != nil {
			return err
		}
		if !ok || string(val) != "yes" {
			t.Errorf("after reopen: ok=%v val=%q", ok, val)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}
