package ldbx

import (
	"bytes"
	"testing"
)

func TestNamedDatabases(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		users, err := txn.OpenDBI("users", Create)
		if err != nil {
			return err
		}
		orders, err := txn.OpenDBI("orders", Create)
		if err != nil {
			return err
		}
		if users == orders {
			t.Error("distinct databases share a handle")
		}
		if err := txn.Put(users, []byte("alice"), []byte("1"), 0); err != nil {
			return err
		}
		return txn.Put(orders, []byte("alice"), []byte("99"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Same key, different databases, different values.
	err = env.View(func(txn *Txn) error {
		users, err := txn.OpenDBI("users", 0)
		if err != nil {
			return err
		}
		orders, err := txn.OpenDBI("orders", 0)
		if err != nil {
			return err
		}
		u, _, err := txn.Get(users, []byte("alice"))
		if err != nil {
			return err
		}
		o, _, err := txn.Get(orders, []byte("alice"))
		if err != nil {
			return err
		}
		if string(u) != "1" || string(o) != "99" {
			t.Errorf("users=%q orders=%q", u, o)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestOpenDBIMissing(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.View(func(txn *Txn) error {
		_, err := txn.OpenDBI("absent", 0)
		if Code(err) != NotFound {
			t.Errorf("err = %v, want NotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestOpenDBIIncompatibleFlags(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		_, err := txn.OpenDBI("plain", Create)
		return err
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = env.View(func(txn *Txn) error {
		_, err := txn.OpenDBI("plain", DupSort)
		if Code(err) != Incompatible {
			t.Errorf("err = %v, want Incompatible", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestDBsFull(t *testing.T) {
	env, err := NewEnv(Default)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	defer env.Close()
	if err := env.SetMaxDBs(2); err != nil {
		t.Fatalf("SetMaxDBs failed: %v", err)
	}
	if err := env.Open(t.TempDir(), 0, 0644); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	err = env.Update(func(txn *Txn) error {
		if _, err := txn.OpenDBI("one", Create); err != nil {
			return err
		}
		if _, err := txn.OpenDBI("two", Create); err != nil {
			return err
		}
		_, err := txn.OpenDBI("three", Create)
		if Code(err) != DBsFull {
			t.Errorf("err = %v, want DBsFull", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		val, ok, err := txn.Get(dbi, []byte("nope"))
		if err != nil {
			t.Errorf("missing key returned error: %v", err)
		}
		if ok || val != nil {
			t.Errorf("missing key: ok=%v val=%v", ok, val)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestGetEmptyKey(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.View(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		_, _, err = txn.Get(dbi, nil)
		if Code(err) != BadValSize {
			t.Errorf("err = %v, want BadValSize", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestPutOversizedKey(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		key := make([]byte, 600)
		err = txn.Put(dbi, key, []byte("v"), 0)
		if Code(err) != BadValSize {
			t.Errorf("err = %v, want BadValSize", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestPutNoOverwrite(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("first"), 0); err != nil {
			return err
		}
		err = txn.Put(dbi, []byte("k"), []byte("second"), NoOverwrite)
		if Code(err) != KeyExist {
			t.Errorf("err = %v, want KeyExist", err)
		}
		val, _, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(val) != "first" {
			t.Errorf("val = %q, want the original", val)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestPutUpsert(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("first"), 0); err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("second"), 0); err != nil {
			return err
		}
		val, _, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(val) != "second" {
			t.Errorf("val = %q, want the replacement", val)
		}
		n, err := txn.Size(dbi)
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("Size = %d, want 1", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestDel(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("v"), 0); err != nil {
			return err
		}
		ok, err := txn.Del(dbi, []byte("k"), nil)
		if err != nil || !ok {
			t.Errorf("Del: ok=%v err=%v", ok, err)
		}
		// Second delete finds nothing, reports false without error.
		ok, err = txn.Del(dbi, []byte("k"), nil)
		if err != nil || ok {
			t.Errorf("repeat Del: ok=%v err=%v", ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestDupSortPutGetDel(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenDBI("dup", Create|DupSort)
		if err != nil {
			return err
		}
		for _, v := range []string{"cherry", "apple", "banana"} {
			if err := txn.Put(dbi, []byte("fruit"), []byte(v), 0); err != nil {
				return err
			}
		}

		// Get returns the first duplicate in sort order.
		val, _, err := txn.Get(dbi, []byte("fruit"))
		if err != nil {
			return err
		}
		if string(val) != "apple" {
			t.Errorf("first dup = %q, want %q", val, "apple")
		}

		// The exact pair again is a no-op; NoDupData flags it.
		if err := txn.Put(dbi, []byte("fruit"), []byte("apple"), 0); err != nil {
			return err
		}
		err = txn.Put(dbi, []byte("fruit"), []byte("apple"), NoDupData)
		if Code(err) != KeyExist {
			t.Errorf("NoDupData err = %v, want KeyExist", err)
		}

		// Deleting one pair leaves the others.
		if ok, err := txn.Del(dbi, []byte("fruit"), []byte("banana")); err != nil || !ok {
			t.Errorf("Del pair: ok=%v err=%v", ok, err)
		}
		n, err := txn.Size(dbi)
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("Size = %d, want 2", n)
		}

		// Deleting without a value drops the whole run.
		if ok, err := txn.Del(dbi, []byte("fruit"), nil); err != nil || !ok {
			t.Errorf("Del run: ok=%v err=%v", ok, err)
		}
		n, _ = txn.Size(dbi)
		if n != 0 {
			t.Errorf("Size after run delete = %d, want 0", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestReverseKeyOrder(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenDBI("rev", Create|ReverseKey)
		if err != nil {
			return err
		}
		keys := [][]byte{{'a', 'z'}, {'b', 'a'}, {'z', 'a'}}
		for _, k := range keys {
			if err := txn.Put(dbi, k, []byte("v"), 0); err != nil {
				return err
			}
		}
		cur, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer cur.Close()

		// Compared back to front: "ba" and "za" tie on the final 'a',
		// then b < z; "az" sorts last on its final 'z'.
		want := [][]byte{{'b', 'a'}, {'z', 'a'}, {'a', 'z'}}
		for i := range want {
			k, _, ok, err := cur.Get(nil, nil, Next)
			if err != nil || !ok {
				t.Fatalf("Next %d: ok=%v err=%v", i, ok, err)
			}
			if !bytes.Equal(k, want[i]) {
				t.Errorf("key %d = %q, want %q", i, k, want[i])
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestAppend(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		for _, k := range []string{"a", "b", "c"} {
			if err := txn.Put(dbi, []byte(k), []byte("v"), Append); err != nil {
				return err
			}
		}
		// Out of order append is rejected.
		err = txn.Put(dbi, []byte("b2"), []byte("v"), Append)
		if Code(err) != KeyExist {
			t.Errorf("out-of-order Append err = %v, want KeyExist", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestDrop(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenDBI("todrop", Create)
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("v"), 0); err != nil {
			return err
		}

		// Empty without deleting.
		if err := txn.Drop(dbi, false); err != nil {
			return err
		}
		n, err := txn.Size(dbi)
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("Size after Drop = %d, want 0", n)
		}

		// The handle still works.
		if err := txn.Put(dbi, []byte("k2"), []byte("v"), 0); err != nil {
			return err
		}

		// Delete the database entirely.
		if err := txn.Drop(dbi, true); err != nil {
			return err
		}
		if _, err := txn.Stat(dbi); Code(err) != BadDBI {
			t.Errorf("Stat after delete: err = %v, want BadDBI", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// The name is free for reuse.
	err = env.Update(func(txn *Txn) error {
		_, err := txn.OpenDBI("todrop", Create)
		return err
	})
	if err != nil {
		t.Fatalf("reuse after delete failed: %v", err)
	}
}

func TestDropRoot(t *testing.T) {
	env := newTestEnv(t, 0)

	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenRoot(0)
		if err != nil {
			return err
		}
		if err := txn.Drop(dbi, true); err == nil {
			t.Error("deleting the root database succeeded")
		}
		return txn.Drop(dbi, false)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestDBIFlagsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	env := reopenEnv(t, dir)
	err := env.Update(func(txn *Txn) error {
		dbi, err := txn.OpenDBI("dup", Create|DupSort|ReverseDup)
		if err != nil {
			return err
		}
		return txn.Put(dbi, []byte("k"), []byte("v"), 0)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	env.Close()

	env2 := reopenEnv(t, dir)
	defer env2.Close()
	err = env2.View(func(txn *Txn) error {
		dbi, err := txn.OpenDBI("dup", 0)
		if err != nil {
			return err
		}
		flags, err := txn.Flags(dbi)
		if err != nil {
			return err
		}
		if flags&DupSort == 0 || flags&ReverseDup == 0 {
			t.Errorf("flags = %#x after reopen", flags)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}
