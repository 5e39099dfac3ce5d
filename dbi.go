package ldbx

import "github.com/ldbx-io/ldbx/internal/engine"

// DBI is a handle to one database (keyspace) within an environment.
// Handles obtained in a committed transaction stay valid in later
// transactions.
type DBI uint32

// Stat describes one database.
type Stat struct {
	PSize         uint32 // Accounting page size
	Depth         uint32 // Tree depth, 0 when empty
	BranchPages   uint64 // Interior pages
	LeafPages     uint64 // Data pages
	OverflowPages uint64 // Pages holding oversized values
	Entries       uint64 // Number of stored pairs
}

// OpenDBI obtains the handle for the named database, creating it when
// flags includes Create. Opening an existing database with conflicting
// persistent flags fails with Incompatible.
func (txn *Txn) OpenDBI(name string, flags uint) (DBI, error) {
	dbi, rc := engine.DBIOpen(txn.h, name, flags)
	if rc != engine.Success {
		return 0, opError("dbi_open", rc)
	}
	return DBI(dbi), nil
}

// OpenRoot obtains the handle for the unnamed root database.
func (txn *Txn) OpenRoot(flags uint) (DBI, error) {
	return txn.OpenDBI("", flags)
}

// Stat returns statistics for the database.
func (txn *Txn) Stat(dbi DBI) (*Stat, error) {
	var st engine.Stat
	if rc := engine.DBIStat(txn.h, engine.DBI(dbi), &st); rc != engine.Success {
		return nil, opError("dbi_stat", rc)
	}
	return &Stat{
		PSize:         st.PageSize,
		Depth:         st.Depth,
		BranchPages:   st.BranchPages,
		LeafPages:     st.LeafPages,
		OverflowPages: st.OverflowPages,
		Entries:       st.Entries,
	}, nil
}

// Flags returns the flags the database was created with.
func (txn *Txn) Flags(dbi DBI) (uint, error) {
	var flags uint
	if rc := engine.DBIFlags(txn.h, engine.DBI(dbi), &flags); rc != engine.Success {
		return 0, opError("dbi_flags", rc)
	}
	return flags, nil
}

// Size returns the number of entries in the database.
func (txn *Txn) Size(dbi DBI) (uint64, error) {
	st, err := txn.Stat(dbi)
	if err != nil {
		return 0, err
	}
	return st.Entries, nil
}

// Get returns the value stored under key. The returned slice aliases
// environment-owned memory; see Val for the lifetime rules. A missing
// key yields (nil, false, nil) rather than an error.
func (txn *Txn) Get(dbi DBI, key []byte) ([]byte, bool, error) {
	k := BytesVal(key)
	var v Val
	rc := engine.Get(txn.h, engine.DBI(dbi), k.raw(), v.raw())
	found, err := checkFound("get", rc)
	if err != nil || !found {
		return nil, found, err
	}
	return v.Bytes(), true, nil
}

// Has reports whether key is present without retrieving the value.
func (txn *Txn) Has(dbi DBI, key []byte) (bool, error) {
	k := BytesVal(key)
	rc := engine.Get(txn.h, engine.DBI(dbi), k.raw(), nil)
	return checkFound("get", rc)
}

// Put stores a key/value pair.
func (txn *Txn) Put(dbi DBI, key, val []byte, flags uint) error {
	k, v := BytesVal(key), BytesVal(val)
	return check("put", engine.Put(txn.h, engine.DBI(dbi), k.raw(), v.raw(), flags))
}

// Del removes key. In a DupSort database a non-nil val removes only that
// exact pair. Deleting an absent key yields (false, nil).
func (txn *Txn) Del(dbi DBI, key, val []byte) (bool, error) {
	k := BytesVal(key)
	var vp *engine.Val
	if val != nil {
		v := BytesVal(val)
		vp = v.raw()
	}
	return checkFound("del", engine.Del(txn.h, engine.DBI(dbi), k.raw(), vp))
}

// Drop removes every entry from the database. With del true the database
// itself is deleted and its handle becomes invalid; the root database
// cannot be deleted.
func (txn *Txn) Drop(dbi DBI, del bool) error {
	return check("drop", engine.Drop(txn.h, engine.DBI(dbi), del))
}
