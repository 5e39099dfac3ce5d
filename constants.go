package ldbx

import "github.com/ldbx-io/ldbx/internal/engine"

// Environment flags for NewEnv, Open, and SetFlags.
const (
	// Default requests no special behavior.
	Default uint = 0

	// NoSubdir stores the data in path itself rather than path/ldbx.dat.
	// The lock file gets a "-lck" suffix.
	NoSubdir = engine.NoSubdir

	// ReadOnly opens the environment without write access. Write
	// transactions fail with an EACCES-style error.
	ReadOnly = engine.ReadOnly

	// Exclusive takes the process lock exclusively even when read-only.
	Exclusive = engine.Exclusive

	// WriteMap is accepted for API compatibility; commits always go
	// through the write path.
	WriteMap = engine.WriteMap

	// NoMetaSync skips the metadata fsync on commit. A crash can lose
	// the last transactions but cannot corrupt the database.
	NoMetaSync = engine.NoMetaSync

	// SafeNoSync skips the data fsync on commit, trading durability for
	// speed while preserving integrity.
	SafeNoSync = engine.SafeNoSync

	// UtterlyNoSync keeps commits in memory until Sync or Close.
	UtterlyNoSync = engine.UtterlyNoSync

	// NoReadAhead hints that access is random (accepted, advisory).
	NoReadAhead = engine.NoReadAhead
)

// Transaction flags for BeginTxn.
const (
	// TxnReadWrite starts a read-write transaction.
	TxnReadWrite = engine.TxnReadWrite

	// TxnReadOnly starts a read-only transaction on a snapshot.
	TxnReadOnly = engine.TxnReadOnly

	// TxnTry fails with Busy instead of blocking when the writer slot is
	// taken.
	TxnTry = engine.TxnTry
)

// Database flags for OpenDBI.
const (
	// ReverseKey compares keys back to front.
	ReverseKey = engine.ReverseKey

	// DupSort allows multiple sorted values per key.
	DupSort = engine.DupSort

	// ReverseDup compares duplicate values back to front.
	ReverseDup = engine.ReverseDup

	// Create creates the named database if it doesn't exist.
	Create = engine.Create
)

// Put flags for Put and CursorPut.
const (
	// Upsert inserts or replaces; the default behavior.
	Upsert = engine.Upsert

	// NoOverwrite fails with KeyExist if the key is already present.
	NoOverwrite = engine.NoOverwrite

	// NoDupData fails with KeyExist if the exact pair is already present
	// in a DupSort database.
	NoDupData = engine.NoDupData

	// Current replaces the value under the cursor.
	Current = engine.Current

	// AllDups applies the operation to every duplicate of the key.
	AllDups = engine.AllDups

	// Append requires keys in ascending order; out-of-order keys fail
	// with KeyExist.
	Append = engine.Append

	// AppendDup is Append for duplicate values.
	AppendDup = engine.AppendDup
)

// CursorOp selects the positioning operation for Cursor.Get.
type CursorOp = engine.CursorOp

// Cursor operations.
const (
	// First positions at the first entry.
	First = engine.OpFirst

	// FirstDup positions at the first duplicate of the current key.
	FirstDup = engine.OpFirstDup

	// GetBoth seeks to an exact key/value pair.
	GetBoth = engine.OpGetBoth

	// GetBothRange seeks to a key and the first value >= the given one.
	GetBothRange = engine.OpGetBothRange

	// GetCurrent returns the entry under the cursor.
	GetCurrent = engine.OpGetCurrent

	// Last positions at the final entry.
	Last = engine.OpLast

	// LastDup positions at the last duplicate of the current key.
	LastDup = engine.OpLastDup

	// Next advances to the next entry.
	Next = engine.OpNext

	// NextDup advances to the next duplicate of the current key.
	NextDup = engine.OpNextDup

	// NextNoDup advances to the first duplicate of the next key.
	NextNoDup = engine.OpNextNoDup

	// Prev steps back to the previous entry.
	Prev = engine.OpPrev

	// PrevDup steps back within the current key's duplicates.
	PrevDup = engine.OpPrevDup

	// PrevNoDup steps back to the last duplicate of the previous key.
	PrevNoDup = engine.OpPrevNoDup

	// Set seeks to a key, returning only the value.
	Set = engine.OpSet

	// SetKey seeks to a key, returning both key and value.
	SetKey = engine.OpSetKey

	// SetRange seeks to the first key >= the given one.
	SetRange = engine.OpSetRange
)
