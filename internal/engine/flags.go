package engine

// Environment flags.
const (
	// EnvDefaults is the default durable mode.
	EnvDefaults uint = 0

	// NoSubdir means the path is the data file itself, not a directory.
	NoSubdir uint = 0x00004000

	// ReadOnly opens the environment without write access.
	ReadOnly uint = 0x00020000

	// Exclusive takes an exclusive lock even for read-only opens.
	Exclusive uint = 0x00400000

	// WriteMap requests a writable memory map. The reference engine
	// persists through whole-file rewrites, so the flag is accepted and
	// recorded but changes no behavior.
	WriteMap uint = 0x00080000

	// NoMetaSync skips the final sync of the commit record.
	NoMetaSync uint = 0x00040000

	// SafeNoSync writes commits without forcing them to disk.
	SafeNoSync uint = 0x00010000

	// UtterlyNoSync defers all persistence until an explicit sync.
	UtterlyNoSync = SafeNoSync | NoMetaSync

	// NoReadAhead disables OS readahead hints. Accepted, recorded.
	NoReadAhead uint = 0x00800000
)

// knownEnvFlags is the set accepted by EnvSetFlags and EnvOpen.
const knownEnvFlags = NoSubdir | ReadOnly | Exclusive | WriteMap |
	NoMetaSync | SafeNoSync | NoReadAhead

// Transaction flags.
const (
	TxnReadWrite uint = 0
	TxnReadOnly  uint = 0x20000

	// TxnTry fails with Busy instead of blocking on the writer lock.
	TxnTry uint = 0x10000000
)

// Database flags.
const (
	DBDefaults uint = 0

	// ReverseKey compares keys back to front.
	ReverseKey uint = 0x02

	// DupSort allows multiple sorted values per key.
	DupSort uint = 0x04

	// ReverseDup compares duplicate values back to front.
	ReverseDup uint = 0x40

	// Create creates the keyspace if it does not exist.
	Create uint = 0x40000
)

// persistentDBFlags are the flag bits recorded with a keyspace; Create is a
// request bit, not a property.
const persistentDBFlags = ReverseKey | DupSort | ReverseDup

// Put flags.
const (
	Upsert      uint = 0
	NoOverwrite uint = 0x10
	NoDupData   uint = 0x20
	Current     uint = 0x40
	AllDups     uint = 0x80
	Append      uint = 0x20000
	AppendDup   uint = 0x40000
)

// CursorOp selects how a positioned get moves the cursor. The numbering
// follows the LMDB operator enumeration.
type CursorOp uint

const (
	OpFirst CursorOp = iota
	OpFirstDup
	OpGetBoth
	OpGetBothRange
	OpGetCurrent
	opGetMultiple // reserved, DupFixed bulk reads are not implemented
	OpLast
	OpLastDup
	OpNext
	OpNextDup
	opNextMultiple // reserved
	OpNextNoDup
	OpPrev
	OpPrevDup
	OpPrevNoDup
	OpSet
	OpSetKey
	OpSetRange
)
