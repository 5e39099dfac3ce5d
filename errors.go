package ldbx

import (
	"github.com/ldbx-io/ldbx/internal/engine"
)

// ErrorCode represents an engine status code.
type ErrorCode int

// Error codes - matching MDBX numbering for compatibility
const (
	// Success indicates the operation completed successfully
	Success ErrorCode = engine.Success

	// KeyExist indicates the key/data pair already exists
	KeyExist ErrorCode = engine.KeyExist

	// NotFound indicates the key/data pair was not found (EOF)
	NotFound ErrorCode = engine.NotFound

	// PageNotFound indicates a requested page was not found (corruption)
	PageNotFound ErrorCode = engine.PageNotFound

	// Corrupted indicates the database is corrupted
	Corrupted ErrorCode = engine.Corrupted

	// Panic indicates a fatal environment error; the environment must be
	// closed and reopened before further use
	Panic ErrorCode = engine.Panic

	// VersionMismatch indicates the data file version doesn't match the
	// library
	VersionMismatch ErrorCode = engine.VersionMismatch

	// Invalid indicates the file is not a valid database
	Invalid ErrorCode = engine.Invalid

	// MapFull indicates the environment map size limit was reached
	MapFull ErrorCode = engine.MapFull

	// DBsFull indicates too many named databases are open
	DBsFull ErrorCode = engine.DBsFull

	// ReadersFull indicates too many concurrent read transactions
	ReadersFull ErrorCode = engine.ReadersFull

	// Incompatible indicates the database was opened with incompatible
	// flags
	Incompatible ErrorCode = engine.Incompatible

	// BadTxn indicates an invalid use of a transaction handle
	BadTxn ErrorCode = engine.BadTxn

	// BadValSize indicates a key or value size out of range
	BadValSize ErrorCode = engine.BadValSize

	// BadDBI indicates an invalid database handle
	BadDBI ErrorCode = engine.BadDBI

	// Problem indicates an unexpected internal condition
	Problem ErrorCode = engine.Problem

	// Busy indicates another process or transaction holds the resource
	Busy ErrorCode = engine.Busy
)

// Kind classifies an error by the caller's recovery options.
type Kind int

const (
	// KindRuntime covers conditions arising from database state: missing
	// keys, duplicate keys, full maps. Handle and continue.
	KindRuntime Kind = iota

	// KindLogic covers misuse of the API: operations on resolved
	// transactions, bad handles, out-of-range sizes. Fix the caller.
	KindLogic

	// KindFatal covers corruption and environment panic. Stop using the
	// environment.
	KindFatal
)

// Error is the error type returned by every failing operation.
type Error struct {
	// Origin names the operation that failed, e.g. "txn_begin".
	Origin string

	// Code is the engine status code.
	Code ErrorCode

	// Kind classifies the failure.
	Kind Kind
}

func (e *Error) Error() string {
	return e.Origin + ": " + StrError(e.Code)
}

// StrError returns the message for an error code.
func StrError(code ErrorCode) string {
	return engine.StrError(int(code))
}

// kindOf buckets a status code.
func kindOf(code ErrorCode) Kind {
	switch code {
	case Corrupted, PageNotFound, Panic:
		return KindFatal
	case BadTxn, BadDBI, BadValSize:
		return KindLogic
	default:
		return KindRuntime
	}
}

// opError builds the Error for a failed operation.
func opError(origin string, rc int) *Error {
	return &Error{Origin: origin, Code: ErrorCode(rc), Kind: kindOf(ErrorCode(rc))}
}

// check converts a status code to an error, nil on success.
func check(origin string, rc int) error {
	if rc == engine.Success {
		return nil
	}
	return opError(origin, rc)
}

// checkFound converts a lookup status: NotFound becomes (false, nil) so
// probing for absent keys doesn't allocate errors.
func checkFound(origin string, rc int) (bool, error) {
	switch rc {
	case engine.Success:
		return true, nil
	case engine.NotFound:
		return false, nil
	default:
		return false, opError(origin, rc)
	}
}

// Code extracts the ErrorCode from err, or Success if err is not an
// *Error from this package.
func Code(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return Success
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return Code(err) == NotFound
}

// IsKeyExist reports whether err is a KeyExist error.
func IsKeyExist(err error) bool {
	return Code(err) == KeyExist
}

// IsCorrupted reports whether err indicates on-disk corruption.
func IsCorrupted(err error) bool {
	c := Code(err)
	return c == Corrupted || c == PageNotFound
}

// IsPanic reports whether err indicates an environment panic.
func IsPanic(err error) bool {
	return Code(err) == Panic
}

// IsFatal reports whether err makes the environment unusable.
func IsFatal(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == KindFatal
	}
	return false
}
