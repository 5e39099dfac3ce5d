package engine

import "fmt"

// Status codes returned by every engine primitive. Zero is success,
// NotFound is the reserved "no such key" sentinel, positive values are
// errno-style OS conditions and the remaining negative values are engine
// conditions. The numbering follows the MDBX convention.
const (
	Success = 0

	// KeyExist indicates the key/data pair already exists.
	KeyExist = -30799

	// NotFound indicates the key/data pair was not found.
	NotFound = -30798

	// PageNotFound indicates a referenced record is missing (corruption).
	PageNotFound = -30797

	// Corrupted indicates the data file failed validation.
	Corrupted = -30796

	// Panic indicates a fatal environment error; the environment must be
	// reopened before further use.
	Panic = -30795

	// VersionMismatch indicates the data file format version does not
	// match this library.
	VersionMismatch = -30794

	// Invalid indicates the file is not a valid data file, or a handle is
	// not in a usable state.
	Invalid = -30793

	// MapFull indicates the configured map size has been reached.
	MapFull = -30792

	// DBsFull indicates the configured maxdbs limit has been reached.
	DBsFull = -30791

	// ReadersFull indicates the configured maxreaders limit has been
	// reached.
	ReadersFull = -30790

	// Incompatible indicates an operation or flag set incompatible with
	// how the database was created.
	Incompatible = -30784

	// BadTxn indicates the transaction handle is invalid for the request.
	BadTxn = -30782

	// BadValSize indicates an unsupported key or value size.
	BadValSize = -30781

	// BadDBI indicates the database handle is invalid.
	BadDBI = -30780

	// Problem indicates an unexpected internal failure.
	Problem = -30779

	// Busy indicates the environment is in use by another process.
	Busy = -30778
)

// Errno-style codes for conditions the engine forwards from the OS layer.
const (
	EAccess  = 13 // write attempted against a read-only handle
	EInvalid = 22 // invalid argument
	ENoSpace = 28 // no space available for the data file
)

var statusText = map[int]string{
	Success:         "success",
	KeyExist:        "key/data pair already exists",
	NotFound:        "key/data pair not found",
	PageNotFound:    "requested record not found",
	Corrupted:       "data file is corrupted",
	Panic:           "fatal environment error",
	VersionMismatch: "data file version mismatch",
	Invalid:         "not a valid data file or handle",
	MapFull:         "map size limit reached",
	DBsFull:         "maxdbs limit reached",
	ReadersFull:     "maxreaders limit reached",
	Incompatible:    "incompatible operation or flags",
	BadTxn:          "transaction is invalid",
	BadValSize:      "invalid key or value size",
	BadDBI:          "invalid database handle",
	Problem:         "unexpected internal error",
	Busy:            "environment is busy",
	EAccess:         "permission denied",
	EInvalid:        "invalid argument",
	ENoSpace:        "no space left for data file",
}

// StrError returns the description for a status code. It never fails;
// unknown codes produce a numeric description.
func StrError(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown status code %d", code)
}
