package ldbx

import (
	"unsafe"

	"github.com/ldbx-io/ldbx/internal/engine"
)

// Val is a zero-copy descriptor of a byte region. Vals returned by Get
// and Cursor.Get alias memory owned by the environment; they are valid
// until the transaction that produced them resolves or performs a write.
// Copy the bytes out to keep them longer.
type Val struct {
	ptr  unsafe.Pointer
	size uintptr
}

// Val and engine.Val must stay layout-identical; raw() casts between
// them without copying.
const (
	_ = uintptr(unsafe.Sizeof(Val{}) - unsafe.Sizeof(engine.Val{}))
	_ = uintptr(unsafe.Sizeof(engine.Val{}) - unsafe.Sizeof(Val{}))
)

func (v *Val) raw() *engine.Val {
	return (*engine.Val)(unsafe.Pointer(v))
}

// BytesVal wraps a byte slice without copying.
func BytesVal(b []byte) Val {
	ev := engine.BytesVal(b)
	return Val{ptr: ev.Ptr, size: ev.Size}
}

// StringVal wraps the bytes of a string without copying. The Val must
// not be passed to a mutating operation's output position.
func StringVal(s string) Val {
	if len(s) == 0 {
		return Val{}
	}
	return Val{
		ptr:  unsafe.Pointer(unsafe.StringData(s)),
		size: uintptr(len(s)),
	}
}

// Bytes returns the described region as a slice, still aliasing the
// underlying memory.
func (v Val) Bytes() []byte {
	if v.ptr == nil || v.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.ptr), v.size)
}

// String copies the region into a string.
func (v Val) String() string {
	return string(v.Bytes())
}

// Len returns the region's size in bytes.
func (v Val) Len() int {
	return int(v.size)
}

// GetTyped reads the value for key and reinterprets it as V. The stored
// length must equal the size of V exactly, otherwise the call fails with
// BadValSize: a length mismatch means the caller's type does not describe
// what the database holds.
func GetTyped[K, V any](txn *Txn, dbi DBI, key *K) (*V, bool, error) {
	k := Val{ptr: unsafe.Pointer(key), size: unsafe.Sizeof(*key)}
	var out Val
	rc := engine.Get(txn.h, engine.DBI(dbi), k.raw(), out.raw())
	found, err := checkFound("get", rc)
	if err != nil || !found {
		return nil, found, err
	}
	var zero V
	if out.size != unsafe.Sizeof(zero) {
		return nil, false, opError("get", engine.BadValSize)
	}
	return (*V)(out.ptr), true, nil
}

// PutTyped stores val under key, both reinterpreted as raw bytes.
func PutTyped[K, V any](txn *Txn, dbi DBI, key *K, val *V, flags uint) error {
	k := Val{ptr: unsafe.Pointer(key), size: unsafe.Sizeof(*key)}
	v := Val{ptr: unsafe.Pointer(val), size: unsafe.Sizeof(*val)}
	return check("put", engine.Put(txn.h, engine.DBI(dbi), k.raw(), v.raw(), flags))
}
