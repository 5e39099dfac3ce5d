package engine

import "unsafe"

// Val is the engine's native key/value descriptor: a non-owning pointer and
// length pair. It never allocates and never owns the memory it references.
// Values returned from a read transaction alias either the data file map or
// buffers owned by the committed version; they stay valid until the
// transaction ends or, in a write transaction, until the next write.
type Val struct {
	Ptr  unsafe.Pointer
	Size uintptr
}

// BytesVal wraps a byte slice without copying.
func BytesVal(b []byte) Val {
	if len(b) == 0 {
		return Val{}
	}
	return Val{Ptr: unsafe.Pointer(unsafe.SliceData(b)), Size: uintptr(len(b))}
}

// Bytes returns the referenced memory as a slice, still without copying.
func (v Val) Bytes() []byte {
	if v.Ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(v.Ptr), v.Size)
}
