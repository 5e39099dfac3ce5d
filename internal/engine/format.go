package engine

import "encoding/binary"

// Data file layout, all integers little-endian:
//
//	magic    u64
//	version  u32
//	reserved u32
//	txnID    u64
//	dbCount  u32
//	per keyspace:
//	  nameLen u32 | name | flags u32 | deleted u8 | count u64
//	  per entry: klen u32 | vlen u32 | key | val
//
// Deleted keyspaces stay in the file as tombstones so handle values
// remain stable across reopen.

const (
	dataMagic   uint64 = 0x1A4C44425830DB01
	dataVersion uint32 = 1

	headerSize = 8 + 4 + 4 + 8 + 4
)

func encodedSize(v *version) int {
	n := headerSize
	for _, st := range v.dbs {
		n += 4 + len(st.name) + 4 + 1 + 8
		for _, e := range st.entries {
			n += 8 + len(e.key) + len(e.val)
		}
	}
	return n
}

func encodeVersion(v *version) []byte {
	buf := make([]byte, 0, encodedSize(v))
	buf = binary.LittleEndian.AppendUint64(buf, dataMagic)
	buf = binary.LittleEndian.AppendUint32(buf, dataVersion)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, v.txnID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.dbs)))
	for _, st := range v.dbs {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(st.name)))
		buf = append(buf, st.name...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(st.flags))
		if st.deleted {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(st.entries)))
		for _, e := range st.entries {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.key)))
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.val)))
			buf = append(buf, e.key...)
			buf = append(buf, e.val...)
		}
	}
	return buf
}

// decodeVersion rebuilds a version from a data file image. Key and value
// slices alias data directly, so the caller must keep the backing memory
// mapped for the lifetime of the returned version.
func decodeVersion(data []byte) (*version, int) {
	r := reader{data: data}

	magic, ok := r.u64()
	if !ok || magic != dataMagic {
		return nil, Invalid
	}
	ver, ok := r.u32()
	if !ok {
		return nil, Corrupted
	}
	if ver != dataVersion {
		return nil, VersionMismatch
	}
	if _, ok = r.u32(); !ok { // reserved
		return nil, Corrupted
	}
	txnID, ok := r.u64()
	if !ok {
		return nil, Corrupted
	}
	dbCount, ok := r.u32()
	if !ok || dbCount == 0 || uint64(dbCount) > uint64(len(data)) {
		return nil, Corrupted
	}

	v := &version{txnID: txnID, dbs: make([]*dbState, 0, dbCount)}
	for i := uint32(0); i < dbCount; i++ {
		nameLen, ok := r.u32()
		if !ok {
			return nil, Corrupted
		}
		name, ok := r.bytes(int(nameLen))
		if !ok {
			return nil, Corrupted
		}
		flags, ok := r.u32()
		if !ok {
			return nil, Corrupted
		}
		deleted, ok := r.u8()
		if !ok || deleted > 1 {
			return nil, Corrupted
		}
		count, ok := r.u64()
		if !ok || count > uint64(len(data)) {
			return nil, Corrupted
		}
		st := &dbState{
			name:    string(name),
			flags:   uint(flags),
			deleted: deleted == 1,
		}
		if count > 0 {
			st.entries = make([]entry, 0, count)
		}
		for j := uint64(0); j < count; j++ {
			klen, ok := r.u32()
			if !ok {
				return nil, Corrupted
			}
			vlen, ok := r.u32()
			if !ok || klen == 0 || klen > maxKeySize || vlen > maxValSize {
				return nil, Corrupted
			}
			key, ok := r.bytes(int(klen))
			if !ok {
				return nil, Corrupted
			}
			val, ok := r.bytes(int(vlen))
			if !ok {
				return nil, Corrupted
			}
			st.entries = append(st.entries, entry{key: key, val: val})
			st.bytes += entrySize(key, val)
		}
		v.dbs = append(v.dbs, st)
		v.bytes += st.bytes
	}
	if v.dbs[MainDBI].deleted || v.dbs[MainDBI].name != "" {
		return nil, Corrupted
	}
	return v, Success
}

// reader is a bounds-checked sequential decoder.
type reader struct {
	data []byte
	off  int
}

func (r *reader) bytes(n int) ([]byte, bool) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, false
	}
	b := r.data[r.off : r.off+n : r.off+n]
	r.off += n
	return b, true
}

func (r *reader) u8() (uint8, bool) {
	b, ok := r.bytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *reader) u32() (uint32, bool) {
	b, ok := r.bytes(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (r *reader) u64() (uint64, bool) {
	b, ok := r.bytes(8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}
