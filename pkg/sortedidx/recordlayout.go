package sortedidx

import "encoding/binary"

// On-disk byte layout of a RecordControl entry. All fields little-endian.
//
//	offset  size  field
//	0       64    key
//	64      4     flags
//	68      4     data_size
//	72      8     disk_size
//	80      8     position
const (
	offKey      = 0
	offFlags    = offKey + KeySize
	offDataSize = offFlags + 4
	offDiskSize = offDataSize + 4
	offPosition = offDiskSize + 8

	// Stride is sizeof(RecordControl) on disk, in bytes.
	Stride = offPosition + 8
)

// removedFlagLE is the little-endian on-disk image of FlagRemoved, used to
// test the tombstone bit against raw bytes without decoding (spec §4.1,
// §4.5.5: "no conversion").
var removedFlagLE = func() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], FlagRemoved)

	return b
}()

// RawKeyAt returns the key bytes of the idx-th entry in raw without copying.
func RawKeyAt(raw []byte, idx int) []byte {
	o := idx * Stride

	return raw[o+offKey : o+offKey+KeySize]
}

// RawFlagsAt returns the 4 little-endian flag bytes of the idx-th entry in
// raw without copying or decoding.
func RawFlagsAt(raw []byte, idx int) [4]byte {
	o := idx * Stride

	var f [4]byte
	copy(f[:], raw[o+offFlags:o+offFlags+4])

	return f
}

// RawIsRemoved reports whether a raw, undecoded flags word has the REMOVED
// bit set, matching it against removedFlagLE byte-for-byte (spec §4.1).
func RawIsRemoved(flagsRaw [4]byte) bool {
	return flagsRaw[0]&removedFlagLE[0] != 0
}

// Decode converts the idx-th entry in raw from its on-disk little-endian
// layout to a host-endian RecordControl.
func Decode(raw []byte, idx int) RecordControl {
	o := idx * Stride

	var rc RecordControl

	copy(rc.Key[:], raw[o+offKey:o+offKey+KeySize])
	rc.Flags = binary.LittleEndian.Uint32(raw[o+offFlags:])
	rc.DataSize = binary.LittleEndian.Uint32(raw[o+offDataSize:])
	rc.DiskSize = binary.LittleEndian.Uint64(raw[o+offDiskSize:])
	rc.Position = binary.LittleEndian.Uint64(raw[o+offPosition:])

	return rc
}

// Encode writes rc into the idx-th slot of raw in on-disk little-endian
// layout. raw must have room for at least (idx+1)*Stride bytes.
func Encode(raw []byte, idx int, rc RecordControl) {
	o := idx * Stride

	copy(raw[o+offKey:o+offKey+KeySize], rc.Key[:])
	binary.LittleEndian.PutUint32(raw[o+offFlags:], rc.Flags)
	binary.LittleEndian.PutUint32(raw[o+offDataSize:], rc.DataSize)
	binary.LittleEndian.PutUint64(raw[o+offDiskSize:], rc.DiskSize)
	binary.LittleEndian.PutUint64(raw[o+offPosition:], rc.Position)
}

// NumEntries returns how many Stride-sized entries fit in a buffer of the
// given byte length. A length that is not a whole multiple of Stride is
// itself a structural corruption signal the caller should check for
// separately (see BuildBlockTable's length validation).
func NumEntries(byteLen int) int {
	return byteLen / Stride
}

// Validate applies the structural checks of spec §3 "RecordControl" to a
// decoded entry. dataFileSize is the size of the sibling data file the
// record's Position must fall within.
func Validate(rc RecordControl, dataFileSize int64) bool {
	if rc.DiskSize < uint64(rc.DataSize) {
		return false
	}

	if rc.DiskSize%uint64(Stride) != 0 {
		return false
	}

	if dataFileSize >= 0 && rc.Position > uint64(dataFileSize) {
		return false
	}

	if rc.Flags&^FlagRemoved != 0 {
		return false
	}

	return true
}
