package sortedidx

import "bytes"

// CompareKeys is the total order on opaque keys: byte-lexicographic.
func CompareKeys(a, b Key) int {
	return bytes.Compare(a[:], b[:])
}

// CompareRawKeys compares two raw key byte slices the same way, for code
// paths that work directly on mmap'd bytes without decoding a Key.
func CompareRawKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}

// CompareWithTombstone is the offline sorter's comparator: primary order by
// key, and on a key tie, a REMOVED entry sorts before a non-REMOVED one.
// Used only by SortedIndexBuilder; the lookup path tolerates either order
// within an equal-key run (spec §4.1).
func CompareWithTombstone(a, b RecordControl) int {
	if c := CompareKeys(a.Key, b.Key); c != 0 {
		return c
	}

	aRemoved, bRemoved := a.Removed(), b.Removed()
	if aRemoved == bRemoved {
		return 0
	}

	if aRemoved {
		return -1
	}

	return 1
}
