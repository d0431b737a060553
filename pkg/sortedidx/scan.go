package sortedidx

// ScanResult is the outcome of an intra-block scan.
type ScanResult struct {
	Found bool

	// BsearchFound reports whether the binary search located an entry
	// with the matching key at all, independent of whether accept later
	// rejected it. A tombstoned-only key still sets this true (spec §8
	// S3: bsearch_found=1 for a result that is ultimately NOT-FOUND).
	BsearchFound bool

	Index           int // absolute entry index within raw, valid iff Found
	AdditionalReads int // entries examined while widening; the binary-search hit counts only if accept rejects it
}

// ScanBlock implements spec §4.5 "Intra-block scan": binary search the
// [startIdx,endIdx) entry run for a key match using a tombstone-ignoring
// comparator, then widen forward and backward over the equal-key run
// applying accept, stopping at the first accepted entry.
func ScanBlock(raw []byte, startIdx, endIdx int, key Key, accept AcceptFunc) ScanResult {
	hit, ok := binarySearchKey(raw, startIdx, endIdx, key)
	if !ok {
		return ScanResult{}
	}

	reads := 0

	// Forward, including the hit itself. The hit's own accept check only
	// counts as a read when it is rejected: a hit that accept() takes
	// immediately required no widening beyond the binary search.
	for i := hit; i < endIdx; i++ {
		if CompareRawKeys(RawKeyAt(raw, i), key[:]) != 0 {
			break
		}

		accepted := accept(RawFlagsAt(raw, i))
		if i != hit || !accepted {
			reads++
		}

		if accepted {
			return ScanResult{Found: true, BsearchFound: true, Index: i, AdditionalReads: reads}
		}
	}

	// Backward from just before the hit.
	for i := hit - 1; i >= startIdx; i-- {
		if CompareRawKeys(RawKeyAt(raw, i), key[:]) != 0 {
			break
		}

		reads++

		if accept(RawFlagsAt(raw, i)) {
			return ScanResult{Found: true, BsearchFound: true, Index: i, AdditionalReads: reads}
		}
	}

	return ScanResult{BsearchFound: true, AdditionalReads: reads}
}

// binarySearchKey finds any one entry with key == target in [startIdx,endIdx),
// ignoring the REMOVED bit (spec §4.5 step 2: "tombstone-ignoring comparator").
func binarySearchKey(raw []byte, startIdx, endIdx int, target Key) (int, bool) {
	lo, hi := startIdx, endIdx-1

	for lo <= hi {
		mid := lo + (hi-lo)/2

		c := CompareRawKeys(RawKeyAt(raw, mid), target[:])
		switch {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid - 1
		default:
			return mid, true
		}
	}

	return 0, false
}
