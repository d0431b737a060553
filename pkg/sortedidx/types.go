package sortedidx

// Key is a fixed-width opaque record key. Ordering is byte-lexicographic;
// equality is bitwise.
type Key [KeySize]byte

// FlagRemoved is the one recognised bit in RecordControl.Flags: the
// tombstone marker.
const FlagRemoved uint32 = 1 << 0

// RecordControl is the host-endian, in-memory form of a fixed-size on-disk
// record-control entry. All multi-byte fields are little-endian on disk;
// decode converts once, on read, to this form.
type RecordControl struct {
	Key      Key
	Flags    uint32
	DataSize uint32
	DiskSize uint64
	Position uint64
}

// Removed reports whether the REMOVED bit is set.
func (rc RecordControl) Removed() bool {
	return rc.Flags&FlagRemoved != 0
}

// Locator is the result of a successful lookup: enough information to read
// the record's data without re-scanning the index.
type Locator struct {
	BaseRef     *Base
	DataOffset  uint64
	IndexOffset int64
	Size        uint32
}

// AcceptFunc decides from a candidate entry's raw on-disk flags word (the
// entry is not decoded) whether it satisfies the caller's acceptance
// policy. Per
// SPEC_FULL.md's "dynamic callback for accept()" design note, the
// production policy (AcceptNonRemoved) is supplied as a plain function
// value rather than a tagged variant, since Go closures already cover the
// "more than one policy" extensibility the note asks for.
type AcceptFunc func(flagsRaw [4]byte) bool

// AcceptAny accepts every entry, including tombstones.
func AcceptAny(flagsRaw [4]byte) bool { return true }

// AcceptNonRemoved accepts an entry iff its on-disk (little-endian) flags
// word does not have the REMOVED bit set. Per spec §4.1's endianness
// discipline, the bit is tested against the raw disk bytes directly; no
// conversion to host order happens until a hit is about to be returned.
func AcceptNonRemoved(flagsRaw [4]byte) bool {
	return flagsRaw[0]&byte(FlagRemoved) == 0
}

// LookupStats is the per-call search telemetry returned alongside a lookup
// result (spec §6 "Search telemetry"). All fields are monotonic counters
// over one Find call.
type LookupStats struct {
	Loops           int
	NoSort          int
	SearchOnDisk    int
	BloomNull       int
	FoundIndexBlock int
	NoBlock         int
	BsearchReached  int
	BsearchFound    int
	AdditionalReads int
}
