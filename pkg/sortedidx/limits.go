package sortedidx

// Structural limits, mirroring the conservative bounds slotcache places on
// its own file format (see slotcache/limits.go) so a corrupt or hostile
// file can never make this package allocate an unbounded amount of memory.
const (
	// KeySize is the fixed width, in bytes, of an opaque record key.
	KeySize = 64

	// maxBlockSize bounds the configured B (entries per index block).
	maxBlockSize = 1 << 20

	// maxBitsPerBlock bounds the configured Bloom sizing parameter.
	maxBitsPerBlock = 1 << 16

	// maxCorruptThreshold bounds EBLOB_BLOB_INDEX_CORRUPT_MAX.
	maxCorruptThreshold = 1 << 20

	// maxEntries bounds the number of RecordControl entries a single
	// sorted-index file may contain, guarding against a corrupt file size
	// field producing an absurd block count.
	maxEntries = 1 << 32

	// maxLookupRetries is the bounded retry count (spec §5 "Cancellation")
	// before a lookup that keeps observing invalidated bases gives up with
	// ErrDeadlock.
	maxLookupRetries = 10

	// bloomHashMin and bloomHashMax clamp num_hashes per spec §4.2.
	bloomHashMin = 1
	bloomHashMax = 20

	// sampleBlockCount mirrors slotcache's bucketSampleCount. No code
	// reads it: index_blocks_fill runs no open-time sample check, only the
	// full per-entry scan of BuildBlockTable.
	sampleBlockCount = 8
)
