package sortedidx

import (
	"sync"
	"sync/atomic"

	"github.com/shindo-go/eblobidx/internal/mmapfile"
)

// BaseIndex is the per-base aggregate of spec §2.5/§4.4: the memory-mapped
// sorted index file, its Bloom filter and its IndexBlockTable, protected by
// a single readers/writer lock over {index_blocks, bloom} plus a separate
// mutex over the `sort` mapping slot (spec §5 "Locks per base").
type BaseIndex struct {
	blocksMu sync.RWMutex
	table    *IndexBlockTable
	bloom    *Filter

	sortMu sync.Mutex
	sorted *mmapfile.Mapping // nil means "no-fd": not yet built, or invalidated

	generation atomic.Uint64
}

// Generation returns the current installation generation, bumped every
// time Install swaps in a freshly built table (SPEC_FULL.md "User
// header / generation-style cheap change detection").
func (bi *BaseIndex) Generation() uint64 {
	return bi.generation.Load()
}

// Closed reports whether a sorted mapping is currently installed. A base
// with no sorted mapping is either still open-for-writes or has just been
// invalidated; either way it is not this core's concern for the current
// lookup iteration (spec §4.5 LookupCoordinator step "not yet closed").
func (bi *BaseIndex) Closed() bool {
	bi.sortMu.Lock()
	defer bi.sortMu.Unlock()

	return bi.sorted != nil
}

// SortedBytes returns the raw bytes of the currently installed sorted
// index mapping, or nil if the base is not closed. The returned slice must
// only be read while the caller's hold on the owning Base is active.
func (bi *BaseIndex) SortedBytes() []byte {
	bi.sortMu.Lock()
	defer bi.sortMu.Unlock()

	if bi.sorted == nil {
		return nil
	}

	return bi.sorted.Data
}

// Probe implements spec §4.4's probe(key): a Bloom-gated block lookup
// under the read side of the blocks/bloom lock. The third return value
// reports whether the Bloom filter returned a negative (used by callers to
// bump the bloom_null counter).
func (bi *BaseIndex) Probe(key Key) (block IndexBlock, found bool, bloomNegative bool) {
	bi.blocksMu.RLock()
	defer bi.blocksMu.RUnlock()

	if bi.table == nil {
		return IndexBlock{}, false, false
	}

	if !bi.bloom.Probe(key) {
		return IndexBlock{}, false, true
	}

	idx, ok := bi.table.FindBlock(key)
	if !ok {
		return IndexBlock{}, false, false
	}

	return bi.table.Blocks[idx], true, false
}

// BloomSizeBytes returns the byte size of the currently installed Bloom
// filter's bit array, or 0 if none is installed.
func (bi *BaseIndex) BloomSizeBytes() int64 {
	bi.blocksMu.RLock()
	defer bi.blocksMu.RUnlock()

	return bi.bloom.Size()
}

// NumBlocks returns the number of entries in the currently installed block
// table, or 0 if none is installed.
func (bi *BaseIndex) NumBlocks() int {
	bi.blocksMu.RLock()
	defer bi.blocksMu.RUnlock()

	if bi.table == nil {
		return 0
	}

	return len(bi.table.Blocks)
}

// BlockBounds returns the entry-index range [startIdx,endIdx) of the given
// block, resolving byte offsets to entry indices. It reads only b and takes
// no lock.
func (bi *BaseIndex) BlockBounds(b IndexBlock) (startIdx, endIdx int) {
	return int(b.StartOffset / int64(Stride)), int(b.EndOffset / int64(Stride))
}

// Install swaps in a freshly built table and bloom filter, and the sorted
// mapping that backs them, under the respective write locks. It is used for
// bases built entirely in memory (eblobidx-tool bench, tests); the on-disk
// path instead runs SortedIndexBuilder.Generate (SwapSorted) and then
// Engine.IndexBlocksFill. The blocks/bloom lock is released before the
// sort-mapping mutex is taken, so the two slots are not updated as one
// atomic step.
func (bi *BaseIndex) Install(mapping *mmapfile.Mapping, table *IndexBlockTable, bloom *Filter) {
	bi.blocksMu.Lock()
	bi.table = table
	bi.bloom = bloom
	bi.blocksMu.Unlock()

	bi.sortMu.Lock()
	bi.sorted = mapping
	bi.sortMu.Unlock()

	bi.generation.Add(1)
}

// SwapSorted installs a freshly built sorted-index mapping under the
// `sort` mapping mutex only (spec §4.6 step 7), leaving any already
// installed block table/Bloom filter untouched. index_blocks_fill is
// responsible for the complementary §4.4 installation of the table and
// Bloom once it has scanned the new mapping.
func (bi *BaseIndex) SwapSorted(mapping *mmapfile.Mapping) {
	bi.sortMu.Lock()
	defer bi.sortMu.Unlock()

	bi.sorted = mapping
}

// Destroy implements spec §4.4's destroy(): write-lock, free the block
// table and bloom, zero their sizes, unlock. Idempotent under the lock
// (testable property 4).
func (bi *BaseIndex) Destroy() {
	bi.blocksMu.Lock()
	defer bi.blocksMu.Unlock()

	bi.table = nil
	bi.bloom = nil
}

// Invalidate installs the "no-fd" sentinel (spec §3 "Base lifecycle",
// §5 "Hold protocol"): it unmaps the sorted index and clears the sorted
// slot so that SortedBytes/Closed report the base as open/torn-down.
// Structural cleanup of the block table/bloom is deferred to Destroy,
// matching the spec's "defers structural cleanup" wording.
func (bi *BaseIndex) Invalidate() error {
	bi.sortMu.Lock()
	defer bi.sortMu.Unlock()

	if bi.sorted == nil {
		return nil
	}

	err := bi.sorted.Unmap()
	bi.sorted = nil

	return err
}
