package sortedidx

import (
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// SizeFor implements spec §4.2's size_for(n_records, B, bits_per_block):
// ceil(n_records/B) blocks' worth of bits_per_block bits each, rounded up
// to whole bytes, with a floor of one block's worth so an empty or
// near-empty base still gets a usable filter.
func SizeFor(nRecords, blockSize, bitsPerBlock int) int64 {
	blocks := (nRecords + blockSize - 1) / blockSize
	if blocks < 1 {
		blocks = 1
	}

	totalBits := int64(blocks) * int64(bitsPerBlock)

	return (totalBits + 7) / 8
}

// NumHashes implements spec §4.2's num_hashes(bits_per_key): k =
// round(0.69 * bits_per_key), clamped to [1,20]. bits_per_key is the
// realised ratio bits_per_block/blockSize, since the filter is sized in
// whole blocks.
func NumHashes(bitsPerBlock, blockSize int) int {
	bitsPerKey := float64(bitsPerBlock) / float64(blockSize)

	k := int(math.Round(0.69 * bitsPerKey))
	if k < bloomHashMin {
		k = bloomHashMin
	}

	if k > bloomHashMax {
		k = bloomHashMax
	}

	return k
}

// hashPair derives two independent-enough 64-bit hashes from a single
// xxhash digest via the Kirsch-Mitzenmacher double-hashing technique
// (g_i(x) = h1(x) + i*h2(x)), avoiding the need for k distinct hash
// functions while keeping insert/probe deterministic for a given key and
// array size, per spec §4.2.
func hashPair(key Key) (h1, h2 uint64) {
	digest := xxhash.Sum64(key[:])
	h1 = digest
	h2 = bits.RotateLeft64(digest, 32) | 1

	return h1, h2
}

func bloomBitIndex(h1, h2 uint64, i, nbits uint64) uint64 {
	return (h1 + i*h2) % nbits
}

// Filter is the read side of a per-base Bloom filter: a probe against an
// already-built bit array, typically backed directly by mmap'd bytes.
type Filter struct {
	bits  []byte
	k     int
	nbits uint64
}

// NewFilter wraps an existing bit array (size in bytes = len(bits)) for
// probing with k hash functions.
func NewFilter(bits []byte, k int) *Filter {
	return &Filter{bits: bits, k: k, nbits: uint64(len(bits)) * 8}
}

// Probe is a cheap negative membership test: false means key is
// definitely absent from the base; true means it may be present (spec
// §4.2: "false negatives must be impossible, false positives acceptable").
func (f *Filter) Probe(key Key) bool {
	if f == nil || f.nbits == 0 {
		return true
	}

	h1, h2 := hashPair(key)

	for i := uint64(0); i < uint64(f.k); i++ {
		idx := bloomBitIndex(h1, h2, i, f.nbits)
		if !testBit(f.bits, idx) {
			return false
		}
	}

	return true
}

// Size returns the size in bytes of the underlying bit array.
func (f *Filter) Size() int64 {
	if f == nil {
		return 0
	}

	return int64(len(f.bits))
}

func testBit(bits []byte, idx uint64) bool {
	return bits[idx/8]&(1<<(idx%8)) != 0
}

func setBit(bits []byte, idx uint64) {
	bits[idx/8] |= 1 << (idx % 8)
}

// Builder accumulates a Bloom filter's bits in memory during a block-table
// build, then serialises to the flat byte layout Filter.Probe expects.
//
// The accumulation itself goes through bits-and-blooms/bitset rather than
// hand-rolled bit twiddling; its word array is serialised word-by-word in
// little-endian order, which is bit-index-compatible with the flat
// byte-addressed layout testBit/setBit use directly for the mmap'd probe
// side (see DESIGN.md for why the probe side cannot use *bitset.BitSet
// itself: it is not mmap-backed).
type Builder struct {
	bs    *bitset.BitSet
	k     int
	nbits uint64
}

// NewBuilder allocates a builder for an nbits-bit array probed with k hash
// functions.
func NewBuilder(nbits uint64, k int) *Builder {
	return &Builder{bs: bitset.New(uint(nbits)), k: k, nbits: nbits}
}

// Insert sets key's k bit positions.
func (b *Builder) Insert(key Key) {
	if b.nbits == 0 {
		return
	}

	h1, h2 := hashPair(key)

	for i := uint64(0); i < uint64(b.k); i++ {
		b.bs.Set(uint(bloomBitIndex(h1, h2, i, b.nbits)))
	}
}

// Bytes serialises the accumulated bits to the flat little-endian byte
// layout Filter expects, sized to exactly ceil(nbits/8) bytes.
func (b *Builder) Bytes() []byte {
	nbytes := (b.nbits + 7) / 8
	out := make([]byte, nbytes)

	words := b.bs.Bytes()
	for wi, word := range words {
		base := wi * 8
		if base >= len(out) {
			break
		}

		for shift := 0; shift < 8 && base+shift < len(out); shift++ {
			out[base+shift] = byte(word >> (8 * shift))
		}
	}

	return out
}
