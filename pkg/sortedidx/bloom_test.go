package sortedidx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizeForRoundsUpToWholeBlocks(t *testing.T) {
	// 129 records at blockSize=128 needs 2 blocks' worth of bits.
	require.Equal(t, int64(2*80/8), SizeFor(129, 128, 80))

	// Zero records still gets one block's worth, never zero.
	require.Equal(t, int64(80/8), SizeFor(0, 128, 80))
}

func TestNumHashesClampedToRange(t *testing.T) {
	require.Equal(t, bloomHashMin, NumHashes(1, 1000)) // ~0 bits/key
	require.Equal(t, bloomHashMax, NumHashes(100000, 1))
	require.Equal(t, 1, NumHashes(1, 1)) // round(0.69*1) == 1
}

func TestFilterNeverFalseNegative(t *testing.T) {
	const bitsPerBlock = 160
	const blockSize = 32

	nbits := uint64(SizeFor(blockSize, blockSize, bitsPerBlock)) * 8
	k := NumHashes(bitsPerBlock, blockSize)

	builder := NewBuilder(nbits, k)

	keys := make([]Key, blockSize)
	for i := range keys {
		keys[i] = makeKey(fmt.Sprintf("key-%03d", i))
		builder.Insert(keys[i])
	}

	filter := NewFilter(builder.Bytes(), k)

	for _, key := range keys {
		require.True(t, filter.Probe(key), "inserted key must never be a false negative")
	}
}

func TestNilFilterProbesTrue(t *testing.T) {
	var f *Filter
	require.True(t, f.Probe(makeKey("anything")))
	require.Equal(t, int64(0), f.Size())
}

func TestEmptyBuilderBytesLength(t *testing.T) {
	b := NewBuilder(64, 3)
	require.Len(t, b.Bytes(), 8)
}
