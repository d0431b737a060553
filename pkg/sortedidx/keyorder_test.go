package sortedidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeKey(s string) Key {
	var k Key
	copy(k[:], s)

	return k
}

func TestCompareKeysLexicographic(t *testing.T) {
	require.Less(t, CompareKeys(makeKey("A"), makeKey("B")), 0)
	require.Greater(t, CompareKeys(makeKey("B"), makeKey("A")), 0)
	require.Equal(t, 0, CompareKeys(makeKey("A"), makeKey("A")))
}

func TestCompareWithTombstoneRemovedSortsFirst(t *testing.T) {
	removed := RecordControl{Key: makeKey("K"), Flags: FlagRemoved}
	present := RecordControl{Key: makeKey("K")}

	require.Less(t, CompareWithTombstone(removed, present), 0)
	require.Greater(t, CompareWithTombstone(present, removed), 0)
	require.Equal(t, 0, CompareWithTombstone(present, present))
}

func TestCompareWithTombstoneOrdersByKeyFirst(t *testing.T) {
	a := RecordControl{Key: makeKey("A")}
	b := RecordControl{Key: makeKey("B"), Flags: FlagRemoved}

	require.Less(t, CompareWithTombstone(a, b), 0)
}
