package sortedidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseReclaimRequiresInvalidationAndZeroHolds(t *testing.T) {
	base := NewBase("b", -1)

	require.False(t, base.Reclaim(), "not invalidated yet")

	base.Acquire()
	base.MarkInvalidated()
	require.False(t, base.Reclaim(), "hold still outstanding")

	base.Release()
	require.True(t, base.Reclaim())
}

func TestRegistryAppendRemoveAndOrdering(t *testing.T) {
	reg := NewRegistry()

	a := NewBase("a", -1)
	b := NewBase("b", -1)
	c := NewBase("c", -1)

	reg.Append(a)
	reg.Append(b)
	reg.Append(c)

	require.Equal(t, []*Base{c, b, a}, reg.NewestFirst())

	reg.Remove(b)
	require.Equal(t, []*Base{c, a}, reg.NewestFirst())
}

func TestRegistryNewestFirstIsASnapshot(t *testing.T) {
	reg := NewRegistry()
	a := NewBase("a", -1)
	reg.Append(a)

	snapshot := reg.NewestFirst()
	reg.Append(NewBase("b", -1))

	require.Len(t, snapshot, 1, "mutating the registry after the snapshot must not affect it")
}
