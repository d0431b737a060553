package sortedidx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/internal/telemetry"
)

func TestEngineIndexBlocksFillAndDestroy(t *testing.T) {
	dir := t.TempDir()
	unsortedPath := writeUnsortedIndex(t, dir, []RecordControl{
		{Key: makeKey("A"), DiskSize: uint64(Stride)},
		{Key: makeKey("B"), DiskSize: uint64(Stride), Position: 1},
	})

	tmpPath, sortedPath := Paths(filepath.Join(dir, "data"), 0)
	base := NewBase("data-0.0", 2*int64(Stride))

	require.NoError(t, (&SortedIndexBuilder{}).Generate(base, unsortedPath, tmpPath, sortedPath))

	cfg := eblobcfg.Config{BlockSize: 2, BitsPerBlock: 80, CorruptMax: 0}
	engine := NewEngine(NewRegistry(), cfg, nil, nil)

	require.NoError(t, engine.IndexBlocksFill(base))
	require.Equal(t, 1, base.Index.NumBlocks())

	loc, _, err := (&LookupCoordinator{Registry: func() *Registry {
		reg := NewRegistry()
		reg.Append(base)

		return reg
	}(), Stats: telemetry.NopStats{}, Logger: telemetry.NopLogger{}}).Find(makeKey("B"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), loc.DataOffset)

	engine.IndexBlocksDestroy(base)
	require.Zero(t, base.Index.NumBlocks())
	require.True(t, base.Index.Closed(), "destroy frees the table/bloom but the sorted mapping stays installed")

	// Idempotent: destroying twice must not panic.
	engine.IndexBlocksDestroy(base)
}

func TestEngineIndexBlocksFillFatalOnCorruption(t *testing.T) {
	dir := t.TempDir()

	entries := []RecordControl{
		{Key: makeKey("A"), DiskSize: uint64(Stride)},
		{DataSize: 100, DiskSize: 1}, // corrupt, and a boundary entry
	}
	unsortedPath := writeUnsortedIndex(t, dir, entries)

	tmpPath, sortedPath := Paths(filepath.Join(dir, "data"), 0)
	base := NewBase("data-0.0", 2*int64(Stride))

	builder := &SortedIndexBuilder{}
	// The corrupt entry sorts however CompareWithTombstone places it; either
	// way the block still has two entries and entry 1 is still a boundary.
	require.NoError(t, builder.Generate(base, unsortedPath, tmpPath, sortedPath))

	cfg := eblobcfg.Config{BlockSize: 2, BitsPerBlock: 80, CorruptMax: 0}
	engine := NewEngine(NewRegistry(), cfg, nil, nil)

	err := engine.IndexBlocksFill(base)
	require.ErrorIs(t, err, ErrCorruptFatal)
	require.Zero(t, base.Index.NumBlocks(), "a failed fill leaves no table installed")
}

func TestEngineLookupWithNilCollaborators(t *testing.T) {
	reg := NewRegistry()
	engine := NewEngine(reg, eblobcfg.Default(), nil, nil)

	_, _, err := engine.Lookup(makeKey("anything"))
	require.ErrorIs(t, err, ErrNotFound)
}
