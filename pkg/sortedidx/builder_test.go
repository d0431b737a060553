package sortedidx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeUnsortedIndex(t *testing.T, dir string, entries []RecordControl) string {
	t.Helper()

	path := filepath.Join(dir, "data-0.0.index")
	raw := buildRaw(entries)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	return path
}

func TestSortedIndexBuilderGenerateSortsAndInstalls(t *testing.T) {
	dir := t.TempDir()

	// Intentionally out of order on disk; Generate must sort it.
	unsortedPath := writeUnsortedIndex(t, dir, []RecordControl{
		{Key: makeKey("C"), DiskSize: uint64(Stride), Position: 2},
		{Key: makeKey("A"), DiskSize: uint64(Stride), Position: 0},
		{Key: makeKey("B"), DiskSize: uint64(Stride), Position: 1},
	})

	tmpPath, sortedPath := Paths(filepath.Join(dir, "data"), 0)

	base := NewBase("data-0.0", 3*int64(Stride))

	builder := &SortedIndexBuilder{}
	require.NoError(t, builder.Generate(base, unsortedPath, tmpPath, sortedPath))

	_, statErr := os.Stat(tmpPath)
	require.True(t, os.IsNotExist(statErr), "tmp file must not survive a successful Generate")

	_, statErr = os.Stat(sortedPath)
	require.NoError(t, statErr)

	require.True(t, base.Index.Closed())

	raw := base.Index.SortedBytes()
	require.Equal(t, 3, NumEntries(len(raw)))
	require.Equal(t, makeKey("A"), Decode(raw, 0).Key)
	require.Equal(t, makeKey("B"), Decode(raw, 1).Key)
	require.Equal(t, makeKey("C"), Decode(raw, 2).Key)
}

func TestSortedIndexBuilderGenerateTombstoneOrdering(t *testing.T) {
	dir := t.TempDir()

	unsortedPath := writeUnsortedIndex(t, dir, []RecordControl{
		{Key: makeKey("K"), DiskSize: uint64(Stride)}, // non-removed
		{Key: makeKey("K"), DiskSize: uint64(Stride), Flags: FlagRemoved},
	})

	tmpPath, sortedPath := Paths(filepath.Join(dir, "data"), 1)

	base := NewBase("data-0.1", 2*int64(Stride))

	builder := &SortedIndexBuilder{}
	require.NoError(t, builder.Generate(base, unsortedPath, tmpPath, sortedPath))

	raw := base.Index.SortedBytes()
	require.True(t, Decode(raw, 0).Removed(), "removed entry sorts before the live one on a key tie")
	require.False(t, Decode(raw, 1).Removed())
}

func TestSortedIndexBuilderGenerateMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	tmpPath, sortedPath := Paths(filepath.Join(dir, "data"), 0)

	base := NewBase("data-0.0", 0)

	builder := &SortedIndexBuilder{}
	err := builder.Generate(base, filepath.Join(dir, "does-not-exist.index"), tmpPath, sortedPath)
	require.ErrorIs(t, err, ErrIOError)

	_, statErr := os.Stat(tmpPath)
	require.True(t, os.IsNotExist(statErr), "no tmp file should be left behind on early failure")
}

func TestBuildReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	report := BuildReport{Base: "data-0.0", Entries: 3, Blocks: 2, BloomBytes: 16}
	require.NoError(t, WriteReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"base": "data-0.0"`)
}
