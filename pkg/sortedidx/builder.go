package sortedidx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	natomic "github.com/natefinch/atomic"

	"github.com/shindo-go/eblobidx/internal/mmapfile"
)

// Paths returns the conventional sibling paths for base N of dataPrefix
// (spec §6 "File formats and layout"): <data>-0.<N>.index.tmp and
// <data>-0.<N>.index.sorted.
func Paths(dataPrefix string, n int) (tmpPath, sortedPath string) {
	return fmt.Sprintf("%s-0.%d.index.tmp", dataPrefix, n), fmt.Sprintf("%s-0.%d.index.sorted", dataPrefix, n)
}

// SortedIndexBuilder implements generate_sorted_index (spec §4.6): map the
// unsorted index, copy, sort in place with a tombstone-aware comparator,
// sync, swap the base's sorted mapping under its lock, rename.
type SortedIndexBuilder struct {
	SingleProcess bool
}

// Generate runs the builder over the unsorted index file at unsortedPath,
// producing sortedPath via tmpPath and installing the result into
// base.Index. On any failure after the tmp file is created, the source
// mapping is unmapped first, then the destination mapping, then the tmp
// file is closed and removed, and last the source file is closed; this is
// not the strict reverse of the order in which they were acquired. The
// destination is not installed.
func (b *SortedIndexBuilder) Generate(base *Base, unsortedPath, tmpPath, sortedPath string) error {
	src, srcMapping, err := openAndMapReadOnly(unsortedPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = srcMapping.Unmap()

		return fmt.Errorf("sortedidx: create %s: %w", tmpPath, joinIOErr(err))
	}

	unwindTmp := true

	defer func() {
		if unwindTmp {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Truncate(int64(len(srcMapping.Data))); err != nil {
		_ = srcMapping.Unmap()

		return fmt.Errorf("sortedidx: truncate %s: %w", tmpPath, joinIOErr(err))
	}

	dstMapping, err := mmapfile.MapReadWrite(tmp)
	if err != nil {
		_ = srcMapping.Unmap()

		return fmt.Errorf("sortedidx: map %s: %w", tmpPath, joinIOErr(err))
	}

	unwindDst := true

	defer func() {
		if unwindDst {
			_ = dstMapping.Unmap()
		}
	}()

	copy(dstMapping.Data, srcMapping.Data)

	sortEntriesInPlace(dstMapping.Data)

	if err := dstMapping.Msync(); err != nil {
		_ = srcMapping.Unmap()

		return fmt.Errorf("sortedidx: msync %s: %w", tmpPath, joinIOErr(err))
	}

	// Swap the sort mapping in under the base lock before the rename (spec
	// §4.6 step 7 precedes step 8): the in-process swap is the
	// linearisation point for concurrent lookups, the rename is the
	// linearisation point for external observers (e.g. cmd/eblobidx-tool
	// inspect, which opens *.index.sorted directly). A lookup in this
	// process may thus observe the new mapping an instant before the file
	// is visible under its final name, which is the intended order.
	base.Index.SwapSorted(dstMapping)

	// POSIX rename is already atomic with respect to concurrent opens.
	// Generate takes no interprocess advisory lock and does not read
	// b.SingleProcess; serialising builders of the same base across
	// processes is left to the caller.
	if err := os.Rename(tmpPath, sortedPath); err != nil {
		// Reverse the swap: Generate only ever installs a base's first
		// sorted mapping, so the prior slot was always nil.
		base.Index.SwapSorted(nil)
		_ = srcMapping.Unmap()

		return fmt.Errorf("sortedidx: rename %s -> %s: %w", tmpPath, sortedPath, joinIOErr(err))
	}

	unwindTmp = false
	unwindDst = false

	if err := srcMapping.Unmap(); err != nil {
		return fmt.Errorf("sortedidx: unmap source %s: %w", unsortedPath, joinIOErr(err))
	}

	return nil
}

func openAndMapReadOnly(path string) (*os.File, *mmapfile.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sortedidx: open %s: %w", path, joinIOErr(err))
	}

	mapping, err := mmapfile.MapReadOnly(f)
	if err != nil {
		_ = f.Close()

		if errors.Is(err, mmapfile.ErrZeroLength) {
			return nil, nil, fmt.Errorf("sortedidx: %s is empty: %w", path, ErrIOError)
		}

		return nil, nil, fmt.Errorf("sortedidx: map %s: %w", path, joinIOErr(err))
	}

	return f, mapping, nil
}

func joinIOErr(err error) error {
	return fmt.Errorf("%w: %w", ErrIOError, err)
}

// sortEntriesInPlace sorts a buffer of Stride-sized RecordControl entries
// ascending by CompareWithTombstone (spec §4.6 step 5), swapping whole
// entries through a scratch buffer.
func sortEntriesInPlace(data []byte) {
	sort.Sort(&entrySorter{data: data, scratch: make([]byte, Stride)})
}

type entrySorter struct {
	data    []byte
	scratch []byte
}

func (s *entrySorter) Len() int { return NumEntries(len(s.data)) }

func (s *entrySorter) Less(i, j int) bool {
	return CompareWithTombstone(Decode(s.data, i), Decode(s.data, j)) < 0
}

func (s *entrySorter) Swap(i, j int) {
	if i == j {
		return
	}

	a := s.data[i*Stride : (i+1)*Stride]
	b := s.data[j*Stride : (j+1)*Stride]

	copy(s.scratch, a)
	copy(a, b)
	copy(b, s.scratch)
}

// BuildReport summarises a completed Generate+IndexBlocksFill pair for
// offline tooling (cmd/eblobidx-tool). It is written with
// github.com/natefinch/atomic rather than the builder's own mmap-based
// rename, since it is a small, non-mmap'd side artifact where a
// copy-then-rename writer is the simpler and sufficient tool (see
// DESIGN.md).
type BuildReport struct {
	Base             string `json:"base"`
	Entries          int    `json:"entries"`
	Blocks           int    `json:"blocks"`
	CorruptedEntries int64  `json:"corrupted_entries"`
	RecordsRemoved   int64  `json:"records_removed"`
	RemovedSize      int64  `json:"removed_size"`
	BloomBytes       int64  `json:"bloom_bytes"`
}

// WriteReport serialises r as JSON and writes it atomically to path.
func WriteReport(path string, r BuildReport) error {
	data, err := reportJSON(r)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("sortedidx: mkdir %s: %w", dir, err)
		}
	}

	return natomic.WriteFile(path, bytes.NewReader(data))
}

func reportJSON(r BuildReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sortedidx: marshal build report: %w", err)
	}

	return data, nil
}
