package sortedidx

import (
	"errors"
	"fmt"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/internal/telemetry"
)

// Engine groups the collaborators a caller wires together (spec §6) and
// exposes disk_index_lookup (Lookup), index_blocks_fill and
// index_blocks_destroy. generate_sorted_index is SortedIndexBuilder.Generate,
// not an Engine method, and no get_actual_size operation is provided.
type Engine struct {
	Registry *Registry
	Config   eblobcfg.Config
	Stats    telemetry.Stats
	Logger   telemetry.Logger
}

// NewEngine constructs an Engine. A nil Stats/Logger falls back to no-ops.
func NewEngine(reg *Registry, cfg eblobcfg.Config, stats telemetry.Stats, logger telemetry.Logger) *Engine {
	if stats == nil {
		stats = telemetry.NopStats{}
	}

	if logger == nil {
		logger = telemetry.NopLogger{}
	}

	return &Engine{Registry: reg, Config: cfg, Stats: stats, Logger: logger}
}

// Lookup runs disk_index_lookup(key) via a LookupCoordinator built over e's
// registry and telemetry collaborators.
func (e *Engine) Lookup(key Key) (Locator, LookupStats, error) {
	lc := NewLookupCoordinator(e.Registry, e.Stats, e.Logger)

	return lc.Find(key)
}

// IndexBlocksFill implements index_blocks_fill(base): build the
// IndexBlockTable and Bloom filter over base's currently-mapped sorted
// index and install them. Returns ErrCorruptFatal, ErrNoMemory or
// ErrIOError per the taxonomy in spec §7; on ErrCorruptFatal, base.Index
// is left unindexed (Destroy is run) and an ERROR line names the base
// (spec §7 "User-visible behaviour").
func (e *Engine) IndexBlocksFill(base *Base) error {
	raw := base.Index.SortedBytes()
	if raw == nil {
		return fmt.Errorf("sortedidx: base %s has no sorted mapping: %w", base.Name, ErrIOError)
	}

	table, builder, stats, err := BuildBlockTable(raw, base.DataFileSize, e.Config.BlockSize, e.Config.BitsPerBlock, e.Config.CorruptMax)
	if err != nil {
		base.Index.Destroy()

		if errors.Is(err, ErrCorruptFatal) {
			e.Logger.Errorf("base %s: index corrupt beyond threshold, run the offline merger: %v", base.Name, err)
		}

		return err
	}

	bloomBytes := builder.Bytes()
	filter := NewFilter(bloomBytes, NumHashes(e.Config.BitsPerBlock, e.Config.BlockSize))

	base.Index.blocksMu.Lock()
	base.Index.table = table
	base.Index.bloom = filter
	base.Index.blocksMu.Unlock()
	base.Index.generation.Add(1)

	e.Stats.SetBloomSize(base.Name, int64(len(bloomBytes)))
	e.Stats.SetIndexBlocksSize(base.Name, int64(len(table.Blocks))*int64(indexBlockDescriptorSize))
	e.Stats.AddCorruptedEntries(base.Name, stats.CorruptedEntries)
	e.Stats.AddRecordsRemoved(base.Name, stats.RecordsRemoved)
	e.Stats.AddRemovedSize(base.Name, stats.RemovedSize)

	return nil
}

// indexBlockDescriptorSize is the in-memory footprint charged to
// INDEX_BLOCKS_SIZE per block: two int64 offsets plus two Key-sized bounds.
const indexBlockDescriptorSize = 8 + 8 + KeySize + KeySize

// IndexBlocksDestroy implements index_blocks_destroy(base) -> OK
// (idempotent): frees the block table and Bloom filter. Calling it twice
// in a row is safe and produces no double-free (testable property 4).
func (e *Engine) IndexBlocksDestroy(base *Base) {
	base.Index.Destroy()
}
