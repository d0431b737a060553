package sortedidx

import "github.com/shindo-go/eblobidx/internal/telemetry"

// LookupCoordinator implements spec §4.5's find_by_key: iterate bases
// newest-first, hold each against invalidation, run the two-level search,
// assemble a Locator.
type LookupCoordinator struct {
	Registry *Registry
	Stats    telemetry.Stats
	Logger   telemetry.Logger
}

// NewLookupCoordinator constructs a coordinator over reg. A nil Stats or
// Logger falls back to no-op implementations.
func NewLookupCoordinator(reg *Registry, stats telemetry.Stats, logger telemetry.Logger) *LookupCoordinator {
	if stats == nil {
		stats = telemetry.NopStats{}
	}

	if logger == nil {
		logger = telemetry.NopLogger{}
	}

	return &LookupCoordinator{Registry: reg, Stats: stats, Logger: logger}
}

// Find runs disk_index_lookup(key) with the engine's one production
// acceptance policy, AcceptNonRemoved (spec §4.5 step 5).
func (lc *LookupCoordinator) Find(key Key) (Locator, LookupStats, error) {
	return lc.FindAccept(key, AcceptNonRemoved)
}

// FindAccept is Find generalised over the acceptance policy, per the
// design note under SPEC_FULL.md/§9 "Dynamic callback for accept()".
func (lc *LookupCoordinator) FindAccept(key Key, accept AcceptFunc) (Locator, LookupStats, error) {
	var stats LookupStats

	tries := 0

outer:
	for {
		if tries > maxLookupRetries {
			// Per spec §7 "User-visible behaviour": do not log a loop.
			return Locator{}, stats, ErrDeadlock
		}

		for _, base := range lc.Registry.NewestFirst() {
			stats.Loops++
			base.Acquire()

			if base.Invalidated() {
				base.Release()

				tries++

				continue outer
			}

			if !base.Index.Closed() {
				stats.NoSort++
				base.Release()

				continue
			}

			stats.SearchOnDisk++
			lc.Stats.AddIndexReads(base.Name, 1)

			block, found, bloomNeg := base.Index.Probe(key)
			if bloomNeg {
				stats.BloomNull++
			}

			if !found {
				if !bloomNeg {
					stats.NoBlock++
				}

				base.Release()

				continue
			}

			raw := base.Index.SortedBytes()
			if raw == nil {
				// Invalidated between Probe and SortedBytes: restart.
				base.Release()

				tries++

				continue outer
			}

			stats.FoundIndexBlock++

			startIdx, endIdx := base.Index.BlockBounds(block)
			stats.BsearchReached++

			result := ScanBlock(raw, startIdx, endIdx, key, accept)
			stats.AdditionalReads += result.AdditionalReads

			if result.BsearchFound {
				stats.BsearchFound++
			}

			if result.Found {
				rc := Decode(raw, result.Index)
				loc := Locator{
					BaseRef:     base,
					DataOffset:  rc.Position,
					IndexOffset: int64(result.Index) * int64(Stride),
					Size:        rc.DataSize,
				}

				base.Release()

				return loc, stats, nil
			}

			base.Release()
		}

		return Locator{}, stats, ErrNotFound
	}
}
