package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Stats is the numeric gauges/counters sink the engine reports to. Each
// method corresponds to one of the spec's stat identifiers; PromStats
// exports them under eblobidx_-prefixed Prometheus names (for example
// BLOOM_SIZE as eblobidx_bloom_size_bytes), not under the identifiers
// themselves.
type Stats interface {
	SetBloomSize(base string, bytes int64)
	SetIndexBlocksSize(base string, bytes int64)
	AddCorruptedEntries(base string, n int64)
	AddRecordsRemoved(base string, n int64)
	AddRemovedSize(base string, bytes int64)
	AddIndexReads(base string, n int64)
}

// PromStats implements Stats over prometheus gauge/counter vectors keyed by
// base name.
type PromStats struct {
	bloomSize       *prometheus.GaugeVec
	indexBlocksSize *prometheus.GaugeVec
	corruptEntries  *prometheus.CounterVec
	recordsRemoved  *prometheus.CounterVec
	removedSize     *prometheus.CounterVec
	indexReads      *prometheus.CounterVec
}

// NewPromStats constructs and registers the gauge/counter vectors against reg.
// Passing nil registers against prometheus.DefaultRegisterer.
func NewPromStats(reg prometheus.Registerer) *PromStats {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &PromStats{
		bloomSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eblobidx_bloom_size_bytes",
			Help: "Size in bytes of a base's Bloom filter bit array.",
		}, []string{"base"}),
		indexBlocksSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eblobidx_index_blocks_size_bytes",
			Help: "Size in bytes of a base's index block table.",
		}, []string{"base"}),
		corruptEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eblobidx_index_corrupted_entries_total",
			Help: "Corrupt record-control entries skipped while building a block table.",
		}, []string{"base"}),
		recordsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eblobidx_records_removed_total",
			Help: "Tombstoned (REMOVED) entries observed while building a block table.",
		}, []string{"base"}),
		removedSize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eblobidx_removed_size_bytes_total",
			Help: "Cumulative disk_size of tombstoned entries observed.",
		}, []string{"base"}),
		indexReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eblobidx_gst_index_reads_total",
			Help: "Sorted-index reads performed while answering lookups.",
		}, []string{"base"}),
	}

	reg.MustRegister(
		s.bloomSize, s.indexBlocksSize, s.corruptEntries,
		s.recordsRemoved, s.removedSize, s.indexReads,
	)

	return s
}

func (s *PromStats) SetBloomSize(base string, bytes int64) {
	s.bloomSize.WithLabelValues(base).Set(float64(bytes))
}

func (s *PromStats) SetIndexBlocksSize(base string, bytes int64) {
	s.indexBlocksSize.WithLabelValues(base).Set(float64(bytes))
}

func (s *PromStats) AddCorruptedEntries(base string, n int64) {
	s.corruptEntries.WithLabelValues(base).Add(float64(n))
}

func (s *PromStats) AddRecordsRemoved(base string, n int64) {
	s.recordsRemoved.WithLabelValues(base).Add(float64(n))
}

func (s *PromStats) AddRemovedSize(base string, bytes int64) {
	s.removedSize.WithLabelValues(base).Add(float64(bytes))
}

func (s *PromStats) AddIndexReads(base string, n int64) {
	s.indexReads.WithLabelValues(base).Add(float64(n))
}

// NopStats discards everything. Used as the zero-value-friendly default and
// in tests that don't care about telemetry.
type NopStats struct{}

func (NopStats) SetBloomSize(string, int64)       {}
func (NopStats) SetIndexBlocksSize(string, int64) {}
func (NopStats) AddCorruptedEntries(string, int64) {}
func (NopStats) AddRecordsRemoved(string, int64)   {}
func (NopStats) AddRemovedSize(string, int64)      {}
func (NopStats) AddIndexReads(string, int64)       {}

var _ Stats = (*PromStats)(nil)
var _ Stats = NopStats{}
