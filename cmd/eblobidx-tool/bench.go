package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/internal/mmapfile"
	"github.com/shindo-go/eblobidx/internal/telemetry"
	"github.com/shindo-go/eblobidx/pkg/sortedidx"
)

type benchOptions struct {
	bases     int
	entries   int
	lookups   int
	workers   int
	blockSize int
}

func parseBenchFlags(args []string) (benchOptions, error) {
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)

	opts := benchOptions{bases: 4, entries: 100_000, lookups: 50_000, workers: 8, blockSize: 128}

	fs.IntVar(&opts.bases, "bases", opts.bases, "number of synthetic bases")
	fs.IntVar(&opts.entries, "entries", opts.entries, "entries per base")
	fs.IntVar(&opts.lookups, "lookups", opts.lookups, "number of lookups to run")
	fs.IntVar(&opts.workers, "workers", opts.workers, "concurrent lookup goroutines")
	fs.IntVar(&opts.blockSize, "block-size", opts.blockSize, "index block size B")

	if err := fs.Parse(args); err != nil {
		return benchOptions{}, err
	}

	return opts, nil
}

// cmdBench drives concurrent disk_index_lookup calls against synthetic
// in-memory bases and reports a latency histogram, exercising the same
// LookupCoordinator path cmd eblobidx-tool's callers use in production but
// without requiring a real data+index file pair on disk.
func cmdBench(out io.Writer, args []string) error {
	opts, err := parseBenchFlags(args)
	if err != nil {
		return err
	}

	cfg := eblobcfg.Default()
	cfg.BlockSize = opts.blockSize

	reg := sortedidx.NewRegistry()

	var allKeys []sortedidx.Key

	for i := 0; i < opts.bases; i++ {
		base, keys, err := buildSyntheticBase(fmt.Sprintf("synthetic-%d", i), opts.entries, cfg)
		if err != nil {
			return err
		}

		reg.Append(base)
		allKeys = append(allKeys, keys...)
	}

	engine := sortedidx.NewEngine(reg, cfg, telemetry.NopStats{}, telemetry.NopLogger{})

	hist := hdrhistogram.New(1, int64(time.Second), 3)

	var (
		mu   sync.Mutex
		hits int
	)

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(opts.workers)

	for i := 0; i < opts.lookups; i++ {
		key := allKeys[i%len(allKeys)]

		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			start := time.Now()
			_, _, err := engine.Lookup(key)
			elapsed := time.Since(start)

			mu.Lock()
			_ = hist.RecordValue(elapsed.Nanoseconds())

			if err == nil {
				hits++
			}

			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "lookups=%d hits=%d p50=%s p90=%s p99=%s max=%s\n",
		opts.lookups, hits,
		time.Duration(hist.ValueAtQuantile(50)),
		time.Duration(hist.ValueAtQuantile(90)),
		time.Duration(hist.ValueAtQuantile(99)),
		time.Duration(hist.Max()),
	)

	return nil
}

// buildSyntheticBase constructs a closed, fully indexed base entirely in
// memory: n random, pre-sorted, non-removed entries backed by a plain byte
// slice standing in for an mmap'd sorted index file.
func buildSyntheticBase(name string, n int, cfg eblobcfg.Config) (*sortedidx.Base, []sortedidx.Key, error) {
	raw := make([]byte, n*sortedidx.Stride)
	keys := make([]sortedidx.Key, n)

	for i := 0; i < n; i++ {
		var key sortedidx.Key

		if _, err := rand.Read(key[:]); err != nil {
			return nil, nil, err
		}

		keys[i] = key
	}

	sortKeysInPlace(keys)

	for i, key := range keys {
		sortedidx.Encode(raw, i, sortedidx.RecordControl{
			Key:      key,
			DataSize: 64,
			DiskSize: uint64(sortedidx.Stride),
			Position: uint64(i) * uint64(sortedidx.Stride),
		})
	}

	dataFileSize := int64(n) * int64(sortedidx.Stride)

	table, builder, _, err := sortedidx.BuildBlockTable(raw, dataFileSize, cfg.BlockSize, cfg.BitsPerBlock, cfg.CorruptMax)
	if err != nil {
		return nil, nil, err
	}

	filter := sortedidx.NewFilter(builder.Bytes(), sortedidx.NumHashes(cfg.BitsPerBlock, cfg.BlockSize))

	base := sortedidx.NewBase(name, dataFileSize)
	base.Index.Install(&mmapfile.Mapping{Data: raw}, table, filter)

	return base, keys, nil
}

func sortKeysInPlace(keys []sortedidx.Key) {
	sort.Slice(keys, func(i, j int) bool {
		return sortedidx.CompareKeys(keys[i], keys[j]) < 0
	})
}
