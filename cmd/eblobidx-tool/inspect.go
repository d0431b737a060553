package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/internal/mmapfile"
	"github.com/shindo-go/eblobidx/pkg/sortedidx"
)

type inspectOptions struct {
	sortedPath string
	dataSize   int64
	configPath string
}

func parseInspectFlags(args []string) (inspectOptions, error) {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)

	var opts inspectOptions

	fs.StringVar(&opts.sortedPath, "sorted", "", "path to a *.index.sorted file (required)")
	fs.Int64Var(&opts.dataSize, "data-size", -1, "sibling data file size, in bytes")
	fs.StringVar(&opts.configPath, "config", "", "path to a config file (defaults built in if empty)")

	if err := fs.Parse(args); err != nil {
		return inspectOptions{}, err
	}

	if opts.sortedPath == "" {
		return inspectOptions{}, fmt.Errorf("--sorted is required")
	}

	return opts, nil
}

// cmdInspect prints the index block table of a built sorted index file as a
// table: one row per block, its entry count and its key bounds.
func cmdInspect(out io.Writer, args []string) error {
	opts, err := parseInspectFlags(args)
	if err != nil {
		return err
	}

	cfg := eblobcfg.Default()

	if opts.configPath != "" {
		cfg, err = eblobcfg.Load(opts.configPath)
		if err != nil {
			return err
		}
	}

	f, err := os.Open(opts.sortedPath)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	mapping, err := mmapfile.MapReadOnly(f)
	if err != nil {
		return err
	}

	defer func() { _ = mapping.Unmap() }()

	table, builder, stats, err := sortedidx.BuildBlockTable(mapping.Data, opts.dataSize, cfg.BlockSize, cfg.BitsPerBlock, cfg.CorruptMax)
	if err != nil {
		return err
	}

	writer := tablewriter.NewWriter(out)
	writer.SetHeader([]string{"block", "entries", "start_key", "end_key"})

	for i, b := range table.Blocks {
		startIdx, endIdx := int(b.StartOffset/int64(sortedidx.Stride)), int(b.EndOffset/int64(sortedidx.Stride))
		writer.Append([]string{
			strconv.Itoa(i),
			strconv.Itoa(endIdx - startIdx),
			shortKey(b.StartKey),
			shortKey(b.EndKey),
		})
	}

	writer.Render()

	fmt.Fprintf(out, "bloom: %d bytes, corrupted entries: %d, removed: %d (%d bytes)\n",
		len(builder.Bytes()), stats.CorruptedEntries, stats.RecordsRemoved, stats.RemovedSize)

	return nil
}

func shortKey(k sortedidx.Key) string {
	return fmt.Sprintf("%x", k[:8])
}
