package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/shindo-go/eblobidx/internal/eblobcfg"
	"github.com/shindo-go/eblobidx/internal/telemetry"
	"github.com/shindo-go/eblobidx/pkg/sortedidx"
)

type buildOptions struct {
	dataPrefix string
	baseNum    int
	dataSize   int64
	configPath string
	reportPath string
}

func parseBuildFlags(args []string) (buildOptions, error) {
	fs := pflag.NewFlagSet("build", pflag.ContinueOnError)

	var opts buildOptions

	fs.StringVar(&opts.dataPrefix, "data", "", "data file path prefix (required)")
	fs.IntVar(&opts.baseNum, "base", 0, "base number")
	fs.Int64Var(&opts.dataSize, "data-size", -1, "sibling data file size, in bytes")
	fs.StringVar(&opts.configPath, "config", "", "path to a config file (defaults built in if empty)")
	fs.StringVar(&opts.reportPath, "report", "", "write a JSON build report to this path")

	if err := fs.Parse(args); err != nil {
		return buildOptions{}, err
	}

	if opts.dataPrefix == "" {
		return buildOptions{}, fmt.Errorf("--data is required")
	}

	return opts, nil
}

// cmdBuild runs generate_sorted_index followed by index_blocks_fill for one
// base, the offline path an operator runs after a base is sealed.
func cmdBuild(out io.Writer, logger telemetry.Logger, args []string) error {
	opts, err := parseBuildFlags(args)
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

	unsortedPath := fmt.Sprintf("%s-0.%d.index", opts.dataPrefix, opts.baseNum)
	tmpPath, sortedPath := sortedidx.Paths(opts.dataPrefix, opts.baseNum)

	base := sortedidx.NewBase(fmt.Sprintf("%s-0.%d", opts.dataPrefix, opts.baseNum), opts.dataSize)

	builder := &sortedidx.SortedIndexBuilder{SingleProcess: cfg.SingleProcess}
	if err := builder.Generate(base, unsortedPath, tmpPath, sortedPath); err != nil {
		return err
	}

	engine := sortedidx.NewEngine(sortedidx.NewRegistry(), cfg, telemetry.NopStats{}, logger)
	if err := engine.IndexBlocksFill(base); err != nil {
		return err
	}

	report := sortedidx.BuildReport{
		Base:       base.Name,
		Entries:    sortedidx.NumEntries(len(base.Index.SortedBytes())),
		Blocks:     base.Index.NumBlocks(),
		BloomBytes: base.Index.BloomSizeBytes(),
	}

	fmt.Fprintf(out, "built %s: %d entries, %d blocks, %d bloom bytes\n",
		report.Base, report.Entries, report.Blocks, report.BloomBytes)

	if opts.reportPath != "" {
		return sortedidx.WriteReport(opts.reportPath, report)
	}

	return nil
}
