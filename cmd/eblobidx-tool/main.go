// Command eblobidx-tool builds, inspects and benchmarks sorted-index bases
// from the command line.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shindo-go/eblobidx/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: eblobidx-tool <build|inspect|bench> [flags]")

		return 2
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(errOut, "eblobidx-tool: logger init: %v\n", err)

		return 1
	}

	defer func() { _ = zapLogger.Sync() }()

	logger := telemetry.NewZapLogger(zapLogger)

	cmd, rest := args[0], args[1:]

	var cmdErr error

	switch cmd {
	case "build":
		cmdErr = cmdBuild(out, logger, rest)
	case "inspect":
		cmdErr = cmdInspect(out, rest)
	case "bench":
		cmdErr = cmdBench(out, rest)
	default:
		fmt.Fprintf(errOut, "eblobidx-tool: unknown command %q\n", cmd)

		return 2
	}

	if cmdErr != nil {
		fmt.Fprintf(errOut, "eblobidx-tool: %s: %v\n", cmd, cmdErr)

		return 1
	}

	return 0
}
