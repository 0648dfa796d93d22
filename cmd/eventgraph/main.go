// Command eventgraph maps which source files emit named events and which
// files listen for them, and prints the resulting file graph.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
// Asking for help exits with 1, matching the historical behaviour scripts
// depend on.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli := newCLI(stdout, stderr)
	root := cli.rootCommand()
	root.SetArgs(rewriteHelpFlag(args))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "eventgraph: %v\n", err)
		return 1
	}
	if cli.helpShown {
		return 1
	}
	return 0
}

// rewriteHelpFlag maps the legacy -? flag onto -h. Arguments after "--"
// are left alone.
func rewriteHelpFlag(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "--" {
			break
		}
		if a == "-?" {
			out[i] = "-h"
		}
	}
	return out
}
