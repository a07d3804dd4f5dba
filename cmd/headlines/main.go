// Command headlines fetches top headlines through the fallback chain and manages display settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const usage = `usage: headlines <command> [flags]

commands:
  fetch      run one fetch cycle and print the headlines
  bundle     merge several categories into one batch
  watch      refresh on a schedule until interrupted
  settings   show|set <key> <value>|reset|toggle-theme
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches to a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "fetch":
		err = runFetch(ctx, args[1:], stdout)
	case "bundle":
		err = runBundle(ctx, args[1:], stdout)
	case "watch":
		err = runWatch(ctx, args[1:], stdout)
	case "settings":
		err = runSettings(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "headlines %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
