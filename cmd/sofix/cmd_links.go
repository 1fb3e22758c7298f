package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nocturne-build/sofix/internal/external-adapters/yaml"
)

func runLinks(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("links", flag.ExitOnError)
	opts := addBatchFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sofix links [options]

Audit canonical names and reconcile the filesystem so every shared
object is reachable under the name it declares: when an artifact's
embedded name has no directory entry next to it, a relative symlink
pointing at the artifact is created (with --autofix) or reported as a
failure (without).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sofix links --prefix /opt/out
  sofix links --prefix /opt/out --autofix
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfg, err := resolveConfig(ctx, fs, opts, yaml.NewConfigRepository())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := executeBatch(ctx, cfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
