package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nocturne-build/sofix/internal/domain-adapters/gateways"
)

func runScan(_ context.Context, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var (
		prefix = fs.String("prefix", "", "Install prefix to scan")
		names  = fs.Bool("names", false, "Probe and show each artifact's embedded canonical name")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sofix scan [options]

List the shared-object artifacts an audit would cover, without
auditing them.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sofix scan --prefix /opt/out
  sofix scan --prefix /opt/out --names
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *prefix == "" {
		fmt.Fprintf(os.Stderr, "Error: --prefix is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	if err := executeScan(*prefix, *names); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeScan(prefix string, names bool) error {
	scanner := gateways.NewArtifactScanner()

	artifacts, err := scanner.Scan(prefix)
	if err != nil {
		return err
	}

	prober := gateways.NewLinkageProber()
	for _, artifact := range artifacts {
		if !names {
			fmt.Println(artifact.RelPath())
			continue
		}

		format, name, err := prober.Probe(artifact.Path)
		switch {
		case err != nil:
			fmt.Printf("%s\t%s\n", artifact.RelPath(), "(unreadable)")
		case name == "":
			fmt.Printf("%s\t%s\t%s\n", artifact.RelPath(), format, "(no canonical name)")
		default:
			fmt.Printf("%s\t%s\t%s\n", artifact.RelPath(), format, name)
		}
	}

	fmt.Fprintf(os.Stderr, "%d shared objects under %s\n", len(artifacts), prefix)
	return nil
}
