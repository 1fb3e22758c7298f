package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "audit":
		runAudit(ctx, os.Args[2:])
	case "links":
		runLinks(ctx, os.Args[2:])
	case "scan":
		runScan(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sofix - Shared-library linkage metadata auditor

Usage:
  sofix <command> [options]

Commands:
  audit   Audit (and optionally repair) canonical names of shared objects
  links   Audit and reconcile filesystem entries for canonical names
  scan    List shared-object artifacts under an install prefix
  verify  Verify checksums and GPG signatures of artifacts

Use "sofix <command> --help" for more information about a command.`)
}

func detectPlatform() string {
	os := runtime.GOOS
	arch := runtime.GOARCH

	// Map Go's GOARCH to common platform names
	archMap := map[string]string{
		"amd64": "x86_64",
		"arm64": "arm64",
		"386":   "i386",
	}

	mappedArch := archMap[arch]
	if mappedArch == "" {
		mappedArch = arch
	}

	return fmt.Sprintf("%s-%s", os, mappedArch)
}
