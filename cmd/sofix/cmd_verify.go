package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"

	"github.com/nocturne-build/sofix/internal/domain-adapters/gateways"
	"github.com/nocturne-build/sofix/internal/external-adapters/gpg"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		checksumFile = fs.String("checksum", "", "Checksum file to verify against (.sha256)")
		gpgSig       = fs.String("gpg-sig", "", "Detached GPG signature file (.asc or .sig)")
		keyring      = fs.String("keyring", "", "Local GPG keyring file, armored or binary")
		verifyAll    = fs.Bool("all", false, "Verify all sidecar files found next to the artifact")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sofix verify <file> [options]

Verify checksums and detached GPG signatures for an artifact. Keys come
from a local keyring file; no network access is involved.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sofix verify libfoo.so.1 --checksum sums.sha256
  sofix verify libfoo.so.1 --gpg-sig libfoo.so.1.asc --keyring release-keys.asc
  sofix verify libfoo.so.1 --all --keyring release-keys.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: file path is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	if err := executeVerify(ctx, fs.Arg(0), *checksumFile, *gpgSig, *keyring, *verifyAll); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeVerify(ctx context.Context, filePath, checksumFile, gpgSig, keyring string, verifyAll bool) error {
	verified := 0
	failed := 0

	// Auto-detect sidecar files if --all is specified
	if verifyAll {
		if checksumFile == "" && fileExists(filePath+".sha256") {
			checksumFile = filePath + ".sha256"
		}
		if gpgSig == "" {
			if fileExists(filePath + ".asc") {
				gpgSig = filePath + ".asc"
			} else if fileExists(filePath + ".sig") {
				gpgSig = filePath + ".sig"
			}
		}
	}

	fmt.Printf("Verifying %s\n\n", filepath.Base(filePath))

	if checksumFile != "" {
		if err := gateways.NewChecksumVerifier().VerifyAgainstFile(ctx, filePath, checksumFile); err != nil {
			color.Danger.Printf("checksum verification FAILED: %v\n", err)
			failed++
		} else {
			color.Success.Println("checksum verified")
			verified++
		}
	}

	if gpgSig != "" {
		if err := verifyGPGSignature(filePath, gpgSig, keyring); err != nil {
			color.Danger.Printf("GPG signature verification FAILED: %v\n", err)
			failed++
		} else {
			color.Success.Println("GPG signature verified")
			verified++
		}
	}

	fmt.Println(strings.Repeat("-", 48))
	fmt.Printf("Verified: %d checks\n", verified)
	if failed > 0 {
		fmt.Printf("Failed: %d checks\n", failed)
		return fmt.Errorf("%d verification checks failed", failed)
	}
	if verified == 0 {
		return fmt.Errorf("no verification checks performed (specify --checksum or --gpg-sig)")
	}

	return nil
}

func verifyGPGSignature(filePath, gpgSig, keyring string) error {
	if keyring == "" {
		return fmt.Errorf("a keyring file is required for GPG verification (use --keyring)")
	}

	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFile(keyring); err != nil {
		return fmt.Errorf("failed to import GPG keys: %w", err)
	}

	return verifier.VerifyDetached(filePath, gpgSig)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
