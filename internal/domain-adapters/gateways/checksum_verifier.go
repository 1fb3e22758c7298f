package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// checksumVerifier implements checksum calculation and verification using
// pure Go - no external sha256sum binary needed.
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// Calculate returns the hex-encoded SHA256 digest of the file.
func (v *checksumVerifier) Calculate(path string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyAgainstFile verifies the file's SHA256 digest against a checksum
// file in the conventional "digest  filename" format. A bare digest with
// no filename column is accepted; when a filename is present it must match
// the file's basename.
func (v *checksumVerifier) VerifyAgainstFile(_ context.Context, path, checksumFile string) error {
	//nolint:gosec // G304: checksum file path is user-provided for verification
	data, err := os.ReadFile(checksumFile)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	expected, err := expectedDigestFor(filepath.Base(path), string(data))
	if err != nil {
		return err
	}

	actual, err := v.Calculate(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}

	return nil
}

// expectedDigestFor extracts the digest for basename from checksum-file
// content. Multi-entry files (one line per artifact) are supported.
func expectedDigestFor(basename, content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch {
		case len(fields) == 1:
			return fields[0], nil
		case len(fields) >= 2:
			// sha256sum marks binary mode with a leading '*'.
			name := strings.TrimPrefix(fields[1], "*")
			if filepath.Base(name) == basename {
				return fields[0], nil
			}
		}
	}
	return "", fmt.Errorf("no checksum entry for %s", basename)
}
