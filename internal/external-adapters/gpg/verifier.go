// Package gpg provides GPG signature verification capabilities.
package gpg

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Verifier implements GPG signature verification using ProtonMail's go-crypto
// A maintained, modern fork of golang.org/x/crypto/openpgp
// This is in external-adapters to isolate the external dependency.
// Keys come from local keyring files only; this tool has no network
// interface.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyFile imports keys from a local keyring file, armored or binary.
func (v *Verifier) ImportKeyFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	keys, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		keys, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(keys) == 0 {
		return fmt.Errorf("no keys found in %s", keyPath)
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// KeyCount returns the number of imported entities.
func (v *Verifier) KeyCount() int {
	return len(v.keyring)
}

// VerifyDetached verifies a detached signature file against a data file.
func (v *Verifier) VerifyDetached(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported, call ImportKeyFile first")
	}

	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer sigFile.Close()

	//nolint:gosec // G304: filePath is user-provided for GPG verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer dataFile.Close()

	// Peek at the signature to determine if it's armored
	peekBuf := make([]byte, 27)
	n, _ := io.ReadFull(sigFile, peekBuf)
	isArmored := n == 27 && string(peekBuf[:27]) == "-----BEGIN PGP SIGNATURE---"

	if _, seekErr := sigFile.Seek(0, 0); seekErr != nil {
		return fmt.Errorf("failed to reset signature file: %w", seekErr)
	}

	var verifyErr error
	if isArmored {
		_, verifyErr = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, sigFile, nil)
	} else {
		_, verifyErr = openpgp.CheckDetachedSignature(v.keyring, dataFile, sigFile, nil)
	}

	if verifyErr != nil {
		return fmt.Errorf("signature verification failed: %w", verifyErr)
	}

	return nil
}
