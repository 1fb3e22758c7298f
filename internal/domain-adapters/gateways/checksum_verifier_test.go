package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestChecksumVerifier_Calculate(t *testing.T) {
	v := NewChecksumVerifier()
	path := writeArtifact(t, t.TempDir(), "libfoo.so", "library bytes")

	got, err := v.Calculate(path)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if got != digestOf("library bytes") {
		t.Errorf("Calculate() = %s, want %s", got, digestOf("library bytes"))
	}
}

func TestChecksumVerifier_VerifyAgainstFile(t *testing.T) {
	v := NewChecksumVerifier()
	tmpDir := t.TempDir()
	path := writeArtifact(t, tmpDir, "libfoo.so", "library bytes")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "sha256sum format",
			content: digestOf("library bytes") + "  libfoo.so\n",
		},
		{
			name:    "binary mode marker",
			content: digestOf("library bytes") + " *libfoo.so\n",
		},
		{
			name:    "bare digest",
			content: digestOf("library bytes") + "\n",
		},
		{
			name: "multi-entry file",
			content: digestOf("other") + "  libother.so\n" +
				digestOf("library bytes") + "  libfoo.so\n",
		},
		{
			name:    "mismatch",
			content: digestOf("tampered") + "  libfoo.so\n",
			wantErr: "checksum mismatch",
		},
		{
			name:    "no entry",
			content: digestOf("other") + "  libother.so\n",
			wantErr: "no checksum entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sumFile := writeArtifact(t, tmpDir, "sums.sha256", tt.content)

			err := v.VerifyAgainstFile(context.Background(), path, sumFile)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("VerifyAgainstFile() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestChecksumVerifier_MissingChecksumFile(t *testing.T) {
	v := NewChecksumVerifier()
	path := writeArtifact(t, t.TempDir(), "libfoo.so", "x")

	if err := v.VerifyAgainstFile(context.Background(), path, "/nonexistent.sha256"); err == nil {
		t.Fatal("expected error for missing checksum file")
	}
}
