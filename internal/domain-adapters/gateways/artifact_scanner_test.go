package gateways

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSharedObjectName(t *testing.T) {
	tests := []struct {
		base string
		want bool
	}{
		{"libfoo.so", true},
		{"libfoo.so.1", true},
		{"libfoo.so.1.2.3", true},
		{"libfoo.dylib", true},
		{"libfoo.1.dylib", true},
		{"libfoo.a", false},
		{"foo.txt", false},
		{"libfoo.so.conf", false},
		{"libfoo.so.", false},
		{"module.sources", false},
		{"binary", false},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			if got := IsSharedObjectName(tt.base); got != tt.want {
				t.Errorf("IsSharedObjectName(%q) = %v, want %v", tt.base, got, tt.want)
			}
		})
	}
}

func TestArtifactScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	libDir := filepath.Join(tmpDir, "lib")
	if err := os.MkdirAll(libDir, 0o750); err != nil {
		t.Fatal(err)
	}

	files := []string{
		"lib/libfoo.so.1",
		"lib/libbar.dylib",
		"lib/libbaz.a",
		"README",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, f), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	// Symlinks are skipped: their targets are audited under their own paths.
	if err := os.Symlink("libfoo.so.1", filepath.Join(libDir, "libfoo.so")); err != nil {
		t.Fatal(err)
	}

	scanner := NewArtifactScanner()
	artifacts, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	got := make(map[string]bool)
	for _, a := range artifacts {
		got[a.RelPath()] = true
		if a.Prefix != tmpDir {
			t.Errorf("artifact prefix = %q, want %q", a.Prefix, tmpDir)
		}
	}

	want := []string{"lib/libfoo.so.1", "lib/libbar.dylib"}
	if len(got) != len(want) {
		t.Fatalf("found %d artifacts (%v), want %d", len(got), got, len(want))
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing artifact %q", w)
		}
	}
}

func TestArtifactScanner_MissingPrefix(t *testing.T) {
	scanner := NewArtifactScanner()

	if _, err := scanner.Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Scan() should fail for a missing prefix")
	}
}
