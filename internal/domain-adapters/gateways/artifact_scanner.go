package gateways

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nocturne-build/sofix/internal/domain/entities"
)

// ArtifactScanner locates shared-object artifacts under an install prefix.
type ArtifactScanner struct{}

// NewArtifactScanner creates a new artifact scanner
func NewArtifactScanner() *ArtifactScanner {
	return &ArtifactScanner{}
}

// Scan walks the prefix and returns every regular file named like a shared
// object. Symbolic links are not followed: link targets are either
// elsewhere in the tree (audited under their own path) or outside the
// prefix (not this run's artifacts).
func (s *ArtifactScanner) Scan(prefix string) ([]entities.ArtifactRef, error) {
	if _, err := os.Stat(prefix); os.IsNotExist(err) {
		return nil, fmt.Errorf("install prefix does not exist: %s", prefix)
	}

	var artifacts []entities.ArtifactRef

	err := filepath.WalkDir(prefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if IsSharedObjectName(filepath.Base(path)) {
			artifacts = append(artifacts, entities.ArtifactRef{Path: path, Prefix: prefix})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return artifacts, nil
}

// IsSharedObjectName reports whether a filename follows a shared-library
// naming convention: *.so, *.so.N..., or *.dylib.
func IsSharedObjectName(base string) bool {
	if strings.HasSuffix(base, ".dylib") {
		return true
	}
	if strings.HasSuffix(base, ".so") {
		return true
	}
	// Versioned ELF names: libfoo.so.1, libfoo.so.1.2.3
	if i := strings.Index(base, ".so."); i > 0 {
		rest := base[i+len(".so."):]
		if rest == "" {
			return false
		}
		for _, r := range rest {
			if (r < '0' || r > '9') && r != '.' {
				return false
			}
		}
		return true
	}
	return false
}
