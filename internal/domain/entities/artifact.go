// Package entities defines core domain models and data structures.
package entities

import (
	"path/filepath"
	"strings"
)

// ArtifactRef identifies a built shared-object artifact on disk together
// with the install prefix its diagnostics are reported against.
type ArtifactRef struct {
	Path   string
	Prefix string
}

// RelPath returns the artifact path relative to its install prefix, for use
// in diagnostics. Falls back to the full path when the artifact is not
// under the prefix.
func (a ArtifactRef) RelPath() string {
	if a.Prefix == "" {
		return a.Path
	}
	rel, err := filepath.Rel(a.Prefix, a.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return a.Path
	}
	return rel
}

// Basename returns the artifact's own filename.
func (a ArtifactRef) Basename() string {
	return filepath.Base(a.Path)
}

// DefaultCanonicalName is the expected identity used for repair when an
// artifact carries no canonical name of its own: the file's basename.
// This is a policy default, not a parsing fact; a caller wanting a
// different expected identity replaces this one call site.
func DefaultCanonicalName(a ArtifactRef) string {
	return a.Basename()
}
