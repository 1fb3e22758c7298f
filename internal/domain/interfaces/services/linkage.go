// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
)

// LinkageService audits and repairs an artifact's canonical-name metadata
// and its on-disk reachability under that name. Each method is a
// self-contained unit of work: it takes its own log sink and shares no
// mutable state with concurrent calls.
type LinkageService interface {
	// EnsureCanonicalName applies the skip/pass/fail/autofix decision tree
	// to one artifact. Failures resolve to a Failed outcome, never an
	// error; the batch always continues.
	EnsureCanonicalName(ctx context.Context, artifact entities.ArtifactRef, platform entities.Platform, policy entities.Policy, log interfaces.Logger) entities.AuditOutcome

	// EnsureNameLink reconciles the filesystem so an entry exists in the
	// artifact's directory under its canonical name.
	EnsureNameLink(artifact entities.ArtifactRef, policy entities.Policy, log interfaces.Logger) entities.AuditOutcome
}
