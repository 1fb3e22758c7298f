// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/gateways"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/services"
)

// linkageService implements LinkageService with the probe/repair/verify
// decision tree. All binary reading goes through the injected prober; the
// only mutation of binaries goes through the injected patcher.
type linkageService struct {
	prober  gateways.LinkageProber
	patcher gateways.CanonicalNamePatcher
}

// NewLinkageService creates a new linkage service with dependency injection
func NewLinkageService(prober gateways.LinkageProber, patcher gateways.CanonicalNamePatcher) services.LinkageService {
	return &linkageService{prober: prober, patcher: patcher}
}

// EnsureCanonicalName audits one artifact's embedded canonical name and,
// when permitted, assigns and verifies one.
func (s *linkageService) EnsureCanonicalName(ctx context.Context, artifact entities.ArtifactRef, platform entities.Platform, policy entities.Policy, log interfaces.Logger) entities.AuditOutcome {
	// Canonical-name metadata is not a meaningful concept for the PE
	// container in this system's scope. A scope decision, not a bug.
	if platform.Family() == entities.FamilyWindows {
		if policy.Verbose {
			log.Info("canonical name not applicable on platform",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("platform", platform.String()))
		}
		return s.passed(artifact, entities.CheckCanonicalName)
	}

	name := s.probeName(artifact, log)
	if name != "" {
		if policy.Verbose {
			log.Info("canonical name present",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("name", name))
		}
		return s.passed(artifact, entities.CheckCanonicalName)
	}

	want := entities.DefaultCanonicalName(artifact)

	if !policy.Autofix {
		err := &entities.MissingNameError{Path: artifact.RelPath(), Want: want}
		log.Error("missing canonical name", interfaces.F("artifact", artifact.RelPath()), interfaces.F("expected", want))
		return s.failed(artifact, entities.CheckCanonicalName, err)
	}

	if err := s.attemptFix(ctx, artifact, platform, want, log); err != nil {
		log.Error("patch tool failed",
			interfaces.F("artifact", artifact.RelPath()),
			interfaces.F("error", err.Error()))
		return s.failed(artifact, entities.CheckCanonicalName, err)
	}

	return s.verifyFix(artifact, want, log)
}

// attemptFix asks the external patch tool to assign the expected name. Its
// result is provisional: the tool is outside this system's control and its
// exit status alone is not proof of effect.
func (s *linkageService) attemptFix(ctx context.Context, artifact entities.ArtifactRef, platform entities.Platform, want string, log interfaces.Logger) error {
	log.Info("assigning canonical name",
		interfaces.F("artifact", artifact.RelPath()),
		interfaces.F("name", want),
		interfaces.F("platform", platform.String()))
	return s.patcher.SetCanonicalName(ctx, artifact, platform, want, log)
}

// verifyFix re-reads the artifact through the same code path as initial
// detection and compares against the name just assigned. Read-back
// equality is load-bearing, not assumed.
func (s *linkageService) verifyFix(artifact entities.ArtifactRef, want string, log interfaces.Logger) entities.AuditOutcome {
	got := s.probeName(artifact, log)
	if got != want {
		err := &entities.VerificationMismatchError{Path: artifact.RelPath(), Want: want, Got: got}
		log.Error("post-fix verification mismatch",
			interfaces.F("artifact", artifact.RelPath()),
			interfaces.F("intended", want),
			interfaces.F("observed", got))
		return s.failed(artifact, entities.CheckCanonicalName, err)
	}
	log.Info("canonical name assigned and verified",
		interfaces.F("artifact", artifact.RelPath()),
		interfaces.F("name", want))
	return s.passed(artifact, entities.CheckCanonicalName)
}

// EnsureNameLink reconciles the filesystem so an entry exists in the
// artifact's directory under its canonical name.
func (s *linkageService) EnsureNameLink(artifact entities.ArtifactRef, policy entities.Policy, log interfaces.Logger) entities.AuditOutcome {
	name := s.probeName(artifact, log)
	if name == "" {
		// Nothing to reconcile.
		return s.passed(artifact, entities.CheckNameLink)
	}

	linkPath := filepath.Join(filepath.Dir(artifact.Path), name)
	if _, err := os.Lstat(linkPath); err == nil {
		if policy.Verbose {
			log.Info("canonical name reachable",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("name", name))
		}
		return s.passed(artifact, entities.CheckNameLink)
	}

	if !policy.Autofix {
		err := &entities.MissingLinkError{Path: artifact.RelPath(), Name: name}
		log.Error("canonical name not reachable",
			interfaces.F("artifact", artifact.RelPath()),
			interfaces.F("name", name))
		return s.failed(artifact, entities.CheckNameLink, err)
	}

	// Relative link in the artifact's own directory; the target is the
	// artifact itself, present by definition of being audited.
	if err := os.Symlink(artifact.Basename(), linkPath); err != nil {
		fsErr := &entities.FilesystemError{Op: "symlink", Path: linkPath, Err: err}
		log.Error("symlink creation failed",
			interfaces.F("link", linkPath),
			interfaces.F("error", err.Error()))
		return s.failed(artifact, entities.CheckNameLink, fsErr)
	}

	log.Info("created canonical name link",
		interfaces.F("link", linkPath),
		interfaces.F("target", artifact.Basename()))
	return s.passed(artifact, entities.CheckNameLink)
}

// probeName reads the artifact's canonical name, recovering probe failures
// as "absent" with a warning. A broken or unrecognized file is a normal
// audit subject, never a reason to abort.
func (s *linkageService) probeName(artifact entities.ArtifactRef, log interfaces.Logger) string {
	_, name, err := s.prober.Probe(artifact.Path)
	if err != nil {
		var probeErr *entities.ProbeError
		if errors.As(err, &probeErr) {
			log.Warn("probe failed, treating canonical name as absent",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("error", probeErr.Err.Error()))
		} else {
			log.Warn("probe failed, treating canonical name as absent",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("error", err.Error()))
		}
		return ""
	}
	return name
}

func (s *linkageService) passed(artifact entities.ArtifactRef, check string) entities.AuditOutcome {
	return entities.AuditOutcome{Artifact: artifact, Check: check, Status: entities.StatusPassed}
}

func (s *linkageService) failed(artifact entities.ArtifactRef, check string, err error) entities.AuditOutcome {
	return entities.AuditOutcome{Artifact: artifact, Check: check, Status: entities.StatusFailed, Err: err}
}
