// Package orchestrators coordinates services for complex use cases.
package orchestrators

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/gateways"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/services"
)

// AuditOrchestrator runs the audit/repair/reconcile sequence over a batch
// of artifacts. Each artifact is a self-contained unit of work with its
// own log sink; units share no mutable state, so the batch fans out over a
// bounded worker pool. No failure aborts the batch.
type AuditOrchestrator struct {
	linkage  services.LinkageService
	checksum gateways.ChecksumGateway
	sinks    interfaces.LogSinkFactory
}

// NewAuditOrchestrator creates a new audit orchestrator
func NewAuditOrchestrator(linkage services.LinkageService, checksum gateways.ChecksumGateway, sinks interfaces.LogSinkFactory) *AuditOrchestrator {
	return &AuditOrchestrator{
		linkage:  linkage,
		checksum: checksum,
		sinks:    sinks,
	}
}

// ArtifactResult is the complete result for one artifact in a batch.
type ArtifactResult struct {
	Artifact   entities.ArtifactRef
	Outcomes   []entities.AuditOutcome
	Checksum   string
	SkipReason string
	Duration   time.Duration
}

// Status folds the per-check outcomes into one artifact-level status.
func (r ArtifactResult) Status() entities.AuditStatus {
	if r.SkipReason != "" {
		return entities.StatusSkipped
	}
	for _, o := range r.Outcomes {
		if !o.Passed() {
			return entities.StatusFailed
		}
	}
	return entities.StatusPassed
}

// AuditReport aggregates a batch run. The caller decides whether a
// nonzero Failed count aborts the surrounding build.
type AuditReport struct {
	Results  []ArtifactResult
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// RunBatch audits every artifact under cfg. When links is true the
// filesystem name reconciliation runs after the canonical-name audit.
// Cancelling ctx stops dispatching new per-artifact units; the error
// returned is the context's, never a per-artifact failure.
func (o *AuditOrchestrator) RunBatch(ctx context.Context, artifacts []entities.ArtifactRef, cfg *entities.AuditConfig, links bool) (*AuditReport, error) {
	startTime := time.Now()
	results := make([]ArtifactResult, len(artifacts))

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, artifact := range artifacts {
		i, artifact := i, artifact
		g.Go(func() error {
			// Stop dispatching work once the batch is cancelled;
			// in-flight tool invocations wind down via their own context.
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.auditOne(gctx, artifact, cfg, links)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &AuditReport{
		Results:  results,
		Duration: time.Since(startTime),
	}
	for _, r := range results {
		switch r.Status() {
		case entities.StatusFailed:
			report.Failed++
		case entities.StatusSkipped:
			report.Skipped++
		default:
			report.Passed++
		}
	}
	return report, nil
}

// auditOne runs the full sequence for a single artifact.
func (o *AuditOrchestrator) auditOne(ctx context.Context, artifact entities.ArtifactRef, cfg *entities.AuditConfig, links bool) ArtifactResult {
	startTime := time.Now()
	result := ArtifactResult{Artifact: artifact}

	if pattern := matchExclude(artifact, cfg.Exclude); pattern != "" {
		result.SkipReason = "excluded by pattern " + pattern
		result.Duration = time.Since(startTime)
		return result
	}

	log, logPath, closeSink, err := o.sinks.NewSink(artifact.Basename())
	if err != nil {
		// Logging must never abort an audit.
		log = &interfaces.NoOpLogger{}
		closeSink = func() {}
		logPath = ""
	}
	defer closeSink()

	outcome := o.linkage.EnsureCanonicalName(ctx, artifact, cfg.Platform, cfg.Policy, log)
	outcome.LogPath = logPath
	result.Outcomes = append(result.Outcomes, outcome)

	if links {
		outcome := o.linkage.EnsureNameLink(artifact, cfg.Policy, log)
		outcome.LogPath = logPath
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if cfg.Checksums {
		sum, err := o.checksum.Calculate(artifact.Path)
		if err != nil {
			log.Warn("checksum calculation failed",
				interfaces.F("artifact", artifact.RelPath()),
				interfaces.F("error", err.Error()))
		} else {
			result.Checksum = sum
		}
	}

	result.Duration = time.Since(startTime)
	return result
}

func matchExclude(artifact entities.ArtifactRef, patterns []string) string {
	base := artifact.Basename()
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return pattern
		}
	}
	return ""
}
