// Package gateways defines interfaces for external collaborators of the
// linkage audit: the binary parsing capability, the patch tool, and the
// sandboxed command runner.
package gateways

import (
	"context"
	"io"
	"time"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
)

// LinkageProber reads the embedded canonical library name out of a compiled
// binary. Every call parses the file fresh: a repair step must re-probe to
// observe its own effect, so caching would be a correctness bug.
type LinkageProber interface {
	// Probe detects the artifact's container format and extracts its
	// canonical name. An empty name means the container carries no such
	// record ("absent"); FormatOther always probes to absent. A file that
	// cannot be opened or parsed yields a *entities.ProbeError.
	Probe(path string) (entities.ContainerFormat, string, error)
}

// CanonicalNamePatcher drives the external patch tool that rewrites an
// artifact's embedded identity. Implementations select the tool by platform
// family. The tool's claim of success is provisional; callers verify by
// re-probing.
type CanonicalNamePatcher interface {
	SetCanonicalName(ctx context.Context, artifact entities.ArtifactRef, platform entities.Platform, name string, log interfaces.Logger) error
}

// Command is one external tool invocation handed to a Runner.
type Command struct {
	Argv    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// RunResult reports how a command finished. ExitCode is -1 when the
// process could not be launched or was cut off by its timeout.
type RunResult struct {
	ExitCode int
	Duration time.Duration
}

// Runner executes a command to completion inside the caller's execution
// context, writing combined output to the given sink. This system never
// assumes process-level isolation details; a sandboxing runner satisfies
// the same interface as the plain subprocess default.
type Runner interface {
	Run(ctx context.Context, cmd Command, output io.Writer) (*RunResult, error)
}

// ArtifactScanner enumerates shared-object artifacts under an install
// prefix.
type ArtifactScanner interface {
	Scan(prefix string) ([]entities.ArtifactRef, error)
}

// ChecksumGateway computes and verifies artifact digests.
type ChecksumGateway interface {
	Calculate(path string) (string, error)
	VerifyAgainstFile(ctx context.Context, path, checksumFile string) error
}
