package entities

import "time"

// Policy carries the per-run audit flags.
type Policy struct {
	// Verbose enables informational logging for passing checks.
	Verbose bool
	// Autofix permits mutation of artifacts and filesystem state to
	// satisfy the audit, as opposed to read-only checking.
	Autofix bool
}

// ToolPaths names the external patch tools, overridable per config so a
// sandboxed root can point at its own copies.
type ToolPaths struct {
	Patchelf        string
	InstallNameTool string
}

// AuditConfig is the resolved configuration for a batch audit run.
type AuditConfig struct {
	Prefix      string
	Platform    Platform
	Policy      Policy
	Jobs        int
	LogDir      string
	Tools       ToolPaths
	ToolTimeout time.Duration
	// Exclude holds basename glob patterns; matching artifacts are
	// reported as skipped rather than audited.
	Exclude []string
	// Checksums enables recording each artifact's SHA-256 in the report.
	Checksums bool
}
