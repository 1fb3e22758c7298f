package entities

// AuditStatus is the terminal status of one audit operation.
type AuditStatus int

// Audit statuses.
const (
	StatusPassed AuditStatus = iota
	StatusFailed
	StatusSkipped
)

// String returns the status name.
func (s AuditStatus) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Audit check identifiers, reported alongside outcomes.
const (
	CheckCanonicalName = "canonical-name"
	CheckNameLink      = "name-link"
)

// AuditOutcome is the result of one audit operation on one artifact.
// Never mutated after creation.
type AuditOutcome struct {
	Artifact ArtifactRef
	Check    string
	Status   AuditStatus
	// Err carries the failure cause for StatusFailed outcomes; nil otherwise.
	Err error
	// LogPath points at the per-artifact diagnostic log, when one was written.
	LogPath string
}

// Passed reports whether the outcome is StatusPassed.
func (o AuditOutcome) Passed() bool { return o.Status == StatusPassed }
