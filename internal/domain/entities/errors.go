package entities

import "fmt"

// ProbeError reports a file that could not be opened or parsed as a
// recognized container. It is recovered locally by the policy engine
// (treated as "name absent" with a warning) and never fatal.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// MissingNameError reports an artifact lacking a canonical name when the
// policy forbids mutation.
type MissingNameError struct {
	Path string
	Want string
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("%s: missing canonical name (expected %q, autofix disabled)", e.Path, e.Want)
}

// ToolError reports a failed external patch-tool invocation: nonzero exit,
// launch failure, or timeout.
type ToolError struct {
	Tool     string
	Path     string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s on %s failed (exit %d): %v", e.Tool, e.Path, e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// VerificationMismatchError reports that the post-fix re-probe disagrees
// with the name the patch tool was asked to assign. The tool claimed
// success; the binary says otherwise. Distinguished from a plain tool
// failure so logs can flag the trust violation.
type VerificationMismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *VerificationMismatchError) Error() string {
	got := e.Got
	if got == "" {
		got = "(absent)"
	}
	return fmt.Sprintf("%s: tool reported success but re-probe returned %s, wanted %q", e.Path, got, e.Want)
}

// FilesystemError reports a failed filesystem reconciliation step, such as
// symlink creation.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// MissingLinkError reports a canonical-named sibling path that does not
// exist when the policy forbids creating it.
type MissingLinkError struct {
	Path string
	Name string
}

func (e *MissingLinkError) Error() string {
	return fmt.Sprintf("%s: no filesystem entry for canonical name %q (autofix disabled)", e.Path, e.Name)
}
