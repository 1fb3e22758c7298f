package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
)

// fakeProber returns a canned name per path and counts calls.
type fakeProber struct {
	names  map[string]string
	format entities.ContainerFormat
	err    error
	probes int
}

func (p *fakeProber) Probe(path string) (entities.ContainerFormat, string, error) {
	p.probes++
	if p.err != nil {
		return entities.FormatOther, "", p.err
	}
	return p.format, p.names[path], nil
}

// fakePatcher records invocations and optionally mutates the prober state
// to simulate a tool that really rewrites the binary.
type fakePatcher struct {
	prober   *fakeProber
	applies  bool
	err      error
	calls    int
	lastName string
}

func (f *fakePatcher) SetCanonicalName(_ context.Context, artifact entities.ArtifactRef, _ entities.Platform, name string, _ interfaces.Logger) error {
	f.calls++
	f.lastName = name
	if f.err != nil {
		return f.err
	}
	if f.applies {
		f.prober.names[artifact.Path] = name
	}
	return nil
}

var (
	linuxPlatform   = entities.ParsePlatform("linux-x86_64")
	windowsPlatform = entities.ParsePlatform("windows-x86_64")
)

func newFixture(names map[string]string) (*fakeProber, *fakePatcher, *linkageService) {
	prober := &fakeProber{names: names, format: entities.FormatELF}
	patcher := &fakePatcher{prober: prober, applies: true}
	svc := NewLinkageService(prober, patcher).(*linkageService)
	return prober, patcher, svc
}

func TestEnsureCanonicalName_WindowsSkips(t *testing.T) {
	prober, patcher, svc := newFixture(map[string]string{})
	artifact := entities.ArtifactRef{Path: "/out/foo.dll", Prefix: "/out"}

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, windowsPlatform, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusPassed {
		t.Errorf("Status = %v, want passed", outcome.Status)
	}
	if prober.probes != 0 {
		t.Errorf("probe called %d times on Windows, want 0", prober.probes)
	}
	if patcher.calls != 0 {
		t.Errorf("patch tool called %d times on Windows, want 0", patcher.calls)
	}
}

func TestEnsureCanonicalName_PresentPasses(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	_, patcher, svc := newFixture(map[string]string{artifact.Path: "libfoo.so.1"})

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if !outcome.Passed() {
		t.Errorf("Passed() = false (status %v), want passed", outcome.Status)
	}
	// An artifact that already has a canonical name never triggers a tool
	// call, regardless of autofix.
	if patcher.calls != 0 {
		t.Errorf("patch tool called %d times, want 0", patcher.calls)
	}
}

func TestEnsureCanonicalName_AbsentWithoutAutofixFails(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	_, patcher, svc := newFixture(map[string]string{})

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	var missing *entities.MissingNameError
	if !errors.As(outcome.Err, &missing) {
		t.Errorf("Err = %v, want MissingNameError", outcome.Err)
	}
	if patcher.calls != 0 {
		t.Errorf("patch tool called %d times without autofix, want 0", patcher.calls)
	}
}

func TestEnsureCanonicalName_AutofixAssignsBasename(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	prober, patcher, svc := newFixture(map[string]string{})

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusPassed {
		t.Fatalf("Status = %v, want passed (err: %v)", outcome.Status, outcome.Err)
	}
	if patcher.lastName != "libfoo.so" {
		t.Errorf("assigned name = %q, want artifact basename", patcher.lastName)
	}
	// Initial probe plus the post-fix read-back.
	if prober.probes != 2 {
		t.Errorf("probe called %d times, want 2", prober.probes)
	}
	if got := prober.names[artifact.Path]; got != "libfoo.so" {
		t.Errorf("post-fix name = %q, want %q", got, "libfoo.so")
	}
}

func TestEnsureCanonicalName_Idempotent(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	_, patcher, svc := newFixture(map[string]string{})
	policy := entities.Policy{Autofix: true}

	first := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, policy, &interfaces.NoOpLogger{})
	second := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, policy, &interfaces.NoOpLogger{})

	if first.Status != entities.StatusPassed || second.Status != entities.StatusPassed {
		t.Errorf("statuses = %v, %v, want passed, passed", first.Status, second.Status)
	}
	// The second run must find the name present and perform no tool call.
	if patcher.calls != 1 {
		t.Errorf("patch tool called %d times across two runs, want 1", patcher.calls)
	}
}

func TestEnsureCanonicalName_ReadBackDistrust(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	prober := &fakeProber{names: map[string]string{}, format: entities.FormatELF}
	// Tool claims success but never mutates the binary.
	patcher := &fakePatcher{prober: prober, applies: false}
	svc := NewLinkageService(prober, patcher).(*linkageService)

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	var mismatch *entities.VerificationMismatchError
	if !errors.As(outcome.Err, &mismatch) {
		t.Fatalf("Err = %v, want VerificationMismatchError", outcome.Err)
	}
	if mismatch.Want != "libfoo.so" || mismatch.Got != "" {
		t.Errorf("mismatch = want %q got %q, expected want libfoo.so got absent", mismatch.Want, mismatch.Got)
	}
}

func TestEnsureCanonicalName_ToolFailure(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	prober := &fakeProber{names: map[string]string{}, format: entities.FormatELF}
	toolErr := &entities.ToolError{Tool: "patchelf", Path: "lib/libfoo.so", ExitCode: 1, Err: errors.New("exit status 1")}
	patcher := &fakePatcher{prober: prober, err: toolErr}
	svc := NewLinkageService(prober, patcher).(*linkageService)

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	var te *entities.ToolError
	if !errors.As(outcome.Err, &te) {
		t.Errorf("Err = %v, want ToolError", outcome.Err)
	}
}

func TestEnsureCanonicalName_ProbeFailureTreatedAsAbsent(t *testing.T) {
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}
	prober := &fakeProber{err: &entities.ProbeError{Path: artifact.Path, Err: errors.New("truncated header")}}
	patcher := &fakePatcher{prober: prober}
	svc := NewLinkageService(prober, patcher).(*linkageService)

	outcome := svc.EnsureCanonicalName(context.Background(), artifact, linuxPlatform, entities.Policy{}, &interfaces.NoOpLogger{})

	// Probe failure is recovered as "absent": with autofix off that is a
	// plain missing-name failure, not a hard error.
	if outcome.Status != entities.StatusFailed {
		t.Errorf("Status = %v, want failed", outcome.Status)
	}
	var missing *entities.MissingNameError
	if !errors.As(outcome.Err, &missing) {
		t.Errorf("Err = %v, want MissingNameError", outcome.Err)
	}
}

func TestEnsureNameLink_AbsentNamePasses(t *testing.T) {
	_, _, svc := newFixture(map[string]string{})
	artifact := entities.ArtifactRef{Path: "/out/lib/libfoo.so", Prefix: "/out"}

	outcome := svc.EnsureNameLink(artifact, entities.Policy{}, &interfaces.NoOpLogger{})

	if !outcome.Passed() {
		t.Errorf("Passed() = false (status %v), want passed", outcome.Status)
	}
}

func TestEnsureNameLink_CreatesRelativeSymlink(t *testing.T) {
	tmpDir := t.TempDir()
	artifactPath := filepath.Join(tmpDir, "libfoo.so.1.2")
	if err := os.WriteFile(artifactPath, []byte("library bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	artifact := entities.ArtifactRef{Path: artifactPath, Prefix: tmpDir}
	_, _, svc := newFixture(map[string]string{artifactPath: "libfoo.so.1"})

	outcome := svc.EnsureNameLink(artifact, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusPassed {
		t.Fatalf("Status = %v, want passed (err: %v)", outcome.Status, outcome.Err)
	}

	linkPath := filepath.Join(tmpDir, "libfoo.so.1")
	target, err := os.Readlink(linkPath)
	if err != nil {
		t.Fatalf("Readlink(%s) failed: %v", linkPath, err)
	}
	if target != "libfoo.so.1.2" {
		t.Errorf("link target = %q, want relative basename", target)
	}

	// Resolving the canonical-named path yields the same content as the
	// artifact itself.
	got, err := os.ReadFile(linkPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "library bytes" {
		t.Errorf("content through link = %q, want artifact content", got)
	}
}

func TestEnsureNameLink_ExistingEntryPasses(t *testing.T) {
	tmpDir := t.TempDir()
	artifactPath := filepath.Join(tmpDir, "libfoo.so.1.2")
	siblingPath := filepath.Join(tmpDir, "libfoo.so.1")
	for _, p := range []string{artifactPath, siblingPath} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	artifact := entities.ArtifactRef{Path: artifactPath, Prefix: tmpDir}
	_, _, svc := newFixture(map[string]string{artifactPath: "libfoo.so.1"})

	outcome := svc.EnsureNameLink(artifact, entities.Policy{}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusPassed {
		t.Errorf("Status = %v, want passed", outcome.Status)
	}
}

func TestEnsureNameLink_MissingWithoutAutofixFails(t *testing.T) {
	tmpDir := t.TempDir()
	artifactPath := filepath.Join(tmpDir, "libfoo.so.1.2")
	if err := os.WriteFile(artifactPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	artifact := entities.ArtifactRef{Path: artifactPath, Prefix: tmpDir}
	_, _, svc := newFixture(map[string]string{artifactPath: "libfoo.so.1"})

	outcome := svc.EnsureNameLink(artifact, entities.Policy{}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	var missing *entities.MissingLinkError
	if !errors.As(outcome.Err, &missing) {
		t.Errorf("Err = %v, want MissingLinkError", outcome.Err)
	}

	// Fail-closed: no filesystem mutation happened.
	if _, err := os.Lstat(filepath.Join(tmpDir, "libfoo.so.1")); !os.IsNotExist(err) {
		t.Errorf("link was created without autofix")
	}
}

func TestEnsureNameLink_SymlinkFailure(t *testing.T) {
	tmpDir := t.TempDir()
	// The artifact's directory does not exist, so symlink creation fails.
	artifactPath := filepath.Join(tmpDir, "missing-dir", "libfoo.so.1.2")

	artifact := entities.ArtifactRef{Path: artifactPath, Prefix: tmpDir}
	_, _, svc := newFixture(map[string]string{artifactPath: "libfoo.so.1"})

	outcome := svc.EnsureNameLink(artifact, entities.Policy{Autofix: true}, &interfaces.NoOpLogger{})

	if outcome.Status != entities.StatusFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	var fsErr *entities.FilesystemError
	if !errors.As(outcome.Err, &fsErr) {
		t.Errorf("Err = %v, want FilesystemError", outcome.Err)
	}
}
