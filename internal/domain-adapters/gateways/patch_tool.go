package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/gateways"
)

// Built-in tool names, used when the configuration does not override them.
const (
	defaultPatchelf        = "patchelf"
	defaultInstallNameTool = "install_name_tool"
)

// patchToolGateway rewrites an artifact's embedded identity by driving the
// platform family's patch tool through the runner collaborator. The tool
// runs outside this system's control: callers must re-probe to confirm the
// mutation took effect rather than trusting the exit status.
type patchToolGateway struct {
	runner  gateways.Runner
	tools   entities.ToolPaths
	timeout time.Duration
}

// NewPatchToolGateway creates a new patch tool gateway. Zero-value tool
// paths fall back to the bare tool names resolved via PATH; a zero timeout
// falls back to the runner's default.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewPatchToolGateway(runner gateways.Runner, tools entities.ToolPaths, timeout time.Duration) *patchToolGateway {
	return &patchToolGateway{runner: runner, tools: tools, timeout: timeout}
}

// SetCanonicalName invokes the patch tool selected by platform family to
// set the artifact's embedded identity to name. The tool's output is
// captured into the per-artifact log.
func (g *patchToolGateway) SetCanonicalName(ctx context.Context, artifact entities.ArtifactRef, platform entities.Platform, name string, log interfaces.Logger) error {
	argv, err := g.commandFor(artifact, platform, name)
	if err != nil {
		return err
	}

	var output strings.Builder
	result, runErr := g.runner.Run(ctx, gateways.Command{
		Argv:    argv,
		Timeout: g.timeout,
	}, &output)

	if out := strings.TrimSpace(output.String()); out != "" {
		log.Info("patch tool output", interfaces.F("tool", argv[0]), interfaces.F("output", out))
	}

	if runErr != nil {
		exitCode := -1
		if result != nil {
			exitCode = result.ExitCode
		}
		return &entities.ToolError{
			Tool:     argv[0],
			Path:     artifact.RelPath(),
			ExitCode: exitCode,
			Err:      runErr,
		}
	}
	return nil
}

// commandFor builds the tool invocation for the platform family.
func (g *patchToolGateway) commandFor(artifact entities.ArtifactRef, platform entities.Platform, name string) ([]string, error) {
	switch platform.Family() {
	case entities.FamilyDarwin:
		tool := g.tools.InstallNameTool
		if tool == "" {
			tool = defaultInstallNameTool
		}
		return []string{tool, "-id", name, artifact.Path}, nil
	case entities.FamilyLinux, entities.FamilyBSD:
		tool := g.tools.Patchelf
		if tool == "" {
			tool = defaultPatchelf
		}
		return []string{tool, "--set-soname", name, artifact.Path}, nil
	default:
		return nil, fmt.Errorf("no patch tool for platform %s", platform)
	}
}
