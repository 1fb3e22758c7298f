package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/nocturne-build/sofix/internal/domain-adapters/gateways"
	orchestrators "github.com/nocturne-build/sofix/internal/domain-orchestrators"
	"github.com/nocturne-build/sofix/internal/domain/entities"
	"github.com/nocturne-build/sofix/internal/domain/interfaces"
	"github.com/nocturne-build/sofix/internal/domain/interfaces/repositories"
	"github.com/nocturne-build/sofix/internal/domain/services"
	"github.com/nocturne-build/sofix/internal/external-adapters/yaml"
	"github.com/nocturne-build/sofix/internal/external-adapters/zaplog"
)

func runAudit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	opts := addBatchFlags(fs)
	links := fs.Bool("links", false, "Also reconcile filesystem entries for canonical names")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sofix audit [options]

Audit shared objects under an install prefix for embedded canonical
names (ELF SONAME, Mach-O install name). With --autofix, missing names
are assigned via the platform's patch tool and verified by re-reading
the artifact.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sofix audit --prefix /opt/out --platform linux-x86_64
  sofix audit --prefix /opt/out --autofix --links --jobs 8
  sofix audit --config audit.yml --verbose
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfg, err := resolveConfig(ctx, fs, opts, yaml.NewConfigRepository())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := executeBatch(ctx, cfg, *links); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// batchFlags holds the flag values shared by the audit and links commands.
type batchFlags struct {
	prefix          string
	platform        string
	configPath      string
	autofix         bool
	verbose         bool
	jobs            int
	logDir          string
	exclude         string
	checksums       bool
	patchelf        string
	installNameTool string
	toolTimeout     int
}

func addBatchFlags(fs *flag.FlagSet) *batchFlags {
	opts := &batchFlags{}
	fs.StringVar(&opts.prefix, "prefix", "", "Install prefix to audit (required unless set in config)")
	fs.StringVar(&opts.platform, "platform", "", "Target platform (e.g., linux-x86_64, darwin-arm64); default: host")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.autofix, "autofix", false, "Repair failing artifacts instead of only reporting")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log passing checks, not only failures")
	fs.IntVar(&opts.jobs, "jobs", 0, "Concurrent audit workers (default: number of CPUs)")
	fs.StringVar(&opts.logDir, "log-dir", "", "Directory for per-artifact log files")
	fs.StringVar(&opts.exclude, "exclude", "", "Comma-separated basename globs to skip")
	fs.BoolVar(&opts.checksums, "checksums", false, "Record SHA256 checksums in the report")
	fs.StringVar(&opts.patchelf, "patchelf", "", "Path to patchelf (default: resolved via PATH)")
	fs.StringVar(&opts.installNameTool, "install-name-tool", "", "Path to install_name_tool (default: resolved via PATH)")
	fs.IntVar(&opts.toolTimeout, "tool-timeout", 0, "Per-invocation patch tool timeout in seconds")
	return opts
}

// resolveConfig layers the resolved configuration: built-in defaults, then
// the config file, then any flag given explicitly on the command line.
func resolveConfig(ctx context.Context, fs *flag.FlagSet, opts *batchFlags, repo repositories.ConfigRepository) (*entities.AuditConfig, error) {
	cfg := repo.Defaults()
	if opts.configPath != "" {
		loaded, err := repo.Load(ctx, opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["prefix"] {
		cfg.Prefix = opts.prefix
	}
	if set["platform"] {
		cfg.Platform = entities.ParsePlatform(opts.platform)
	}
	if set["autofix"] {
		cfg.Policy.Autofix = opts.autofix
	}
	if set["verbose"] {
		cfg.Policy.Verbose = opts.verbose
	}
	if set["jobs"] {
		cfg.Jobs = opts.jobs
	}
	if set["log-dir"] {
		cfg.LogDir = opts.logDir
	}
	if set["exclude"] {
		cfg.Exclude = splitPatterns(opts.exclude)
	}
	if set["checksums"] {
		cfg.Checksums = opts.checksums
	}
	if set["patchelf"] {
		cfg.Tools.Patchelf = opts.patchelf
	}
	if set["install-name-tool"] {
		cfg.Tools.InstallNameTool = opts.installNameTool
	}
	if set["tool-timeout"] {
		cfg.ToolTimeout = time.Duration(opts.toolTimeout) * time.Second
	}

	if cfg.Prefix == "" {
		return nil, fmt.Errorf("--prefix is required (or set prefix in the config file)")
	}
	if cfg.Platform.OS == "" {
		cfg.Platform = entities.ParsePlatform(detectPlatform())
	}

	return cfg, nil
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// executeBatch wires the full audit stack and runs it over every
// shared-object artifact under the configured prefix.
func executeBatch(ctx context.Context, cfg *entities.AuditConfig, links bool) error {
	log, flush := zaplog.NewConsole(cfg.Policy.Verbose)
	defer flush()

	// Layer 1: Gateways (Infrastructure)
	scanner := gateways.NewArtifactScanner()
	prober := gateways.NewLinkageProber()
	runner := gateways.NewCommandRunner()
	patcher := gateways.NewPatchToolGateway(runner, cfg.Tools, cfg.ToolTimeout)

	// Layer 2: Service (Business Logic)
	linkage := services.NewLinkageService(prober, patcher)

	// Layer 3: Orchestrator (Use Case)
	orch := orchestrators.NewAuditOrchestrator(linkage, gateways.NewChecksumVerifier(), zaplog.NewFileSinkFactory(cfg.LogDir))

	artifacts, err := scanner.Scan(cfg.Prefix)
	if err != nil {
		return fmt.Errorf("scanning prefix: %w", err)
	}
	log.Info("audit starting",
		interfaces.F("prefix", cfg.Prefix),
		interfaces.F("platform", cfg.Platform.String()),
		interfaces.F("artifacts", len(artifacts)),
		interfaces.F("autofix", cfg.Policy.Autofix))

	report, err := orch.RunBatch(ctx, artifacts, cfg, links)
	if err != nil {
		return err
	}

	displayReport(report, cfg.Policy.Verbose)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed the audit", report.Failed, len(report.Results))
	}
	return nil
}

func displayReport(report *orchestrators.AuditReport, verbose bool) {
	for _, r := range report.Results {
		switch r.Status() {
		case entities.StatusFailed:
			for _, o := range r.Outcomes {
				if o.Status != entities.StatusFailed {
					continue
				}
				color.Danger.Printf("FAIL %s [%s]: %v\n", r.Artifact.RelPath(), o.Check, o.Err)
				if o.LogPath != "" {
					fmt.Printf("     log: %s\n", o.LogPath)
				}
			}
		case entities.StatusSkipped:
			if verbose {
				color.Note.Printf("SKIP %s: %s\n", r.Artifact.RelPath(), r.SkipReason)
			}
		default:
			if verbose {
				fmt.Printf("PASS %s", r.Artifact.RelPath())
				if r.Checksum != "" {
					fmt.Printf("  sha256=%s", r.Checksum)
				}
				fmt.Println()
			}
		}
	}

	fmt.Println(strings.Repeat("-", 48))
	color.Success.Printf("Passed:  %d\n", report.Passed)
	if report.Failed > 0 {
		color.Danger.Printf("Failed:  %d\n", report.Failed)
	}
	if report.Skipped > 0 {
		color.Note.Printf("Skipped: %d\n", report.Skipped)
	}
	fmt.Printf("Duration: %v\n", report.Duration.Round(time.Millisecond))
}
