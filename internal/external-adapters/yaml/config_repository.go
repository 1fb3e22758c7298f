// Package yaml provides YAML-based audit configuration loading.
package yaml

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nocturne-build/sofix/internal/domain/entities"
)

// yamlConfig represents the raw YAML structure
type yamlConfig struct {
	Prefix             string    `yaml:"prefix"`
	Platform           string    `yaml:"platform"`
	Autofix            bool      `yaml:"autofix"`
	Verbose            bool      `yaml:"verbose"`
	Jobs               int       `yaml:"jobs"`
	LogDir             string    `yaml:"log_dir"`
	Tools              yamlTools `yaml:"tools"`
	ToolTimeoutSeconds int       `yaml:"tool_timeout_seconds"`
	Exclude            []string  `yaml:"exclude"`
	Checksums          bool      `yaml:"checksums"`
}

type yamlTools struct {
	Patchelf        string `yaml:"patchelf"`
	InstallNameTool string `yaml:"install_name_tool"`
}

// ConfigRepository implements repositories.ConfigRepository using YAML files
type ConfigRepository struct{}

// NewConfigRepository creates a new YAML-based config repository
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

// Defaults returns the built-in configuration used when no config file is
// supplied. The platform is left empty for the caller to fill from the
// running host.
func (r *ConfigRepository) Defaults() *entities.AuditConfig {
	return &entities.AuditConfig{
		Jobs:        runtime.NumCPU(),
		ToolTimeout: 2 * time.Minute,
	}
}

// Load reads the audit configuration from the named file, with defaults
// applied for unset fields.
func (r *ConfigRepository) Load(_ context.Context, path string) (*entities.AuditConfig, error) {
	//nolint:gosec // G304: config path is supplied by the invoking user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return r.parse(data)
}

func (r *ConfigRepository) parse(data []byte) (*entities.AuditConfig, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := r.Defaults()
	cfg.Prefix = raw.Prefix
	cfg.Platform = entities.ParsePlatform(raw.Platform)
	cfg.Policy = entities.Policy{Verbose: raw.Verbose, Autofix: raw.Autofix}
	cfg.LogDir = raw.LogDir
	cfg.Tools = entities.ToolPaths{
		Patchelf:        raw.Tools.Patchelf,
		InstallNameTool: raw.Tools.InstallNameTool,
	}
	cfg.Exclude = raw.Exclude
	cfg.Checksums = raw.Checksums

	if raw.Jobs > 0 {
		cfg.Jobs = raw.Jobs
	}
	if raw.ToolTimeoutSeconds > 0 {
		cfg.ToolTimeout = time.Duration(raw.ToolTimeoutSeconds) * time.Second
	}

	return cfg, nil
}
