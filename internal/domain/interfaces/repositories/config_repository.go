// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/nocturne-build/sofix/internal/domain/entities"
)

// ConfigRepository defines the interface for loading audit configuration.
type ConfigRepository interface {
	// Load reads the audit configuration from the named file, with
	// defaults applied for unset fields.
	Load(ctx context.Context, path string) (*entities.AuditConfig, error)

	// Defaults returns the built-in configuration used when no config
	// file is supplied.
	Defaults() *entities.AuditConfig
}
