package sourcekit

import (
	"errors"
	"fmt"

	"github.com/gobeaver/beaver-kit/config"
)

// Builder provides a way to create Workspace instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Config loads the configuration using the builder's prefix
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New creates a new Workspace using the builder's prefix
func (b *Builder) New(opts ...WorkspaceOption) (*Workspace, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// New creates a workspace over the storage driver named by cfg.
func New(cfg *Config, opts ...WorkspaceOption) (*Workspace, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fs, err := CreateDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	return NewWorkspace(fs, append([]WorkspaceOption{WithConfig(cfg)}, opts...)...)
}

// NewFromEnv creates a workspace from environment variables
func NewFromEnv(opts ...WorkspaceOption) (*Workspace, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalBasePath == "" {
			return errors.New("local base path is required for local driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.UnpackMaxFiles < 0 || cfg.UnpackMaxUncompressedSize < 0 {
		return errors.New("unpack limits must not be negative")
	}
	return nil
}
