package sourcekit

import (
	"strings"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Storage driver backing workspaces (local, memory)
	Driver string `env:"SOURCEKIT_DRIVER,default:local"`

	// Local driver configuration
	LocalBasePath string `env:"SOURCEKIT_LOCAL_BASE_PATH,default:./workspace"`

	// Number of files checked in parallel
	Concurrency int `env:"SOURCEKIT_CONCURRENCY,default:4"`

	// Postscript cleanup
	StripPreviews bool `env:"SOURCEKIT_STRIP_PREVIEWS,default:true"`
	StripTIFF     bool `env:"SOURCEKIT_STRIP_TIFF,default:true"`

	// Convert CR and CRLF line endings in text sources
	UnMacify bool `env:"SOURCEKIT_UNMACIFY,default:true"`

	// Archive extraction limits
	UnpackMaxFiles            int   `env:"SOURCEKIT_UNPACK_MAX_FILES,default:10000"`
	UnpackMaxUncompressedSize int64 `env:"SOURCEKIT_UNPACK_MAX_UNCOMPRESSED_SIZE,default:2147483648"` // 2GB

	// Globs of files always ignored, comma-separated
	IgnorePatterns string `env:"SOURCEKIT_IGNORE_PATTERNS"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Driver:                    "local",
		LocalBasePath:             "./workspace",
		Concurrency:               4,
		StripPreviews:             true,
		StripTIFF:                 true,
		UnMacify:                  true,
		UnpackMaxFiles:            10000,
		UnpackMaxUncompressedSize: 2 << 30,
	}
}

// Patterns splits IgnorePatterns into its globs.
func (c *Config) Patterns() []string {
	if c.IgnorePatterns == "" {
		return nil
	}
	parts := strings.Split(c.IgnorePatterns, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
