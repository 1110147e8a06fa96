package imagecull

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrRootNotFound is returned when the dataset root is missing or not a directory.
var ErrRootNotFound = errors.New("imagecull: dataset root not found")

// SampleConfig returns the annotated TOML written by `imagecull config init`.
func SampleConfig() string {
	return sampleConfig
}

// LoadConfig reads a TOML file on top of DefaultConfig and normalises the
// result. Validation is left to Run, after command-line overrides.
// An empty path or a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.defaults()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize expands the root path and canonicalises extensions.
func (c *Config) normalize() error {
	if c.Root != "" {
		root, err := expandPath(c.Root)
		if err != nil {
			return err
		}
		c.Root = root
	}
	exts := make([]string, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Extensions = exts
	return nil
}

// Validate checks that the configuration can drive a run. The dataset root must
// exist; every other failure here is a malformed tunable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("%w: root must be set", ErrRootNotFound)
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootNotFound, c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, c.Root)
	}
	if len(c.Extensions) == 0 {
		return errors.New("extensions must not be empty")
	}
	if c.MinDimension < 1 {
		return errors.New("min_dimension must be positive")
	}
	if t := c.distanceThreshold(); t < 0 || t > 64 {
		return errors.New("hash_distance_threshold must be between 0 and 64")
	}
	switch c.HashAlgorithm {
	case HashPerception, HashDifference, HashAverage:
	default:
		return fmt.Errorf("hash_algorithm: unsupported value %q", c.HashAlgorithm)
	}
	switch c.Grouping {
	case GroupingAnchor, GroupingTransitive:
	default:
		return fmt.Errorf("grouping: unsupported value %q", c.Grouping)
	}
	switch c.OnConflict {
	case ConflictOverwrite, ConflictUniquify, ConflictFail:
	default:
		return fmt.Errorf("on_conflict: unsupported value %q", c.OnConflict)
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	q := c.quarantinePath()
	if rel, err := filepath.Rel(c.Root, q); err != nil || rel == "." {
		return fmt.Errorf("quarantine_dir %q must not be the dataset root", c.QuarantineDir)
	}
	return nil
}

// ExpandPath resolves "~" and returns an absolute, cleaned path.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
