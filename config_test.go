package imagecull

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.MinDimension != 512 || *cfg.HashDistanceThreshold != 6 {
		t.Errorf("defaults: min_dimension=%d hash_distance_threshold=%d", cfg.MinDimension, *cfg.HashDistanceThreshold)
	}
	if cfg.Saturation != DefaultSaturationThresholds() {
		t.Errorf("saturation defaults = %+v", cfg.Saturation)
	}
	if cfg.Grouping != GroupingAnchor || cfg.OnConflict != ConflictUniquify || cfg.Workers != 1 {
		t.Errorf("grouping=%q on_conflict=%q workers=%d", cfg.Grouping, cfg.OnConflict, cfg.Workers)
	}
	if !equalStrings(cfg.Extensions, DefaultExtensions) {
		t.Errorf("extensions = %v", cfg.Extensions)
	}
}

func TestLoadConfig_FromTOML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "imagecull.toml")
	content := `
root = "` + filepath.ToSlash(dir) + `"
extensions = ["JPG", ".png"]
min_dimension = 256
hash_distance_threshold = 4
grouping = "transitive"

[saturation]
low_sat_threshold = 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.MinDimension != 256 || *cfg.HashDistanceThreshold != 4 || cfg.Grouping != GroupingTransitive {
		t.Errorf("loaded %+v", cfg)
	}
	if !equalStrings(cfg.Extensions, []string{".jpg", ".png"}) {
		t.Errorf("extensions = %v, want [.jpg .png]", cfg.Extensions)
	}
	if cfg.Saturation.Low != 25 || cfg.Saturation.High != DefaultHighSatThreshold {
		t.Errorf("saturation = %+v, want low overridden and the rest default", cfg.Saturation)
	}
}

func TestLoadConfig_ZeroThresholdKept(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "imagecull.toml")
	if err := os.WriteFile(path, []byte("hash_distance_threshold = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := *cfg.HashDistanceThreshold; got != 0 {
		t.Errorf("hash_distance_threshold = %d, want 0", got)
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinDimension != DefaultMinDimension {
		t.Errorf("MinDimension = %d", cfg.MinDimension)
	}
}

func TestLoadConfig_ParseError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("min_dimension = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("LoadConfig() error = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "file.txt"), "x")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		notRoot bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }, notRoot: true},
		{name: "missing root", mutate: func(c *Config) { c.Root = filepath.Join(root, "nope") }, notRoot: true},
		{name: "root is a file", mutate: func(c *Config) { c.Root = file }, notRoot: true},
		{name: "bad algorithm", mutate: func(c *Config) { c.HashAlgorithm = "md5" }, wantErr: "hash_algorithm"},
		{name: "bad grouping", mutate: func(c *Config) { c.Grouping = "kmeans" }, wantErr: "grouping"},
		{name: "bad conflict", mutate: func(c *Config) { c.OnConflict = "rename" }, wantErr: "on_conflict"},
		{name: "exact match threshold", mutate: func(c *Config) { c.HashDistanceThreshold = Threshold(0) }},
		{name: "negative threshold", mutate: func(c *Config) { c.HashDistanceThreshold = Threshold(-1) }, wantErr: "hash_distance_threshold"},
		{name: "threshold too large", mutate: func(c *Config) { c.HashDistanceThreshold = Threshold(65) }, wantErr: "hash_distance_threshold"},
		{name: "quarantine is root", mutate: func(c *Config) { c.QuarantineDir = "." }, wantErr: "quarantine_dir"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.Root = root
			tc.mutate(&cfg)

			err := cfg.Validate()
			switch {
			case tc.notRoot:
				if !errors.Is(err, ErrRootNotFound) {
					t.Errorf("Validate() error = %v, want ErrRootNotFound", err)
				}
			case tc.wantErr != "":
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("Validate() error = %v, want mention of %q", err, tc.wantErr)
				}
			default:
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := toml.Unmarshal([]byte(SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Saturation != DefaultSaturationThresholds() || *cfg.HashDistanceThreshold != DefaultHashDistanceThreshold {
		t.Errorf("sample config drifted from defaults: %+v", cfg)
	}
}
