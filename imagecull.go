package imagecull

import (
	"log/slog"
	"path/filepath"
)

// Defaults for every tunable. Zero values in Config are replaced with these by defaults().
const (
	DefaultMinDimension          = 512
	DefaultLowSatThreshold       = 30
	DefaultHighSatThreshold      = 100
	DefaultMidHighSatThreshold   = 55
	DefaultMidSatThreshold       = 30
	DefaultHighStdMin            = 60
	DefaultMidHighStdMin         = 30
	DefaultMidStdMin             = 20
	DefaultHashDistanceThreshold = 6
	DefaultQuarantineDir         = "quarantine"
)

// DefaultExtensions are the image suffixes recognised by the walker (matched case-insensitively).
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// Hash algorithms understood by HashFile.
const (
	HashPerception = "phash"
	HashDifference = "dhash"
	HashAverage    = "ahash"
)

// Grouping policies understood by the dedup stage.
const (
	GroupingAnchor     = "anchor"
	GroupingTransitive = "transitive"
)

// SaturationThresholds holds the tiered saturation policy boundaries.
// All comparisons are strict; a mean equal to a boundary falls through.
type SaturationThresholds struct {
	Low     float64 `toml:"low_sat_threshold"`      // mean below → quarantine
	High    float64 `toml:"high_sat_threshold"`     // mean above → std checked against HighStd
	MidHigh float64 `toml:"mid_high_sat_threshold"` // mean above → std checked against MidHighStd
	Mid     float64 `toml:"mid_sat_threshold"`      // mean above → std checked against MidStd

	HighStd    float64 `toml:"high_std_min"`
	MidHighStd float64 `toml:"mid_high_std_min"`
	MidStd     float64 `toml:"mid_std_min"`
}

// DefaultSaturationThresholds returns the stock tier boundaries.
func DefaultSaturationThresholds() SaturationThresholds {
	return SaturationThresholds{
		Low:        DefaultLowSatThreshold,
		High:       DefaultHighSatThreshold,
		MidHigh:    DefaultMidHighSatThreshold,
		Mid:        DefaultMidSatThreshold,
		HighStd:    DefaultHighStdMin,
		MidHighStd: DefaultMidHighStdMin,
		MidStd:     DefaultMidStdMin,
	}
}

// defaults fills each unset boundary on its own, so a partially populated
// struct keeps the stock value for every field it leaves zero.
func (t *SaturationThresholds) defaults() {
	if t.Low <= 0 {
		t.Low = DefaultLowSatThreshold
	}
	if t.High <= 0 {
		t.High = DefaultHighSatThreshold
	}
	if t.MidHigh <= 0 {
		t.MidHigh = DefaultMidHighSatThreshold
	}
	if t.Mid <= 0 {
		t.Mid = DefaultMidSatThreshold
	}
	if t.HighStd <= 0 {
		t.HighStd = DefaultHighStdMin
	}
	if t.MidHighStd <= 0 {
		t.MidHighStd = DefaultMidHighStdMin
	}
	if t.MidStd <= 0 {
		t.MidStd = DefaultMidStdMin
	}
}

// Threshold returns a pointer suitable for Config.HashDistanceThreshold.
func Threshold(n int) *int {
	return &n
}

// Logging configures the CLI logger. The library itself only uses Config.Logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds the dataset location, every filter tunable, and optional hooks.
type Config struct {
	Root          string   `toml:"root"`           // dataset root; required
	QuarantineDir string   `toml:"quarantine_dir"` // relative to Root unless absolute (default: "quarantine")
	Extensions    []string `toml:"extensions"`     // default: DefaultExtensions

	MinDimension int `toml:"min_dimension"` // default: 512

	Saturation SaturationThresholds `toml:"saturation"`

	HashDistanceThreshold *int   `toml:"hash_distance_threshold"` // nil = 6; 0 groups exact matches only
	HashAlgorithm         string `toml:"hash_algorithm"`          // phash (default), dhash, ahash
	Grouping              string `toml:"grouping"`                // anchor (default) or transitive
	AutoOrient            bool   `toml:"auto_orient"`             // apply EXIF orientation before hashing

	OnConflict ConflictPolicy `toml:"on_conflict"` // default: uniquify
	Workers    int            `toml:"workers"`     // subfolders hashed concurrently (default: 1)

	Logging Logging `toml:"logging"`

	// Logger receives progress and per-file failures (nil = slog.Default()).
	Logger *slog.Logger `toml:"-"`

	// Optional callback for every file moved into quarantine. Called from
	// several goroutines during dedup when Workers > 1.
	OnQuarantine func(QuarantineEvent) `toml:"-"`
}

// DefaultConfig returns a Config with every tunable populated.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.defaults()
	return cfg
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.QuarantineDir == "" {
		c.QuarantineDir = DefaultQuarantineDir
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if c.MinDimension <= 0 {
		c.MinDimension = DefaultMinDimension
	}
	c.Saturation.defaults()
	if c.HashDistanceThreshold == nil {
		c.HashDistanceThreshold = Threshold(DefaultHashDistanceThreshold)
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = HashPerception
	}
	if c.Grouping == "" {
		c.Grouping = GroupingAnchor
	}
	if c.OnConflict == "" {
		c.OnConflict = ConflictUniquify
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// distanceThreshold returns the effective Hamming distance cutoff.
func (c *Config) distanceThreshold() int {
	if c.HashDistanceThreshold == nil {
		return DefaultHashDistanceThreshold
	}
	return *c.HashDistanceThreshold
}

// quarantinePath resolves QuarantineDir against Root.
func (c *Config) quarantinePath() string {
	if filepath.IsAbs(c.QuarantineDir) {
		return filepath.Clean(c.QuarantineDir)
	}
	return filepath.Join(c.Root, c.QuarantineDir)
}

// walker builds a DirectoryWalker for the configured root.
func (c *Config) walker() *Walker {
	return &Walker{
		Root:       c.Root,
		Exclude:    c.quarantinePath(),
		Extensions: c.Extensions,
		Logger:     c.Logger,
	}
}
