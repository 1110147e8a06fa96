package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-imagecull"
	"github.com/anatolykoptev/go-imagecull/internal/logging"
)

// runFlags mirrors the tunables that may be overridden on the command line.
type runFlags struct {
	quarantineDir string
	minDimension  int
	hashThreshold int
	hashAlgorithm string
	grouping      string
	onConflict    string
	workers       int
	autoOrient    bool
	logLevel      string
	logFormat     string
}

func newRunCommand(configPath *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [dataset-root]",
		Short: "Run the size, saturation and duplicate filters over a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := imagecull.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Root = args[0]
			}
			flags.apply(cmd, cfg)

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			cfg.Logger = logger

			report, err := cfg.Run(cmd.Context())
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.quarantineDir, "quarantine-dir", "", "Quarantine directory, relative to the dataset root unless absolute")
	f.IntVar(&flags.minDimension, "min-dimension", 0, "Minimum width and height in pixels")
	f.IntVar(&flags.hashThreshold, "hash-threshold", 0, "Maximum fingerprint Hamming distance treated as duplicate (0 = exact matches only)")
	f.StringVar(&flags.hashAlgorithm, "hash-algorithm", "", "Perceptual hash: phash, dhash or ahash")
	f.StringVar(&flags.grouping, "grouping", "", "Duplicate grouping: anchor or transitive")
	f.StringVar(&flags.onConflict, "on-conflict", "", "Existing quarantine destination: uniquify, overwrite or fail")
	f.IntVarP(&flags.workers, "workers", "j", 0, "Class folders deduplicated concurrently")
	f.BoolVar(&flags.autoOrient, "auto-orient", false, "Apply EXIF orientation before hashing")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")

	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *imagecull.Config) {
	changed := cmd.Flags().Changed
	if changed("quarantine-dir") {
		cfg.QuarantineDir = f.quarantineDir
	}
	if changed("min-dimension") {
		cfg.MinDimension = f.minDimension
	}
	if changed("hash-threshold") {
		cfg.HashDistanceThreshold = imagecull.Threshold(f.hashThreshold)
	}
	if changed("hash-algorithm") {
		cfg.HashAlgorithm = f.hashAlgorithm
	}
	if changed("grouping") {
		cfg.Grouping = f.grouping
	}
	if changed("on-conflict") {
		cfg.OnConflict = imagecull.ConflictPolicy(f.onConflict)
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("auto-orient") {
		cfg.AutoOrient = f.autoOrient
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}
