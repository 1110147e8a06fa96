package imagecull

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage names, in execution order.
const (
	StageSize       = "size"
	StageSaturation = "saturation"
	StageDedup      = "dedup"
)

const lockFileName = ".imagecull.lock"

// ErrLocked is returned when another run holds the dataset lock.
var ErrLocked = errors.New("imagecull: another run is in progress on this dataset")

// Outcome is the classification of one image within a stage.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeQuarantined
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeQuarantined:
		return "quarantined"
	default:
		return "pending"
	}
}

// ImageRecord is what a stage learned about one file. Records live only for
// the duration of the stage that produced them.
type ImageRecord struct {
	Path          string
	Width, Height int
	SatMean       float64
	SatStd        float64
	Fingerprint   Fingerprint
	Outcome       Outcome
}

// QuarantineEvent describes a single move into quarantine.
type QuarantineEvent struct {
	Stage       string
	Source      string
	Destination string
	Reason      string
	Record      ImageRecord
}

// StageReport counts what one stage did. Failed covers decode and move errors.
type StageReport struct {
	Name        string
	Scanned     int
	Passed      int
	Quarantined int
	Failed      int
	Groups      int
	Duration    time.Duration
}

// Report summarises a run.
type Report struct {
	RunID  string
	Root   string
	Stages []*StageReport
	Events []QuarantineEvent
}

// Quarantined returns the number of files moved across all stages.
func (r *Report) Quarantined() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Quarantined
	}
	return n
}

// Run executes the size, saturation and dedup stages in order. Each stage
// re-walks the dataset so it observes the moves made by the previous one.
// Only configuration and locking problems are returned as errors; per-file
// failures are logged and counted. A cancelled context stops the run between
// files and returns the partial report along with ctx.Err().
func (cfg *Config) Run(ctx context.Context) (*Report, error) {
	cfg.defaults()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	qdir := cfg.quarantinePath()
	if err := os.MkdirAll(qdir, 0o755); err != nil {
		return nil, fmt.Errorf("create quarantine directory: %w", err)
	}

	lock := flock.New(filepath.Join(qdir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := uuid.NewString()
	runCfg := *cfg
	runCfg.Logger = cfg.Logger.With("run_id", runID)

	r := &runner{
		cfg:    &runCfg,
		walker: runCfg.walker(),
		mover:  NewQuarantine(runCfg.Root, qdir, runCfg.OnConflict),
		report: &Report{RunID: runID, Root: runCfg.Root},
	}

	stages := []struct {
		name string
		run  func(context.Context, *StageReport) error
	}{
		{StageSize, r.sizeStage},
		{StageSaturation, r.saturationStage},
		{StageDedup, r.dedupStage},
	}

	log := runCfg.Logger
	log.Info("imagecull: run started", "root", runCfg.Root, "quarantine", qdir)
	for _, s := range stages {
		st := &StageReport{Name: s.name}
		r.report.Stages = append(r.report.Stages, st)

		start := time.Now()
		log.Info("imagecull: stage started", "stage", s.name)
		err := s.run(ctx, st)
		st.Duration = time.Since(start)
		log.Info("imagecull: stage finished",
			"stage", s.name,
			"scanned", st.Scanned,
			"quarantined", st.Quarantined,
			"failed", st.Failed,
			"duration", st.Duration,
		)
		if err != nil {
			return r.report, err
		}
	}
	log.Info("imagecull: run finished", "quarantined", r.report.Quarantined())

	return r.report, nil
}

type runner struct {
	cfg    *Config
	walker *Walker
	mover  *Quarantine

	mu     sync.Mutex
	report *Report
}

func (r *runner) sizeStage(ctx context.Context, st *StageReport) error {
	var err error
	r.walker.Each(func(_, path string) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		st.Scanned++

		res, cerr := r.cfg.CheckSize(path)
		if cerr != nil {
			r.cfg.Logger.Warn("imagecull: size check failed", "path", path, "error", cerr)
			st.Failed++
			return true
		}

		rec := ImageRecord{Path: path, Width: res.Width, Height: res.Height}
		if res.Undersized {
			r.quarantine(st, rec, fmt.Sprintf("undersized %dx%d (min %d)", res.Width, res.Height, r.cfg.MinDimension))
			return true
		}
		st.Passed++
		return true
	})
	return err
}

func (r *runner) saturationStage(ctx context.Context, st *StageReport) error {
	var err error
	r.walker.Each(func(_, path string) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		st.Scanned++

		v, cerr := r.cfg.CheckSaturation(path)
		if cerr != nil {
			r.cfg.Logger.Warn("imagecull: saturation check failed", "path", path, "error", cerr)
			st.Failed++
			return true
		}

		r.cfg.Logger.Debug("imagecull: saturation",
			"path", path, "mean", v.Mean, "std", v.Std, "tier", v.Tier)

		rec := ImageRecord{Path: path, SatMean: v.Mean, SatStd: v.Std}
		if v.Quarantine {
			reason := fmt.Sprintf("monotonous: mean saturation %.2f below %v", v.Mean, r.cfg.Saturation.Low)
			if v.Tier != TierLow {
				reason = fmt.Sprintf("monotonous: %s tier, saturation std %.2f below %v", v.Tier, v.Std, v.MinStd)
			}
			r.quarantine(st, rec, reason)
			return true
		}
		st.Passed++
		return true
	})
	return err
}

func (r *runner) dedupStage(ctx context.Context, st *StageReport) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, dir := range r.walker.ClassDirs() {
		g.Go(func() error {
			return r.dedupFolder(gctx, st, dir)
		})
	}
	return g.Wait()
}

// dedupFolder hashes and groups one folder. Folders never share state, so
// several may run at once.
func (r *runner) dedupFolder(ctx context.Context, st *StageReport, dir string) error {
	files := r.walker.ImageFiles(dir)
	hashed, err := r.cfg.HashFolder(ctx, files)
	if err != nil {
		return err
	}
	groups := r.cfg.Group(hashed)

	dups := 0
	for _, g := range groups {
		dups += len(g.Duplicates)
	}

	r.mu.Lock()
	st.Scanned += len(files)
	st.Failed += len(files) - len(hashed)
	st.Groups += len(groups)
	st.Passed += len(hashed) - dups
	r.mu.Unlock()

	moved := 0
	for _, g := range groups {
		for _, dup := range g.Duplicates {
			rec := ImageRecord{Path: dup.Path, Fingerprint: dup.Fingerprint}
			reason := fmt.Sprintf("duplicate of %s (distance %d)",
				filepath.Base(g.Anchor.Path), g.Anchor.Fingerprint.Distance(dup.Fingerprint))
			if r.quarantine(st, rec, reason) {
				moved++
			}
		}
	}

	r.cfg.Logger.Info("imagecull: folder deduplicated",
		"dir", dir, "hashed", len(hashed), "groups", len(groups), "quarantined", moved)
	return nil
}

// quarantine moves rec.Path and records the outcome. Move failures are logged
// and counted, never returned.
func (r *runner) quarantine(st *StageReport, rec ImageRecord, reason string) bool {
	dst, err := r.mover.Move(rec.Path)
	if err != nil {
		r.cfg.Logger.Warn("imagecull: quarantine failed", "stage", st.Name, "path", rec.Path, "error", err)
		r.mu.Lock()
		st.Failed++
		r.mu.Unlock()
		return false
	}

	rec.Outcome = OutcomeQuarantined
	ev := QuarantineEvent{Stage: st.Name, Source: rec.Path, Destination: dst, Reason: reason, Record: rec}
	r.cfg.Logger.Info("imagecull: quarantined", "stage", st.Name, "path", rec.Path, "dest", dst, "reason", reason)

	r.mu.Lock()
	st.Quarantined++
	r.report.Events = append(r.report.Events, ev)
	r.mu.Unlock()

	if r.cfg.OnQuarantine != nil {
		r.cfg.OnQuarantine(ev)
	}
	return true
}
