package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/allocscope/internal/aggregate"
	"github.com/roach88/allocscope/internal/catalog"
	"github.com/roach88/allocscope/internal/inspect"
	"github.com/roach88/allocscope/internal/manifest"
	"github.com/roach88/allocscope/internal/report"
	"github.com/roach88/allocscope/internal/store"
)

// DefaultOracleCacheSize bounds the is-executable cache.
const DefaultOracleCacheSize = 4096

// Options configures a Pipeline.
type Options struct {
	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Clock is passed to the inspection runner. Defaults to inspect.SystemClock.
	Clock inspect.Clock

	// RunIDs defaults to UUIDv7Generator.
	RunIDs RunIDGenerator

	// OracleCacheSize defaults to DefaultOracleCacheSize.
	OracleCacheSize int
}

// Pipeline executes a manifest.
type Pipeline struct {
	manifest *manifest.Manifest
	runner   *inspect.Runner
	oracle   *catalog.CachedOracle
	logger   *slog.Logger
	runIDs   RunIDGenerator
}

// New validates the setup described by m: the tool must exist, the
// oracle must be known and no report may land among the result stores.
func New(m *manifest.Manifest, opts Options) (*Pipeline, error) {
	if errs := m.Validate(); len(errs) > 0 {
		return nil, manifest.ValidationErrors(errs)
	}
	for _, path := range []string{m.CombinedPath(), m.FlattenedPath()} {
		if report.ShadowsStore(m.ResultsDir, path) {
			return nil, fmt.Errorf("report %s would be read as a result store of %s", path, m.ResultsDir)
		}
	}
	timeout, err := m.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = UUIDv7Generator{}
	}
	cacheSize := opts.OracleCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultOracleCacheSize
	}

	runner, err := inspect.NewRunner(m.Tool, inspect.Options{
		Workers: m.Workers,
		Timeout: timeout,
		Clock:   opts.Clock,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	base, err := catalog.NewOracle(m.Oracle)
	if err != nil {
		return nil, err
	}
	oracle, err := catalog.NewCachedOracle(base, cacheSize)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		manifest: m,
		runner:   runner,
		oracle:   oracle,
		logger:   logger,
		runIDs:   runIDs,
	}, nil
}

// Discovery is the set of executables found for one repository.
type Discovery struct {
	Repository string   `json:"repository"`
	Paths      []string `json:"paths"`
}

// Discover runs the catalog for every repository without inspecting.
func (p *Pipeline) Discover() ([]Discovery, error) {
	out := make([]Discovery, 0, len(p.manifest.Repositories))
	for _, repo := range p.manifest.Repositories {
		paths, err := catalog.Discover(repo.Roots, repo.Filter, p.oracle)
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
		}
		out = append(out, Discovery{Repository: repo.Name, Paths: paths})
	}
	return out, nil
}

// RepositoryResult summarizes one repository of a run.
type RepositoryResult struct {
	Name      string `json:"name"`
	StorePath string `json:"store"`
	Targets   int    `json:"targets"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`

	// Complete is false when the run was cancelled before every target of
	// the repository was inspected. Such a store has no reserved rows.
	Complete bool `json:"complete"`

	Store *store.Store `json:"-"`
}

// Result describes a finished (or cancelled) run.
type Result struct {
	RunID        string             `json:"run_id"`
	Repositories []RepositoryResult `json:"repositories"`
	Combined     string             `json:"combined,omitempty"`
	Flattened    string             `json:"flattened,omitempty"`
	Cancelled    bool               `json:"cancelled"`
}

// Run inspects every repository of the manifest in order, writes one
// store per repository and then the cross-repository reports.
//
// Per-target tool failures never fail the run. Structural errors (an
// unreadable root, a store that cannot be written) abort it. When ctx is
// cancelled the rows already produced are flushed without reserved rows,
// no reports are written, and Run returns the partial Result with ctx's
// error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := p.runIDs.Generate()
	logger := p.logger.With("run_id", runID)
	runner := p.runner.WithLogger(logger)
	res := &Result{RunID: runID}

	if err := os.MkdirAll(p.manifest.ResultsDir, 0o755); err != nil {
		return res, fmt.Errorf("create results directory: %w", err)
	}
	logger.Info("run started",
		"tool", runner.Tool(),
		"repositories", len(p.manifest.Repositories),
		"workers", p.manifest.Workers,
	)

	var stores []report.Named
	for _, repo := range p.manifest.Repositories {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		rr, err := p.runRepository(ctx, runner, logger, repo)
		if rr != nil {
			res.Repositories = append(res.Repositories, *rr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Cancelled = true
			break
		}
		if err != nil {
			return res, err
		}
		stores = append(stores, report.Named{Name: repo.Name, Store: rr.Store})
	}

	if res.Cancelled {
		logger.Warn("run cancelled; reports not written", "repositories_done", len(stores))
		return res, ctx.Err()
	}

	if err := p.writeReports(stores, res); err != nil {
		return res, err
	}
	logger.Info("run finished",
		"repositories", len(res.Repositories),
		"combined", res.Combined,
		"flattened", res.Flattened,
	)
	return res, nil
}

func (p *Pipeline) runRepository(ctx context.Context, runner *inspect.Runner, logger *slog.Logger, repo manifest.Repository) (*RepositoryResult, error) {
	logger = logger.With("repository", repo.Name)

	targets, err := catalog.Discover(repo.Roots, repo.Filter, p.oracle)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
	}
	logger.Info("discovered executables",
		"count", len(targets),
		"classified", p.oracle.Len(),
	)

	rows, inspectErr := runner.Inspect(ctx, targets)
	s, err := store.New(rows)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
	}
	for _, pair := range s.Equivalents() {
		logger.Warn("executables differ only in Unicode normalization",
			"first", pair.First,
			"second", pair.Second,
		)
	}

	rr := &RepositoryResult{
		Name:      repo.Name,
		StorePath: p.manifest.StorePath(repo.Name),
		Targets:   len(targets),
		Succeeded: len(s.Successes()),
		Failed:    s.Failures(),
		Complete:  inspectErr == nil,
	}

	if inspectErr == nil {
		// Every inspection for this store has completed.
		s, err = aggregate.Recompute(s)
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
		}
	}
	rr.Store = s

	if err := store.WriteFile(rr.StorePath, s); err != nil {
		return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
	}
	logger.Info("store written",
		"path", rr.StorePath,
		"succeeded", rr.Succeeded,
		"failed", rr.Failed,
		"complete", rr.Complete,
	)
	return rr, inspectErr
}

func (p *Pipeline) writeReports(stores []report.Named, res *Result) error {
	table, err := report.Combine(stores)
	if err != nil {
		return err
	}

	combined := p.manifest.CombinedPath()
	flattened := p.manifest.FlattenedPath()
	for _, path := range []string{combined, flattened} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	if err := report.WriteSummaries(combined, table); err != nil {
		return err
	}
	if err := report.WriteFlattened(flattened, report.Flatten(stores, p.manifest.Report.Group)); err != nil {
		return err
	}
	res.Combined = combined
	res.Flattened = flattened
	return nil
}
