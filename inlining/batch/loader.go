package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// ExecutionStats is the content of execution_stats.yaml.
type ExecutionStats struct {
	ExecutionTime float64 `yaml:"execution_time"`
}

// Skipped records a substep excluded from the batch and why.
type Skipped struct {
	Substep Substep
	Err     error
}

// Result is the outcome of loading a batch.
type Result struct {
	// Runs are sorted by execution directory.
	Runs    []problem.Run
	Skipped []Skipped
}

// Loader reads substeps with bounded concurrency.
type Loader struct {
	// Concurrency bounds the number of substeps read at once. Values <= 0
	// mean GOMAXPROCS.
	Concurrency int
}

// Load reads every substep. Failures to read, parse or relabel a substep
// exclude it from the result with a warning; only cancellation of ctx
// aborts the batch.
func (l Loader) Load(ctx context.Context, substeps []Substep) (*Result, error) {
	limit := l.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu  sync.Mutex
		res Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, s := range substeps {
		s := s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := LoadSubstep(s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logrus.Warnf("skipping %s: %v", s.Dir, err)
				res.Skipped = append(res.Skipped, Skipped{Substep: s, Err: err})
				return nil
			}
			res.Runs = append(res.Runs, run)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.Runs, func(i, j int) bool {
		return res.Runs[i].ExecutionDirectory < res.Runs[j].ExecutionDirectory
	})
	sort.Slice(res.Skipped, func(i, j int) bool {
		return res.Skipped[i].Substep.Name < res.Skipped[j].Substep.Name
	})
	logrus.Infof("Loaded %d training examples (%d skipped)", len(res.Runs), len(res.Skipped))
	return &res, nil
}

// LoadSubstep reads one substep's decision tree and execution time.
func LoadSubstep(s Substep) (problem.Run, error) {
	raw, err := inlining.LoadRawTree(filepath.Join(s.Dir, DecisionsFile))
	if err != nil {
		return problem.Run{}, err
	}
	tree, err := inlining.Relabel(raw)
	if err != nil {
		return problem.Run{}, err
	}
	stats, err := loadExecutionStats(filepath.Join(s.Dir, ExecutionStatsFile))
	if err != nil {
		return problem.Run{}, err
	}
	return problem.Run{ExecutionDirectory: s.Name, ExecutionTime: stats.ExecutionTime, Tree: tree}, nil
}

func loadExecutionStats(path string) (ExecutionStats, error) {
	var stats ExecutionStats
	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("reading execution stats: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&stats); err != nil {
		return stats, fmt.Errorf("parsing execution stats: %w", err)
	}
	if !(stats.ExecutionTime > 0) {
		return stats, fmt.Errorf("execution time must be positive, got %v", stats.ExecutionTime)
	}
	return stats, nil
}
