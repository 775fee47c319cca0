package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inlining-analysis/inlining-analysis/inlining/batch"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// debugSubsteps bounds how many substeps --debug loads.
const debugSubsteps = 10

// formulateOptions are the inputs of the formulate command.
type formulateOptions struct {
	OutputDir      string
	Rundirs        []string
	BatchLog       string
	ExperimentName string
	CatalogPath    string
	MountPrefixes  []string
	Concurrency    int
	DryRun         bool
	Debug          bool
}

var formulateOpts formulateOptions

var formulateCmd = &cobra.Command{
	Use:   "formulate",
	Short: "Build a learning problem from the measured runs of an experiment",
	Long: "Load every substep of the given run directories (or of the run directories a batch log lists for one experiment), " +
		"assign a shared id to every node across runs and write the problem to --output-dir.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := formulate(cmd.Context(), formulateOpts, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Formulation failed: %v", err)
		}
	},
}

// resolveRundirs returns the run directories named by the options.
func resolveRundirs(opts formulateOptions) ([]string, error) {
	switch {
	case len(opts.Rundirs) > 0 && opts.BatchLog != "":
		return nil, errors.New("--rundir and --batch-log are mutually exclusive")
	case len(opts.Rundirs) > 0:
		return opts.Rundirs, nil
	case opts.BatchLog == "":
		return nil, errors.New("one of --rundir or --batch-log is required")
	case opts.ExperimentName == "":
		return nil, errors.New("--batch-log requires --experiment-name")
	}

	catalog, err := batch.LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	experiment, err := catalog.Experiment(opts.ExperimentName)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Experiment %s: bin_name = %s, subdir = %s", opts.ExperimentName, experiment.BinName, experiment.Subdir)
	rundirs, err := batch.ReadBatchLogFile(opts.BatchLog, opts.ExperimentName, catalog, opts.MountPrefixes)
	if err != nil {
		return nil, err
	}
	if len(rundirs) == 0 {
		return nil, fmt.Errorf("batch log %s lists no existing run directory for %s", opts.BatchLog, opts.ExperimentName)
	}
	return rundirs, nil
}

func formulate(ctx context.Context, opts formulateOptions, out io.Writer) error {
	if opts.OutputDir == "" && !opts.DryRun {
		return errors.New("--output-dir is required")
	}
	rundirs, err := resolveRundirs(opts)
	if err != nil {
		return err
	}

	substeps := batch.IterateRundirs(rundirs)
	logrus.Infof("Found %d substeps in %d run directories", len(substeps), len(rundirs))
	loader := batch.Loader{Concurrency: opts.Concurrency}
	if opts.Debug {
		if len(substeps) > debugSubsteps {
			substeps = substeps[:debugSubsteps]
		}
		loader.Concurrency = 1
	}
	if opts.DryRun {
		for _, s := range substeps {
			if _, err := fmt.Fprintln(out, s.Dir); err != nil {
				return err
			}
		}
		return nil
	}

	res, err := loader.Load(ctx, substeps)
	if err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		logrus.Warnf("Skipped %d of %d substeps", len(res.Skipped), len(substeps))
	}
	p, err := problem.Formulate(ctx, res.Runs)
	if err != nil {
		return err
	}
	if err := p.Dump(opts.OutputDir); err != nil {
		return err
	}
	logrus.Infof("Wrote problem with %d runs and %d nodes to %s", p.NumRuns(), p.NumNodes(), opts.OutputDir)
	return nil
}

func init() {
	formulateCmd.Flags().StringVar(&formulateOpts.OutputDir, "output-dir", "", "Directory to write the problem to")
	formulateCmd.Flags().StringArrayVar(&formulateOpts.Rundirs, "rundir", nil, "Run directory to load (can be repeated)")
	formulateCmd.Flags().StringVar(&formulateOpts.BatchLog, "batch-log", "", "CSV log of (script, run directory) rows to take run directories from")
	formulateCmd.Flags().StringVar(&formulateOpts.ExperimentName, "experiment-name", "", "Experiment whose runs to take from --batch-log")
	formulateCmd.Flags().StringVar(&formulateOpts.CatalogPath, "catalog", "experiments.yaml", "Experiment catalog used to resolve --batch-log scripts")
	formulateCmd.Flags().StringArrayVar(&formulateOpts.MountPrefixes, "mount-prefix", nil, "Directory under which logged run directories are mounted (can be repeated)")
	formulateCmd.Flags().IntVar(&formulateOpts.Concurrency, "concurrency", 0, "Substeps loaded at once (0 = GOMAXPROCS)")
	formulateCmd.Flags().BoolVar(&formulateOpts.DryRun, "dry-run", false, "List the substeps that would be loaded and exit")
	formulateCmd.Flags().BoolVar(&formulateOpts.Debug, "debug", false, "Load only the first few substeps, one at a time")

	rootCmd.AddCommand(formulateCmd)
}
