package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inlining-analysis/inlining-analysis/inlining/learn"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
	"github.com/inlining-analysis/inlining-analysis/inlining/report"
)

// inspectOptions are the inputs of the inspect command. Exactly one action
// is selected.
type inspectOptions struct {
	ProblemDir      string
	ExperimentDir   string
	OptInfo         bool
	OptimalDecision bool
	DumpRewards     bool
	InspectRewards  bool
	InspectRun      int // negative when not requested
}

func (o inspectOptions) numActions() int {
	n := 0
	for _, set := range []bool{o.OptInfo, o.OptimalDecision, o.DumpRewards, o.InspectRewards, o.InspectRun >= 0} {
		if set {
			n++
		}
	}
	return n
}

var (
	inspectOpts   inspectOptions
	inspectOutput string // Output file, stdout when empty
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report on a trained experiment",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if inspectOutput != "" {
			f, err := os.Create(inspectOutput)
			if err != nil {
				logrus.Fatalf("Failed to create output file: %v", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					logrus.Errorf("Failed to close output file: %v", err)
				}
			}()
			out = f
		}
		if err := inspect(cmd.Context(), inspectOpts, out); err != nil {
			logrus.Fatalf("Inspection failed: %v", err)
		}
	},
}

// loadModel reads a problem and the experiment trained on it.
func loadModel(ctx context.Context, problemDir, experimentDir string) (*report.Model, error) {
	p, err := problem.Load(problemDir)
	if err != nil {
		return nil, err
	}
	hp, err := learn.LoadHyperParameters(experimentDir)
	if err != nil {
		return nil, err
	}
	w, err := learn.LoadContributions(experimentDir)
	if err != nil {
		return nil, err
	}
	return report.NewModel(ctx, p, hp, w)
}

func inspect(ctx context.Context, opts inspectOptions, out io.Writer) error {
	if opts.ProblemDir == "" || opts.ExperimentDir == "" {
		return errors.New("--problem-dir and --experiment-dir are required")
	}
	if n := opts.numActions(); n != 1 {
		return fmt.Errorf("want exactly one of --opt-info, --optimal-decision, --dump-rewards, --inspect-rewards, --inspect-run; got %d", n)
	}
	m, err := loadModel(ctx, opts.ProblemDir, opts.ExperimentDir)
	if err != nil {
		return err
	}

	switch {
	case opts.OptInfo:
		return m.OptInfo().Write(out)
	case opts.OptimalDecision:
		prop, err := m.OptimalDecision()
		if err != nil {
			return err
		}
		logrus.Infof("Optimal decision value = %g", prop.RootValue())
		return report.WriteOptimalTree(out, prop.Tree)
	case opts.DumpRewards:
		entries, err := m.RewardReport()
		if err != nil {
			return err
		}
		return report.WriteRewardReport(out, entries)
	case opts.InspectRewards:
		tree, err := m.RewardTree()
		if err != nil {
			return err
		}
		return report.PrintTree(out, tree)
	default:
		ri, err := m.InspectRun(opts.InspectRun)
		if err != nil {
			return err
		}
		for _, id := range ri.Orphans {
			logrus.Warnf("Node %d participates beneath a node that does not", id)
		}
		return ri.Write(out)
	}
}

func init() {
	inspectCmd.Flags().StringVar(&inspectOpts.ProblemDir, "problem-dir", "", "Problem directory written by formulate")
	inspectCmd.Flags().StringVar(&inspectOpts.ExperimentDir, "experiment-dir", "", "Experiment directory written by fit")
	inspectCmd.Flags().BoolVar(&inspectOpts.OptInfo, "opt-info", false, "Print fit statistics")
	inspectCmd.Flags().BoolVar(&inspectOpts.OptimalDecision, "optimal-decision", false, "Write the optimal decision tree as YAML")
	inspectCmd.Flags().BoolVar(&inspectOpts.DumpRewards, "dump-rewards", false, "Write every node's learned rewards as YAML")
	inspectCmd.Flags().BoolVar(&inspectOpts.InspectRewards, "inspect-rewards", false, "Print the reward tree")
	inspectCmd.Flags().IntVar(&inspectOpts.InspectRun, "inspect-run", -1, "Print how one run projects onto the learned rewards")
	inspectCmd.Flags().StringVar(&inspectOutput, "output", "", "Write to this file instead of stdout")
	_ = inspectCmd.MarkFlagRequired("problem-dir")
	_ = inspectCmd.MarkFlagRequired("experiment-dir")

	rootCmd.AddCommand(inspectCmd)
}
