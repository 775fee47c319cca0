package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <problem-dir>",
	Short: "Print statistics of a formulated problem",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := problem.Load(args[0])
		if err != nil {
			logrus.Fatalf("Failed to load problem: %v", err)
		}
		if err := printSummary(cmd.OutOrStdout(), problem.Summarize(p)); err != nil {
			logrus.Fatalf("Failed to print summary: %v", err)
		}
	},
}

func printSummary(w io.Writer, s *problem.Summary) error {
	kinds := make([]inlining.Kind, 0, len(s.EdgesByKind))
	for k := range s.EdgesByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	if _, err := fmt.Fprintf(w, "Runs: %d (%d initial)\nNodes: %d\nDepth: %d\nEdges: %d\n",
		s.NumRuns, s.InitialRuns, s.NumNodes, s.Depth, s.NumEdges); err != nil {
		return err
	}
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", k, s.EdgesByKind[k]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Execution time: mean %g, min %g, max %g\n",
		s.MeanExecutionTime, s.MinExecutionTime, s.MaxExecutionTime)
	return err
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
