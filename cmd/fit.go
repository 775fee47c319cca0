package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inlining-analysis/inlining-analysis/inlining/learn"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

var (
	fitHyperParameters learn.HyperParameters
	benefitFunction    string // Target benefit function name
	fitModel           string // Fitter name
	fitForce           bool   // Refit even if contributions exist
)

var fitCmd = &cobra.Command{
	Use:   "fit <problem-dir>",
	Short: "Learn per-node contributions for a problem",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hp := fitHyperParameters
		hp.BenefitFunction = learn.BenefitFunction(benefitFunction)
		dir, err := fit(cmd.Context(), args[0], fitModel, hp, fitForce)
		if err != nil {
			logrus.Fatalf("Fitting failed: %v", err)
		}
		logrus.Infof("Experiment directory: %s", dir)
	},
}

// fit trains a model on the problem in problemDir and stores it in the
// experiment directory implied by model and hp, which it returns. Existing
// contributions are kept unless force is set.
func fit(ctx context.Context, problemDir, model string, hp learn.HyperParameters, force bool) (string, error) {
	if err := hp.Validate(); err != nil {
		return "", err
	}
	fitter, err := learn.NewFitter(model, hp.RidgeFactor)
	if err != nil {
		return "", err
	}

	dir := learn.ExperimentDirectory(problemDir, model, hp)
	if _, err := os.Stat(filepath.Join(dir, learn.ContributionsFile)); err == nil && !force {
		logrus.Infof("Contributions already exist in %s, skipping", dir)
		return dir, nil
	}

	p, err := problem.Load(problemDir)
	if err != nil {
		return "", err
	}
	sol, err := learn.Train(ctx, p, hp, fitter)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating experiment directory: %w", err)
	}
	if err := learn.SaveHyperParameters(dir, hp); err != nil {
		return "", err
	}
	if err := learn.SaveContributions(dir, sol.Contributions); err != nil {
		return "", err
	}
	return dir, nil
}

func init() {
	fitCmd.Flags().Float64Var(&fitHyperParameters.DecayFactor, "decay-factor", 0, "Weight of a child's value relative to its parent's")
	fitCmd.Flags().Float64Var(&fitHyperParameters.RidgeFactor, "ridge-factor", 0, "Regularisation strength")
	fitCmd.Flags().StringVar(&benefitFunction, "benefit-function", "", fmt.Sprintf("Target benefit function, one of %v", learn.BenefitFunctions()))
	fitCmd.Flags().BoolVar(&fitHyperParameters.NormaliseWithNumChildren, "normalise", false, "Divide children's values by their count")
	fitCmd.Flags().StringVar(&fitModel, "model", learn.ModelRidge, fmt.Sprintf("Fitter, one of %v", learn.ValidModels()))
	fitCmd.Flags().BoolVar(&fitForce, "force", false, "Refit even if the experiment directory has contributions")
	_ = fitCmd.MarkFlagRequired("decay-factor")
	_ = fitCmd.MarkFlagRequired("ridge-factor")
	_ = fitCmd.MarkFlagRequired("benefit-function")

	rootCmd.AddCommand(fitCmd)
}
