// Package learn turns a Problem into a linear regression: hyperparameters,
// target benefits derived from execution times, the benefit-relation matrix
// with its participation masks, and the fitters that solve it.
package learn

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HyperParametersFile is written into every experiment directory.
const HyperParametersFile = "hyperparams.yaml"

// HyperParameters select how a problem is turned into a regression and
// how learned rewards are propagated back.
type HyperParameters struct {
	DecayFactor              float64         `yaml:"decay_factor"`
	RidgeFactor              float64         `yaml:"ridge_factor"`
	BenefitFunction          BenefitFunction `yaml:"benefit_function"`
	NormaliseWithNumChildren bool            `yaml:"normalise_with_num_children"`
}

// DirectoryName names the experiment directory for these hyperparameters.
func (hp HyperParameters) DirectoryName() string {
	return fmt.Sprintf("decay-%f-ridge-%f-benefit-%s", hp.DecayFactor, hp.RidgeFactor, hp.BenefitFunction)
}

// Validate returns an error if any field is out of range.
func (hp HyperParameters) Validate() error {
	if math.IsNaN(hp.DecayFactor) || math.IsInf(hp.DecayFactor, 0) || hp.DecayFactor < 0 {
		return fmt.Errorf("decay factor must be a finite value >= 0, got %v", hp.DecayFactor)
	}
	if math.IsNaN(hp.RidgeFactor) || math.IsInf(hp.RidgeFactor, 0) || hp.RidgeFactor < 0 {
		return fmt.Errorf("ridge factor must be a finite value >= 0, got %v", hp.RidgeFactor)
	}
	if !hp.BenefitFunction.Valid() {
		return fmt.Errorf("unknown benefit function %q; valid options: %v", hp.BenefitFunction, BenefitFunctions())
	}
	return nil
}

// SaveHyperParameters writes hp to dir/hyperparams.yaml.
func SaveHyperParameters(dir string, hp HyperParameters) error {
	data, err := yaml.Marshal(hp)
	if err != nil {
		return fmt.Errorf("marshaling hyperparameters: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, HyperParametersFile), data, 0644); err != nil {
		return fmt.Errorf("writing hyperparameters: %w", err)
	}
	return nil
}

// LoadHyperParameters reads and validates dir/hyperparams.yaml. Unknown keys
// are rejected.
func LoadHyperParameters(dir string) (HyperParameters, error) {
	var hp HyperParameters
	data, err := os.ReadFile(filepath.Join(dir, HyperParametersFile))
	if err != nil {
		return hp, fmt.Errorf("reading hyperparameters: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&hp); err != nil {
		return hp, fmt.Errorf("parsing hyperparameters: %w", err)
	}
	if err := hp.Validate(); err != nil {
		return hp, fmt.Errorf("invalid hyperparameters in %s: %w", dir, err)
	}
	return hp, nil
}
