package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Experiment describes how one benchmark is built and run.
type Experiment struct {
	BinName     string   `yaml:"bin_name"`
	Subdir      string   `yaml:"subdir"`
	BinArgs     string   `yaml:"bin_args,omitempty"`
	ModulePaths []string `yaml:"module_paths,omitempty"`
	BinFiles    []string `yaml:"bin_files,omitempty"`
}

// Catalog maps experiment names to their parameters, and the suffixes of
// search-script names to experiment names.
type Catalog struct {
	Experiments    map[string]Experiment `yaml:"experiments"`
	ScriptSuffixes map[string]string     `yaml:"script_suffixes"`
}

// ScriptPrefixes are the search strategies a batch script name may start with.
var ScriptPrefixes = []string{"mcts-", "simulated-annealing-", "random-walk-"}

const genericScript = "generic"

// LoadCatalog reads a catalog file. Unknown keys are rejected.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment catalog: %w", err)
	}
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing experiment catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every script suffix resolves to a known experiment.
func (c *Catalog) Validate() error {
	var errs []error
	for suffix, name := range c.ScriptSuffixes {
		if _, ok := c.Experiments[name]; !ok {
			errs = append(errs, fmt.Errorf("script suffix %q maps to unknown experiment %q", suffix, name))
		}
	}
	for name, e := range c.Experiments {
		if e.BinName == "" {
			errs = append(errs, fmt.Errorf("experiment %q has no bin_name", name))
		}
	}
	return errors.Join(errs...)
}

// Experiment looks up an experiment by name.
func (c *Catalog) Experiment(name string) (Experiment, error) {
	e, ok := c.Experiments[name]
	if !ok {
		return Experiment{}, fmt.Errorf("unknown experiment %q", name)
	}
	return e, nil
}

// ExperimentForScript resolves a batch script name to the experiment it
// ran. The script's base name is a search-strategy prefix followed either by
// a known suffix or by "generic <experiment>".
func (c *Catalog) ExperimentForScript(script string) (string, error) {
	base := filepath.Base(script)
	var suffix string
	found := false
	for _, prefix := range ScriptPrefixes {
		if rest, ok := strings.CutPrefix(base, prefix); ok {
			suffix, found = rest, true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("script %q has none of the prefixes %v", script, ScriptPrefixes)
	}

	if strings.HasPrefix(suffix, genericScript) {
		fields := strings.Split(suffix, " ")
		if len(fields) != 2 {
			return "", fmt.Errorf("script %q: want %q followed by one experiment name", script, genericScript)
		}
		if _, ok := c.Experiments[fields[1]]; !ok {
			return "", fmt.Errorf("script %q names unknown experiment %q", script, fields[1])
		}
		return fields[1], nil
	}
	name, ok := c.ScriptSuffixes[suffix]
	if !ok {
		return "", fmt.Errorf("script %q: unknown suffix %q", script, suffix)
	}
	return name, nil
}

// ReadBatchLog reads a batch log of (script name, run directory) CSV rows
// and returns the run directories of the given experiment. Each logged
// directory is looked up under every mount prefix and every existing
// location is returned; with no prefixes it is used as logged.
func ReadBatchLog(r io.Reader, experiment string, c *Catalog, mountPrefixes []string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	var rundirs []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading batch log: %w", err)
		}
		name, err := c.ExperimentForScript(row[0])
		if err != nil {
			return nil, err
		}
		if name != experiment {
			continue
		}
		candidates := []string{row[1]}
		if len(mountPrefixes) > 0 {
			candidates = candidates[:0]
			for _, prefix := range mountPrefixes {
				candidates = append(candidates, filepath.Join(prefix, row[1]))
			}
		}
		for _, dir := range candidates {
			if _, err := os.Stat(dir); err == nil {
				rundirs = append(rundirs, dir)
			} else {
				logrus.Debugf("run directory %s not found", dir)
			}
		}
	}
	return rundirs, nil
}

// ReadBatchLogFile is ReadBatchLog over a file.
func ReadBatchLogFile(path, experiment string, c *Catalog, mountPrefixes []string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadBatchLog(f, experiment, c, mountPrefixes)
}
