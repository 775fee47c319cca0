package problem

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// FormatVersion is bumped whenever the on-disk layout changes.
const FormatVersion = 1

// File names inside a problem directory.
const (
	PropertiesFile = "properties.yaml"
	RegistryFile   = "registry.yaml"
	RunsFile       = "runs.csv"
	EdgesFile      = "edges.csv"
)

// Properties is the problem header.
type Properties struct {
	Version  int `yaml:"format_version"`
	Depth    int `yaml:"depth"`
	NumRuns  int `yaml:"num_runs"`
	NumNodes int `yaml:"num_nodes"`
}

// registryEntry is one id -> path row of registry.yaml.
type registryEntry struct {
	ID   int              `yaml:"id"`
	Path inlining.PathKey `yaml:"path"`
}

var (
	runsColumns  = []string{"run", "execution_directory", "execution_time"}
	edgesColumns = []string{"run", "src", "dst", "kind"}
)

// Dump writes the problem to dir: the header and registry as YAML, runs and
// edges as CSV. dir is created if needed.
func (p *Problem) Dump(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating problem directory: %w", err)
	}

	props := Properties{Version: FormatVersion, Depth: p.Depth, NumRuns: p.NumRuns(), NumNodes: p.NumNodes()}
	if err := writeYAML(filepath.Join(dir, PropertiesFile), props); err != nil {
		return fmt.Errorf("writing problem properties: %w", err)
	}

	entries := make([]registryEntry, 0, p.NumNodes())
	for id, path := range p.Registry.Paths() {
		entries = append(entries, registryEntry{ID: id, Path: path})
	}
	if err := writeYAML(filepath.Join(dir, RegistryFile), entries); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}

	err := writeCSV(filepath.Join(dir, RunsFile), runsColumns, func(w *csv.Writer) error {
		for i := range p.ExecutionTimes {
			row := []string{
				strconv.Itoa(i),
				p.ExecutionDirectories[i],
				strconv.FormatFloat(p.ExecutionTimes[i], 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing run %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return writeCSV(filepath.Join(dir, EdgesFile), edgesColumns, func(w *csv.Writer) error {
		for run, edges := range p.EdgeLists {
			for _, e := range edges {
				row := []string{strconv.Itoa(run), strconv.Itoa(e.Src), strconv.Itoa(e.Dst), e.Kind.String()}
				if err := w.Write(row); err != nil {
					return fmt.Errorf("writing edge of run %d: %w", run, err)
				}
			}
		}
		return nil
	})
}

// Load reads a problem written by Dump and validates it: the registry must
// be a bijection onto 0..n-1 containing the root, and every run and edge
// must refer to known runs and ids.
func Load(dir string) (*Problem, error) {
	var props Properties
	if err := readYAML(filepath.Join(dir, PropertiesFile), &props); err != nil {
		return nil, fmt.Errorf("reading problem properties: %w", err)
	}
	if props.Version != FormatVersion {
		return nil, fmt.Errorf("problem format version %d, want %d", props.Version, FormatVersion)
	}

	var entries []registryEntry
	if err := readYAML(filepath.Join(dir, RegistryFile), &entries); err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	reg, err := registryFromEntries(entries)
	if err != nil {
		return nil, err
	}
	if reg.Len() != props.NumNodes {
		return nil, fmt.Errorf("registry has %d paths, properties say %d", reg.Len(), props.NumNodes)
	}

	p := &Problem{
		Registry:             reg,
		Depth:                props.Depth,
		ExecutionTimes:       make([]float64, props.NumRuns),
		ExecutionDirectories: make([]string, props.NumRuns),
		EdgeLists:            make([][]inlining.Edge, props.NumRuns),
	}

	seen := make([]bool, props.NumRuns)
	err = readCSV(filepath.Join(dir, RunsFile), runsColumns, func(row []string) error {
		run, err := parseRunIndex(row[0], props.NumRuns)
		if err != nil {
			return err
		}
		if seen[run] {
			return fmt.Errorf("run %d listed twice", run)
		}
		seen[run] = true
		t, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return fmt.Errorf("run %d: parsing execution time: %w", run, err)
		}
		p.ExecutionDirectories[run] = row[1]
		p.ExecutionTimes[run] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	for run, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("run %d missing from %s", run, RunsFile)
		}
	}

	err = readCSV(filepath.Join(dir, EdgesFile), edgesColumns, func(row []string) error {
		run, err := parseRunIndex(row[0], props.NumRuns)
		if err != nil {
			return err
		}
		src, err1 := strconv.Atoi(row[1])
		dst, err2 := strconv.Atoi(row[2])
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("run %d: parsing edge: %w", run, err)
		}
		kind, err := inlining.ParseKind(row[3])
		if err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
		p.EdgeLists[run] = append(p.EdgeLists[run], inlining.Edge{Src: src, Dst: dst, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func registryFromEntries(entries []registryEntry) (*inlining.Registry, error) {
	paths := make([]inlining.PathKey, len(entries))
	filled := make([]bool, len(entries))
	for _, e := range entries {
		if e.ID < 0 || e.ID >= len(entries) {
			return nil, fmt.Errorf("registry id %d outside [0, %d): %w", e.ID, len(entries), inlining.ErrIntegrity)
		}
		if filled[e.ID] {
			return nil, fmt.Errorf("registry id %d assigned twice: %w", e.ID, inlining.ErrIntegrity)
		}
		filled[e.ID] = true
		paths[e.ID] = e.Path
	}
	reg := inlining.NewRegistry()
	for id, path := range paths {
		if got := reg.Register(path); got != id {
			return nil, fmt.Errorf("path %s registered under ids %d and %d: %w", path, got, id, inlining.ErrIntegrity)
		}
	}
	if _, ok := reg.RootID(); !ok {
		return nil, fmt.Errorf("registry has no root path: %w", inlining.ErrIntegrity)
	}
	return reg, nil
}

func parseRunIndex(s string, numRuns int) (int, error) {
	run, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing run index: %w", err)
	}
	if run < 0 || run >= numRuns {
		return 0, fmt.Errorf("run %d outside [0, %d)", run, numRuns)
	}
	return run, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(v)
}

func writeCSV(path string, columns []string, rows func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := rows(writer); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

func readCSV(path string, columns []string, row func([]string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(columns)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("reading CSV header of %s: %w", filepath.Base(path), err)
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		if err := row(record); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
}
