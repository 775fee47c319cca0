// Package batch discovers the measured runs of an experiment on disk and
// loads them concurrently into problem runs. A run that fails to load is
// logged and excluded; it never aborts the batch.
package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Layout of a run directory:
//
//	<rundir>/opt_data/initial/<0..8>/
//	<rundir>/opt_data/<0..298>/{current,0,1,2}/
const (
	NumInitialSubsteps = 9
	NumSteps           = 299
	NumStepSubsteps    = 3
)

// Substep files.
const (
	DecisionsFile      = "decisions.yaml"
	ExecutionStatsFile = "execution_stats.yaml"
)

// Substep is one measured compilation of the program.
type Substep struct {
	// Dir is where the substep's files live.
	Dir string
	// Name identifies the substep independently of where the run directory
	// is mounted: <basename of rundir>/opt_data/<step>/<substep>.
	Name string
}

// IterateRundirs lists every existing substep directory of the given run
// directories, deduplicated and sorted by name.
func IterateRundirs(rundirs []string) []Substep {
	seen := make(map[Substep]bool)
	var out []Substep
	add := func(rundir string, parts ...string) {
		dir := filepath.Join(append([]string{rundir, "opt_data"}, parts...)...)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return
		}
		s := Substep{
			Dir:  dir,
			Name: filepath.Join(append([]string{filepath.Base(rundir), "opt_data"}, parts...)...),
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, rundir := range rundirs {
		for substep := 0; substep < NumInitialSubsteps; substep++ {
			add(rundir, "initial", strconv.Itoa(substep))
		}
		for step := 0; step < NumSteps; step++ {
			add(rundir, strconv.Itoa(step), "current")
			for substep := 0; substep < NumStepSubsteps; substep++ {
				add(rundir, strconv.Itoa(step), strconv.Itoa(substep))
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Dir < out[j].Dir
	})
	return out
}
