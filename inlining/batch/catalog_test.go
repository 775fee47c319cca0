package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
experiments:
  almabench:
    bin_name: almabench
    subdir: normal/almabench
    bin_args: "23"
    module_paths: [almabench]
  floats-in-functor:
    bin_name: b
    subdir: normal/floats_in_functor
    module_paths: [a, b]
script_suffixes:
  almabench: almabench
  float_in_functor: floats-in-functor
  floats-in-functor: floats-in-functor
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCatalog_ReadsExperiments(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)

	e, err := c.Experiment("floats-in-functor")
	require.NoError(t, err)
	assert.Equal(t, "b", e.BinName)
	assert.Equal(t, []string{"a", "b"}, e.ModulePaths)

	_, err = c.Experiment("missing")
	assert.Error(t, err)
}

func TestLoadCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":            catalogYAML + "extra: 1\n",
		"dangling suffix":        "experiments: {}\nscript_suffixes: {x: nowhere}\n",
		"experiment without bin": "experiments: {x: {subdir: s}}\nscript_suffixes: {}\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, content))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_ExperimentForScript(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)

	tests := []struct {
		script  string
		want    string
		wantErr bool
	}{
		{"/scripts/mcts-almabench", "almabench", false},
		{"simulated-annealing-float_in_functor", "floats-in-functor", false},
		{"random-walk-generic almabench", "almabench", false},
		{"random-walk-generic unknown", "", true},
		{"mcts-generic", "", true},
		{"genetic-almabench", "", true},
		{"mcts-fft", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := c.ExperimentForScript(tt.script)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBatchLog_FiltersByExperimentAndMounts(t *testing.T) {
	// GIVEN run a mirrored on two mounts and run b on one
	c, err := LoadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)
	root := t.TempDir()
	usb, usb2 := filepath.Join(root, "usb"), filepath.Join(root, "usb2")
	mkdirs(t, usb, "runs/a", "runs/b", "runs/c")
	mkdirs(t, usb2, "runs/a")
	log := strings.Join([]string{
		"mcts-almabench,/runs/a",
		"simulated-annealing-almabench,/runs/b",
		"mcts-floats-in-functor,/runs/c",
		"mcts-almabench,/runs/gone",
	}, "\n") + "\n"

	// WHEN read for almabench
	got, err := ReadBatchLog(strings.NewReader(log), "almabench", c, []string{usb, usb2})
	require.NoError(t, err)

	// THEN every existing location of almabench runs is returned
	assert.Equal(t, []string{
		filepath.Join(usb, "runs", "a"),
		filepath.Join(usb2, "runs", "a"),
		filepath.Join(usb, "runs", "b"),
	}, got)
}

func TestReadBatchLog_UnknownScript_ReturnsError(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)
	_, err = ReadBatchLog(strings.NewReader("make-almabench,/x\n"), "almabench", c, nil)
	assert.Error(t, err)
}
