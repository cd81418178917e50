package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const stimulusCSV = `block,digit_l,digit_c,digit_r,is_target,is_order
1,1,5,9,1,1
1,8,2,6,0,0
2,2,5,9,0,1
2,9,5,2,0,-1
`

// writeFixtures creates a valid config and stimulus table in a temp dir.
func writeFixtures(t *testing.T) (configPath, stimuliPath string) {
	t.Helper()
	dir := t.TempDir()

	stimuliPath = filepath.Join(dir, "stimuli.csv")
	require.NoError(t, os.WriteFile(stimuliPath, []byte(stimulusCSV), 0o644))

	configPath = filepath.Join(dir, "task.yaml")
	cfg := fmt.Sprintf(`keys: {yes: d, no: a, pulse: s, quit: q}
timing:
  digit: 2
  info: 4
  isi_min: 3
  isi_max: 5
  isi_chunk: 0.5
  refresh_rate: 60
task:
  n_blocks: 2
  n_trials: 2
  stimulus_file: %s
training:
  fix: 1
  feedback: 1
  max_blocks: 2
  windows: [.inf, 2]
  hold_to_end: [false, true]
paths:
  log_dir: %s
  database: %s
`, stimuliPath, filepath.Join(dir, "logs"), filepath.Join(dir, "logs", "runs.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return configPath, stimuliPath
}
