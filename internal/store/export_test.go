package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTrialsCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrialsCSV(&buf, sampleLog().Records))

	g := goldie.New(t)
	g.Assert(t, "trials_csv", buf.Bytes())
}

func TestWritePulsesCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePulsesCSV(&buf, samplePulses()))

	g := goldie.New(t)
	g.Assert(t, "pulses_csv", buf.Bytes())
}

func TestExportRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run, sampleLog(), samplePulses()))

	dir := t.TempDir()
	behPath, pulsePath, err := s.ExportRun(ctx, run.ID, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ExportPrefix(run)+"_beh.csv"), behPath)

	beh, err := os.ReadFile(behPath)
	require.NoError(t, err)
	assert.Contains(t, string(beh), "condition,pair,block")
	assert.Contains(t, string(beh), "control,1,0,1,1,5,9")

	pulses, err := os.ReadFile(pulsePath)
	require.NoError(t, err)
	assert.Contains(t, string(pulses), "index,onset,spacing")
	assert.Contains(t, string(pulses), "2,2.5,2")
}

func TestExportRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.ExportRun(context.Background(), "missing", t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportPrefix_Sanitizes(t *testing.T) {
	run := Run{ID: "0198c9f2-aaaa-bbbb-cccc-ddddeeeeffff", SubjectID: "  pilot/07  ", Variant: VariantTraining}
	assert.Equal(t, "pilot-07_training_0198c9f2", ExportPrefix(run))
}
