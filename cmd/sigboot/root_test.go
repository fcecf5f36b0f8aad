package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"github.com/YuminosukeSato/sigboot/significance"
)

func init() {
	errors.SetWarningHandler(func(error) {})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	out, err := execute(t, "generate", "--samples", "20", "--features", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header plus one row per feature")
	assert.True(t, strings.HasPrefix(lines[0], "id,"))
	assert.True(t, strings.HasPrefix(lines[1], "f0,"))
}

func TestRunWithConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")
	_, err := execute(t, "generate", "-o", data)
	require.NoError(t, err)

	report := filepath.Join(dir, "report.json")
	cfgPath := filepath.Join(dir, "sigboot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"epochs: 5\nnum_splits: 10\nlog_level: error\njson_path: "+report+"\n"), 0o644))

	out, err := execute(t, "--config", cfgPath, "-f", data, "-e", "1", "-p", "l1")
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset : 200 samples x 10 features")
	assert.Contains(t, out, "Average number of significant features")
	assert.Contains(t, out, "Test data, filtered features")

	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep significance.Report
	require.NoError(t, json.Unmarshal(raw, &rep))
	assert.Len(t, rep.Epochs, 1, "the epochs flag overrides the file")
	assert.Equal(t, 200, rep.NumSamples)
	assert.Equal(t, 10, rep.NumFeatures)
}

func TestRunRequiresData(t *testing.T) {
	_, err := execute(t, "--log-level", "error")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)
	assert.Contains(t, err.Error(), "data_path")
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "-f", "data.csv", "--method", "bayes")
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)

	_, err = execute(t, "-f", "data.csv", "--splits", "1")
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)
}

func TestRunMissingFile(t *testing.T) {
	_, err := execute(t, "-f", filepath.Join(t.TempDir(), "missing.csv"), "--log-level", "error")
	assert.Error(t, err)
}
