package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testCSV = `appointment_month,appointment_mode,count_of_appointments
2023-01-01,Face-to-Face,1000
2023-01-01,Telephone,500
2023-07-01,Face-to-Face,1200
`

// execute runs the root command with fresh flag values
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configFile, datasetPath = "", ""
	verbose, quiet, noColor = false, false, true
	summaryMode, renderMode, renderOutput = "", "", ""
	exportOutput = "nhs-appointments.xlsx"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o600))
	return path
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"summary", "export", "render", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dashctl dev\n", out)
}

func TestSummary(t *testing.T) {
	out, err := execute(t, "summary", "-q", "--dataset", writeDataset(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Total Appointments")
	assert.Contains(t, out, "2,700")
	assert.Contains(t, out, "1,350")
	assert.Contains(t, out, "  - Face-to-Face\n  - Telephone\n")
	assert.Less(t, strings.Index(out, "Winter"), strings.Index(out, "Summer"))
	assert.NotContains(t, out, "Monthly series")
}

func TestSummary_WithMode(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "summary", "-q", "--dataset", path, "--mode", "Face-to-Face")
	require.NoError(t, err)
	assert.Contains(t, out, "2023-01")
	assert.Contains(t, out, "2023-07")
	assert.Contains(t, out, "1,200")

	out, err = execute(t, "summary", "-q", "--dataset", path, "--mode", "Carrier Pigeon")
	require.NoError(t, err)
	assert.Contains(t, out, `no appointments recorded for mode "Carrier Pigeon"`)
}

func TestSummary_MissingDataset(t *testing.T) {
	_, err := execute(t, "summary", "-q", "--dataset", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	var ece *exitCodeError
	require.True(t, errors.As(err, &ece))
	assert.Equal(t, ExitLoadFailure, ece.code)
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := execute(t, "export", "-q", "--dataset", writeDataset(t), "--output", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Monthly", "Seasonal"}, f.GetSheetList())
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := writeDataset(t)

	for _, chart := range []string{"line", "bar"} {
		out := filepath.Join(dir, chart+".svg")
		_, err := execute(t, "render", chart, "-q", "--dataset", path, "--output", out)
		require.NoError(t, err, chart)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}
}

func TestRender_NoData(t *testing.T) {
	_, err := execute(t, "render", "line", "-q", "--dataset", writeDataset(t), "--mode", "Unknown",
		"--output", filepath.Join(t.TempDir(), "line.svg"))

	var ece *exitCodeError
	require.True(t, errors.As(err, &ece))
	assert.Equal(t, ExitWriteFailure, ece.code)
}

func TestRender_InvalidChart(t *testing.T) {
	_, err := execute(t, "render", "pie", "--dataset", writeDataset(t))
	assert.Error(t, err)
}
