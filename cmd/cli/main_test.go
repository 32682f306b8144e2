package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSingleCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "single.csv")
	stdout, err := execute(t, "single", "--hours", "48", "--solar-kw", "15", "--start", "2024-06-01", "--out", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Single Home (H001)")
	assert.Contains(t, stdout, "Solar kW: 15.0")
	assert.Contains(t, stdout, "Fair-rate ($0.18/kWh)")
	rows := readCSV(t, out)
	assert.Len(t, rows, 49)
	assert.Equal(t, "hour", rows[0][0])
	assert.Equal(t, "self_first", rows[1][len(rows[1])-1])
}

func TestSingleCommand_JSONInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "series.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"rows":[
		{"home_id":"H001","hour":0,"pv_production_kwh":0,"load_consumption_kwh":1},
		{"home_id":"H001","hour":1,"pv_production_kwh":4,"load_consumption_kwh":1}
	]}`), 0o644))

	out := filepath.Join(dir, "single.csv")
	_, err := execute(t, "single", "--input", input, "--out", out)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, out), 3)

	_, err = execute(t, "single", "--input", filepath.Join(dir, "missing.json"), "--out", out)
	assert.Error(t, err)
}

func TestSingleCommand_BadFlags(t *testing.T) {
	out := filepath.Join(t.TempDir(), "single.csv")
	_, err := execute(t, "single", "--initial-soc", "1.5", "--out", out)
	assert.Error(t, err)

	_, err = execute(t, "single", "--policy", "community_first", "--out", out)
	assert.Error(t, err)

	_, err = execute(t, "single", "--pool-cap", "-1", "--out", out)
	assert.Error(t, err)
}

func TestCommunityCommand(t *testing.T) {
	dir := t.TempDir()
	ts := filepath.Join(dir, "ts.csv")
	meta := filepath.Join(dir, "meta.csv")

	stdout, err := execute(t, "community", "--days", "1", "--out-timeseries", ts, "--out-metadata", meta)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Homes: 10  |  Days: 1  |  Hours: 24")
	assert.Contains(t, stdout, "Microgrid Shared:")
	assert.Contains(t, stdout, "(Should balance):")
	assert.Len(t, readCSV(t, ts), 1+24*10)
	assert.Len(t, readCSV(t, meta), 11)
}

func TestCommunityCommand_ConfigRoster(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
output:
  dir: `+dir+`
community:
  homes:
    - {id: A, solar_kw: 8, battery_kwh: 10, initial_soc: 0.5}
    - {id: B, solar_kw: 2, battery_kwh: 5, initial_soc: 0.5, is_net_consumer: true}
`), 0o644))

	stdout, err := execute(t, "--config", cfgPath, "community", "--days", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Homes: 2")
	assert.Len(t, readCSV(t, filepath.Join(dir, "community_timeseries.csv")), 1+48*2)
	assert.Len(t, readCSV(t, filepath.Join(dir, "community_metadata.csv")), 3)
}
