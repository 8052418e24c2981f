package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.hjson")
	_, err := run(t, "init", path)
	require.NoError(t, err)
	return path
}

func TestInit_RefusesOverwrite(t *testing.T) {
	path := writeInput(t)

	_, err := run(t, "init", path)
	assert.Error(t, err)
}

func TestCompute_Markdown(t *testing.T) {
	path := writeInput(t)

	out, err := run(t, "compute", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# NDMU - Notre Dame MD")
	assert.Contains(t, out, "| Total Cost | $272,090.00 |")
}

func TestCompute_JSON(t *testing.T) {
	path := writeInput(t)

	out, err := run(t, "compute", "--json", path)
	require.NoError(t, err)

	var got struct {
		ID       string `json:"id"`
		Headline struct {
			NetCost string `json:"net_cost"`
		} `json:"headline"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "190463", got.Headline.NetCost)
}

func TestCompute_InvalidInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{"system_size_kw": 0, "location": "maryland", "utility": "bge"}`), 0644))

	_, err := run(t, "compute", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
}

func TestExport_WritesBundle(t *testing.T) {
	path := writeInput(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "export", path, "--out", outDir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, filepath.Join(outDir, "NDMU_Notre_Dame_MD_ProForma.xlsx"), lines[0])
	for _, p := range lines {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestVerify_Input(t *testing.T) {
	path := writeInput(t)

	out, err := run(t, "verify", path)
	require.NoError(t, err)

	var got struct {
		Match bool `json:"match"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Match)
}

func TestVerify_Args(t *testing.T) {
	_, err := run(t, "verify")
	assert.Error(t, err, "input file required without --stored")
}

func TestTables(t *testing.T) {
	out, err := run(t, "tables")
	require.NoError(t, err)

	assert.Contains(t, out, "PEPCO Maryland")
	assert.Contains(t, out, "0.1350")
	assert.Contains(t, out, "MD Brighter Tomorrow SREC")
	assert.Contains(t, out, "2049")
}

func TestTables_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `
programs:
  - id: md-standard
    name: Short MD
    location: maryland
    market_fraction: 1
    multiplier: 1
    start_year: 2030
    acp: [10]
utilities:
  - id: bge
    name: Only BGE
    rate: 0.2
    locations: [maryland]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	out, err := run(t, "--incentives-file", path, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "Only BGE")
	assert.Contains(t, out, "Short MD")
	assert.NotContains(t, out, "PEPCO")
}
