// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/profilers"
	"github.com/DataBridgeTech/dbqrules/report"
)

const lapsHeader = "event_id,session,lap,timestamp_ms,driver,team,car_no,tyre,air_temp_c,track_temp_c,battery_soc,fuel_kg,sensor_0008_val\n"

const cleanLaps = lapsHeader +
	"E1,R,1,1700000000000,VER,RBR,7,Soft,25.0,40.0,30.0,50.0,120.0\n" +
	"E1,R,2,1700000090000,VER,RBR,7,Soft,25.5,41.0,29.0,48.0,130.0\n"

const dirtyLaps = lapsHeader +
	"E1,R,1,1700000000000,VER,RBR,7,Soft,25.0,40.0,30.0,50.0,120.0\n" +
	"E1,R,1,1700000000000,VER,RBR,7,Slick,25.0,40.0,30.0,50.0,120.0\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_CleanCSV(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "laps.csv", cleanLaps)
	outDir := filepath.Join(dir, "out")

	metricsFile := filepath.Join(dir, "dbqrules.prom")

	out, err := execute(t, "run", "--input", input, "--output-dir", outDir, "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Contains(t, out, "dataset laps.csv: 2 rows, 13 columns")
	assert.Contains(t, out, "11 checks: 11 passed, 0 failed, 0 cancelled")
	assert.FileExists(t, filepath.Join(outDir, report.FileName))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "dbqrules_checks_total")
}

func TestRun_DirtyCSVWithExport(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "laps.csv", dirtyLaps)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "-i", input, "--output-dir", outDir, "--export", "-o", "json")
	require.ErrorIs(t, err, ErrChecksFailed)

	var rep dbqrules.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	violations := map[string]int{}
	for _, res := range rep.Results {
		violations[res.Name] = res.Violations
	}
	assert.Equal(t, 2, violations["pk_unique"])
	assert.Equal(t, 1, violations["tyre_in_domain"])
	assert.Equal(t, 0, violations["air_temp_c_in_0_30"])

	exported, err := os.ReadFile(filepath.Join(outDir, "violations", "pk_unique", "part-00000.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(exported)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.TrimSpace(lapsHeader)+",count", lines[0])

	assert.NoFileExists(t, filepath.Join(outDir, "violations", "air_temp_c_in_0_30", "part-00000.csv"))
	assert.FileExists(t, filepath.Join(outDir, report.FileName))
}

func TestRun_WarnOnlyFailures(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "laps.csv", dirtyLaps)
	checksFile := writeFile(t, dir, "checks.yaml", `
checks:
  - domain(tyre) in (Soft, Medium, Hard):
      name: tyre_known
      on_fail: warn
`)

	out, err := execute(t, "run", "-i", input, "-c", checksFile, "--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "tyre_known")
	assert.Contains(t, out, "Slick")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "run", "--output-dir", dir)
	assert.ErrorContains(t, err, "either --input or --source-type")

	_, err = execute(t, "run", "--source-type", "sqlite", "--source-path", filepath.Join(dir, "x.db"), "--output-dir", dir)
	assert.ErrorContains(t, err, "--dataset is required")

	_, err = execute(t, "run", "-i", filepath.Join(dir, "missing.csv"), "--output-dir", dir)
	assert.Error(t, err)

	_, err = execute(t, "run", "-o", "xml")
	assert.ErrorContains(t, err, "format must be")
}

func TestRun_SqliteSource(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "laps.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`create table laps (lap integer, fuel_kg real)`)
	require.NoError(t, err)
	_, err = db.Exec(`insert into laps values (1, 40.0), (2, -1.0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	checksFile := writeFile(t, dir, "checks.yaml", `
checks:
  - required_columns(lap, fuel_kg)
  - range(fuel_kg) >= 0:
      name: fuel_kg_non_negative
      on_fail: warn
`)

	out, err := execute(t, "run",
		"--source-type", "sqlite",
		"--source-path", dbPath,
		"--dataset", "laps",
		"--checks", checksFile,
		"--output-dir", filepath.Join(dir, "out"),
		"--format", "json")
	require.NoError(t, err)

	var rep dbqrules.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "laps", rep.Dataset.Name)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, dbqrules.StatusPass, rep.Results[0].Status)
	assert.Equal(t, 1, rep.Results[1].Violations)

	out, err = execute(t, "datasets", "--source-type", "sqlite", "--source-path", dbPath, "lap")
	require.NoError(t, err)
	assert.Equal(t, "main.laps\n", out)
}

func TestChecksCommand(t *testing.T) {
	out, err := execute(t, "checks")
	require.NoError(t, err)
	assert.Contains(t, out, "required_columns_present")
	assert.Contains(t, out, "if tyre == wet then sensor_0008_val between 100 and 250")
	assert.Contains(t, out, "tyre_in_domain")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dbqrules "+dbqrules.Version+"\n", out)
}

func TestDatasetsCommand_RequiresSource(t *testing.T) {
	_, err := execute(t, "datasets")
	assert.ErrorContains(t, err, "--source-type is required")
}

func TestProfileCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "laps.csv", cleanLaps)

	out, err := execute(t, "profile", "--input", input, "--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "dataset laps.csv: 2 rows")
	assert.Contains(t, out, "sensor_0008_val")
	assert.Less(t, strings.Index(out, "event_id"), strings.Index(out, "sensor_0008_val"))

	out, err = execute(t, "profile", "--input", input, "--format", "json", "--with-sample")
	require.NoError(t, err)

	var metrics profilers.TableMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &metrics))
	assert.Equal(t, uint64(2), metrics.TotalRows)
	assert.Len(t, metrics.RowsSample, 2)
	fuel := metrics.ColumnsMetrics["fuel_kg"]
	require.NotNil(t, fuel)
	assert.Equal(t, 48.0, *fuel.MinValue)
	assert.Equal(t, 50.0, *fuel.MaxValue)
}

func TestProfileCommand_RequiresInput(t *testing.T) {
	_, err := execute(t, "profile")
	assert.ErrorContains(t, err, "either --input or --source-type is required")
}
