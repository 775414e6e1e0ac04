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

package battery

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/dataset"
)

var checkNames = []string{
	"required_columns_present",
	"pk_unique",
	"timestamp_ms_is_13_digits",
	"lap_not_decreasing_per_car",
	"timestamp_not_decreasing_per_car",
	"air_temp_c_in_0_30",
	"track_temp_c_in_-20_80",
	"battery_soc_in_0.6_40",
	"fuel_kg_non_negative",
	"if_wet_then_sensor_0008_val_100_250",
	"tyre_in_domain",
}

const header = "event_id,session,lap,timestamp_ms,driver,team,car_no,tyre,air_temp_c,track_temp_c,battery_soc,fuel_kg,sensor_0008_val\n"

func runBattery(t *testing.T, csvData string) *dbqrules.Report {
	t.Helper()
	table, err := dataset.ReadCSV(strings.NewReader(csvData), dataset.CSVOptions{Name: "laps.csv"})
	require.NoError(t, err)

	built, err := Default()
	require.NoError(t, err)

	rep, err := dbqrules.NewRuleEngine(nil, dbqrules.WithWorkers(4)).Report(context.Background(), table, built)
	require.NoError(t, err)
	return rep
}

func violationsByName(rep *dbqrules.Report) map[string]int {
	out := make(map[string]int, len(rep.Results))
	for _, res := range rep.Results {
		out[res.Name] = res.Violations
	}
	return out
}

func TestDefault(t *testing.T) {
	built, err := Default()
	require.NoError(t, err)
	require.Len(t, built, len(checkNames))
	for i, check := range built {
		assert.Equal(t, checkNames[i], check.Name())
	}

	cfg, err := Config()
	require.NoError(t, err)
	assert.Equal(t, []string{"event_id", "session", "car_no", "lap"}, cfg.Dataset.Key)
	assert.Equal(t, racingYAML, YAML())
}

func TestBattery_CleanData(t *testing.T) {
	rep := runBattery(t, header+
		"E1,R,1,1700000000000,VER,RBR,7,Soft,25.0,40.0,30.0,50.0,120.0\n"+
		"E1,R,2,1700000090000,VER,RBR,7,Soft,25.5,41.0,29.0,48.0,130.0\n"+
		"E1,R,1,1700000001000,HAM,MER,44,Wet,20.0,30.0,20.0,52.0,200.0\n")

	for _, res := range rep.Results {
		assert.Equal(t, dbqrules.StatusPass, res.Status, "%s: %s", res.Name, res.Note)
	}
	assert.False(t, rep.Failed())
	assert.Equal(t, dbqrules.DatasetInfo{Name: "laps.csv", RowCount: 3, ColumnCount: 13}, rep.Dataset)
}

func TestBattery_DirtyData(t *testing.T) {
	rep := runBattery(t, header+
		"E1,R,1,1700000000000,VER,RBR,7,Soft,25.0,40.0,30.0,50.0,120.0\n"+
		"E1,R,2,1700000090000,VER,RBR,7,Soft,31.0,41.0,29.0,48.0,130.0\n"+
		"E1,R,2,170000009000,VER,RBR,7,soft,25.0,41.0,29.0,-1.0,130.0\n"+
		"E1,R,1,1700000001000,HAM,MER,44,wet,20.0,30.0,20.0,52.0,300.0\n"+
		"E1,R,3,1700000180000,HAM,MER,44,Slick,20.0,30.0,0.5,52.0,\n"+
		"E1,R,2,1700000090000,HAM,MER,44,Hard,20.0,90.0,20.0,52.0,150.0\n")

	assert.Equal(t, map[string]int{
		"required_columns_present":            0,
		"pk_unique":                           2,
		"timestamp_ms_is_13_digits":           1,
		"lap_not_decreasing_per_car":          1,
		"timestamp_not_decreasing_per_car":    1,
		"air_temp_c_in_0_30":                  1,
		"track_temp_c_in_-20_80":              1,
		"battery_soc_in_0.6_40":               1,
		"fuel_kg_non_negative":                1,
		"if_wet_then_sensor_0008_val_100_250": 1,
		"tyre_in_domain":                      1,
	}, violationsByName(rep))
	assert.True(t, rep.Failed())

	byName := map[string]*dbqrules.CheckResult{}
	for _, res := range rep.Results {
		byName[res.Name] = res
	}

	lap := byName["lap_not_decreasing_per_car"]
	assert.Equal(t, []string{"event_id", "session", "car_no", "prev_lap", "lap"}, lap.SampleColumns)
	require.Len(t, lap.Sample, 1)
	assert.Equal(t, 5, lap.Sample[0].Row.Position)
	assert.Equal(t, int64(3), lap.Sample[0].Values["prev_lap"])

	pk := byName["pk_unique"]
	assert.Equal(t, []string{"event_id", "session", "car_no", "lap", "count"}, pk.SampleColumns)
	require.Len(t, pk.Sample, 2)
	assert.Equal(t, 2, pk.Sample[0].Values["count"])

	ts := byName["timestamp_not_decreasing_per_car"]
	require.Len(t, ts.Sample, 1)
	assert.Equal(t, 2, ts.Sample[0].Row.Position)

	tyre := byName["tyre_in_domain"]
	require.Len(t, tyre.Sample, 1)
	assert.Equal(t, "Slick", tyre.Sample[0].Values["tyre"])
}

func TestBattery_MissingColumns(t *testing.T) {
	rep := runBattery(t, "event_id,lap,tyre\nE1,1,Soft\n")

	results := violationsByName(rep)
	assert.Equal(t, 1, results["required_columns_present"])
	assert.Equal(t, 0, results["tyre_in_domain"])
	for _, res := range rep.Results {
		if res.Name == "tyre_in_domain" || res.Name == "required_columns_present" {
			continue
		}
		assert.Equal(t, dbqrules.FaultConfiguration, res.Fault, res.Name)
		assert.Equal(t, 1, res.Violations, res.Name)
	}
}
