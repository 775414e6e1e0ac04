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
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/dbqrules/internal/config"
	"github.com/DataBridgeTech/dbqrules/profilers"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Collect per-column statistics of a dataset",
		Long: `Load a dataset the same way run does and report, per column, the null and
distinct counts, blank strings, numeric min/max/avg/stddev and the most frequent value.
Useful for picking thresholds before writing checks.`,
		Example: `  dbqrules profile --input laps.csv
  dbqrules profile --source-type duckdb --source-path telemetry.db --dataset laps -o json --with-sample`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())
			withSample, _ := cmd.Flags().GetBool("with-sample")

			view, err := loadDataset(cmd.Context(), cfg, cfg.Source.Key, logger)
			if err != nil {
				return err
			}

			metrics, err := profilers.NewProfiler(logger, cfg.Workers).ProfileDataset(cmd.Context(), view, withSample)
			if err != nil {
				return err
			}
			for _, e := range metrics.Errors {
				logger.Warn("column not profiled", "error", e)
			}

			if cfg.Format == config.FormatJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(metrics)
			}
			writeProfileTable(cmd.OutOrStdout(), metrics)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "CSV file with a header row")
	flags.String("delimiter", "", "CSV field delimiter (default: ,)")
	flags.String("dataset", "", "Table to load when reading from a database")
	flags.String("where", "", "Optional filter applied when loading the table")
	flags.Bool("with-sample", false, "Include the first rows of the dataset (json output only)")
	addSourceFlags(flags)

	return cmd
}

func writeProfileTable(w io.Writer, metrics *profilers.TableMetrics) {
	_, _ = fmt.Fprintf(w, "dataset %s: %d rows\n", metrics.TableName, metrics.TotalRows)

	columns := make([]*profilers.ColumnMetrics, 0, len(metrics.ColumnsMetrics))
	for _, m := range metrics.ColumnsMetrics {
		columns = append(columns, m)
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].ColumnPosition < columns[j].ColumnPosition })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nulls", "Distinct", "Blank", "Min", "Max", "Avg", "Stddev", "Most Frequent"})
	for _, m := range columns {
		blank := "-"
		if m.BlankCount != nil {
			blank = fmt.Sprint(*m.BlankCount)
		}
		mfv := "-"
		if m.MostFrequentValue != nil {
			mfv = *m.MostFrequentValue
		}
		t.AppendRow(table.Row{
			m.ColumnName, m.DataType, m.NullCount, m.DistinctCount, blank,
			formatStat(m.MinValue), formatStat(m.MaxValue), formatStat(m.AvgValue), formatStat(m.StddevValue),
			mfv,
		})
	}
	t.Render()
}

func formatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4g", *v)
}
