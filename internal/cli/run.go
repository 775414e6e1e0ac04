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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/battery"
	"github.com/DataBridgeTech/dbqrules/checks"
	"github.com/DataBridgeTech/dbqrules/dataset"
	"github.com/DataBridgeTech/dbqrules/export"
	"github.com/DataBridgeTech/dbqrules/internal/config"
	"github.com/DataBridgeTech/dbqrules/report"
	"github.com/DataBridgeTech/dbqrules/sources"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the data quality checks against a dataset",
		Long: `Load a dataset from a CSV file (--input) or a database table (--source-type and
--dataset), evaluate the checks file or the built-in racing battery, print the
summary and write dq_report.json to the output directory.

Exits with an error when a failing check has on_fail set to error (the default).`,
		Example: `  dbqrules run --input laps.csv
  dbqrules run --input laps.csv --checks checks.yaml --export -o json
  dbqrules run --source-type clickhouse --source-host localhost --dataset racing.laps`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChecks(cmd.Context(), cmd.OutOrStdout(), getConfig(cmd.Context()), getLogger(cmd.Context()))
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "CSV file with a header row")
	flags.String("delimiter", "", "CSV field delimiter (default: ,)")
	flags.StringP("checks", "c", "", "Checks file (default: built-in racing battery)")
	flags.Bool("export", false, "Export the full violation set of every failing check")
	flags.String("metrics-file", "", "Write engine metrics in Prometheus text format to this file")
	flags.String("dataset", "", "Table to load when reading from a database")
	flags.String("where", "", "Optional filter applied when loading the table")
	flags.StringSlice("key", nil, "Primary key columns reported with each sampled row")
	flags.String("s3-bucket", "", "Export violations to this bucket instead of the output directory")
	flags.String("s3-region", "", "Bucket region")
	flags.String("s3-endpoint", "", "Endpoint of an S3 compatible service")
	flags.String("s3-prefix", "", "Key prefix for exported files")
	flags.Bool("s3-path-style", false, "Use path style addressing")
	addSourceFlags(flags)

	return cmd
}

func runChecks(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	checksCfg, err := loadChecksConfig(cfg)
	if err != nil {
		return err
	}
	built, err := checks.FromConfig(checksCfg)
	if err != nil {
		return fmt.Errorf("failed to build checks: %w", err)
	}

	key := cfg.Source.Key
	if len(key) == 0 {
		key = checksCfg.Dataset.Key
	}
	view, err := loadDataset(ctx, cfg, key, logger)
	if err != nil {
		return err
	}

	engine := dbqrules.NewRuleEngine(logger,
		dbqrules.WithWorkers(cfg.Workers),
		dbqrules.WithSampleSize(cfg.SampleSize))
	rep, err := engine.Report(ctx, view, built)
	if err != nil {
		return err
	}

	var exports map[string]string
	if cfg.Export.Enabled {
		sink, err := newSink(ctx, cfg)
		if err != nil {
			return err
		}
		exports, err = export.NewExporter(sink, logger, cfg.Workers).Export(ctx, view, rep.Results)
		if err != nil {
			return err
		}
	}

	path, err := report.SaveJSON(cfg.OutputDir, rep)
	if err != nil {
		return err
	}
	logger.Debug("report written", "path", path, "run_id", rep.RunID)

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	switch cfg.Format {
	case config.FormatJSON:
		err = report.WriteJSON(w, rep)
	default:
		if err = report.WriteTable(w, rep, exports); err == nil {
			err = report.WriteSamples(w, rep)
		}
	}
	if err != nil {
		return err
	}

	if rep.Failed() {
		return ErrChecksFailed
	}
	return nil
}

func loadChecksConfig(cfg *config.Config) (*dbqrules.ChecksFileConfig, error) {
	if cfg.ChecksFile == "" {
		return battery.Config()
	}
	return dbqrules.LoadChecksFileConfig(cfg.ChecksFile)
}

func loadDataset(ctx context.Context, cfg *config.Config, key []string, logger *slog.Logger) (dbqrules.DatasetView, error) {
	startTime := time.Now()

	if cfg.Input != "" {
		table, err := dataset.ReadCSVFile(cfg.Input, dataset.CSVOptions{Delimiter: cfg.Delimiter, Key: key})
		if err != nil {
			return nil, err
		}
		logger.Debug("dataset loaded",
			"dataset", table.Name(),
			"rows", table.RowCount(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return table, nil
	}

	if !cfg.UsesSource() {
		return nil, errors.New("either --input or --source-type is required")
	}
	if cfg.Source.Dataset == "" {
		return nil, fmt.Errorf("--dataset is required when loading from %s", cfg.Source.Type)
	}

	source, err := sources.New(cfg.DataSource(), logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("failed to close source", "error", err)
		}
	}()
	return source.Load(ctx, cfg.Source.Dataset, cfg.Source.Where, key)
}

func newSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	if !cfg.UsesS3() {
		return export.NewLocalSink(cfg.OutputDir)
	}
	s3cfg := cfg.Export.S3
	return export.NewS3Sink(ctx, export.S3Config{
		Bucket:         s3cfg.Bucket,
		Region:         s3cfg.Region,
		Prefix:         s3cfg.Prefix,
		AccessKeyID:    s3cfg.AccessKeyID,
		SecretKey:      s3cfg.SecretKey,
		Endpoint:       s3cfg.Endpoint,
		ForcePathStyle: s3cfg.ForcePathStyle,
	})
}
