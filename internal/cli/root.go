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

// Package cli provides the dbqrules command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/DataBridgeTech/dbqrules/internal/config"
)

// ErrChecksFailed is returned by run when a failing check is configured to fail the run.
var ErrChecksFailed = errors.New("data quality checks failed")

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "dbqrules",
		Short: "dbqrules - data quality rules for tabular telemetry",
		Long: `dbqrules evaluates a battery of data quality checks against a CSV file or a
database table and reports, per check, the number of violating rows with a sample.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./dbqrules.yaml)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("format", "o", "", "Output format (table|json)")
	flags.Int("workers", 0, "Checks evaluated in parallel (default: number of CPUs)")
	flags.Int("sample-size", 0, "Violating rows kept per check")
	flags.String("output-dir", "", "Directory for dq_report.json and exported violations")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newChecksCommand())
	rootCmd.AddCommand(newDatasetsCommand())
	rootCmd.AddCommand(newProfileCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and prints the error, if any, to stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("source-type", "", "Database type (clickhouse|postgresql|mysql|duckdb|sqlite)")
	flags.String("source-host", "", "Database host")
	flags.Int("source-port", 0, "Database port")
	flags.String("source-database", "", "Database name")
	flags.String("source-username", "", "Database user")
	flags.String("source-password", "", "Database password")
	flags.String("source-path", "", "Database file for duckdb and sqlite")
}

func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Delimiter: ",",
		OutputDir: config.DefaultOutputDir,
		Format:    config.DefaultFormat,
	}
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
