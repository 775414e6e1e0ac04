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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/dbqrules/sources"
)

func newDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets [filter]",
		Short: "List the tables of a data source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())
			if cfg.Source.Type == "" {
				return errors.New("--source-type is required")
			}

			source, err := sources.New(cfg.DataSource(), logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := source.Close(); err != nil {
					logger.Warn("failed to close source", "error", err)
				}
			}()

			version, err := source.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to ping %s: %w", cfg.Source.Type, err)
			}
			logger.Debug("connected", "type", cfg.Source.Type, "version", version)

			var filter string
			if len(args) > 0 {
				filter = args[0]
			}
			datasets, err := source.ListDatasets(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, name := range datasets {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	addSourceFlags(cmd.Flags())
	return cmd
}
