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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newChecksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the configured checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			checksCfg, err := loadChecksConfig(getConfig(cmd.Context()))
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Name", "Expression", "On Fail", "Description"})
			for i := range checksCfg.Checks {
				c := &checksCfg.Checks[i]
				onFail := string(c.OnFail)
				if onFail == "" {
					onFail = "error"
				}
				expression := c.Expression
				if c.Conditional != nil {
					expression = "if " + c.Conditional.When + " then " + c.Conditional.Then
				}
				t.AppendRow(table.Row{i + 1, c.CheckName(), expression, onFail, c.Description})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringP("checks", "c", "", "Checks file (default: built-in racing battery)")
	return cmd
}
