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

package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/dataset"
)

type ClickhouseSource struct {
	cnn    driver.Conn
	logger *slog.Logger
}

func NewClickhouseSource(cnn driver.Conn, logger *slog.Logger) *ClickhouseSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ClickhouseSource{
		cnn:    cnn,
		logger: logger,
	}
}

func (c *ClickhouseSource) Ping(ctx context.Context) (string, error) {
	if err := c.cnn.Ping(ctx); err != nil {
		return "", err
	}
	serverVersion, err := c.cnn.ServerVersion()
	if err != nil {
		return "", err
	}
	return serverVersion.String(), nil
}

func (c *ClickhouseSource) ListDatasets(ctx context.Context, filter string) ([]string, error) {
	query := `
        select database, name
        from system.tables
        where
            database not in ('system', 'INFORMATION_SCHEMA', 'information_schema')
            and not startsWith(name, '.')
            and is_temporary = 0`

	var args []any
	if filter = strings.TrimSpace(filter); filter != "" {
		query += ` and (database like ? or name like ?)`
		args = append(args, likePattern(filter), likePattern(filter))
	}
	query += ` order by database, name`

	rows, err := c.cnn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query system.tables: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var datasets []string
	for rows.Next() {
		var databaseName, tableName string
		if err := rows.Scan(&databaseName, &tableName); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		datasets = append(datasets, fmt.Sprintf("%s.%s", databaseName, tableName))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return datasets, nil
}

func (c *ClickhouseSource) Load(ctx context.Context, name string, where string, key []string) (*dataset.Table, error) {
	startTime := time.Now()
	query := selectQuery(name, where)
	c.logger.Debug("loading dataset", "dataset", name, "query", query)

	rows, err := c.cnn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.Warn("failed to close rows", "error", err)
		}
	}()

	colTypes := rows.ColumnTypes()
	columns := make([]dbqrules.ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = dbqrules.ColumnInfo{
			Name:     ct.Name(),
			Type:     ClassifyClickhouseType(ct.DatabaseTypeName()),
			Position: uint(i + 1),
		}
	}

	values := make([][]any, len(columns))
	for rows.Next() {
		scanArgs := make([]any, len(colTypes))
		for i, colType := range colTypes {
			scanArgs[i] = reflect.New(colType.ScanType()).Interface()
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i := range scanArgs {
			values[i] = append(values[i], normalizeValue(scanArgs[i], columns[i].Type))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	table, err := buildTable(name, columns, values, key)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("dataset loaded",
		"dataset", name,
		"rows", table.RowCount(),
		"duration_ms", time.Since(startTime).Milliseconds())
	return table, nil
}

func (c *ClickhouseSource) Close() error {
	return c.cnn.Close()
}

// ClassifyClickhouseType maps a ClickHouse type such as Nullable(Int32) or
// LowCardinality(String) onto a column type.
func ClassifyClickhouseType(dataType string) dbqrules.ColumnType {
	dataType = strings.ToLower(strings.TrimSpace(dataType))
	for unwrapped := true; unwrapped; {
		unwrapped = false
		for _, wrapper := range []string{"nullable(", "lowcardinality("} {
			if strings.HasPrefix(dataType, wrapper) {
				dataType = strings.TrimSuffix(strings.TrimPrefix(dataType, wrapper), ")")
				unwrapped = true
			}
		}
	}

	switch {
	case strings.HasPrefix(dataType, "int"), strings.HasPrefix(dataType, "uint"):
		return dbqrules.ColumnTypeInteger
	case strings.HasPrefix(dataType, "float"), strings.HasPrefix(dataType, "decimal"):
		return dbqrules.ColumnTypeFloat
	case strings.HasPrefix(dataType, "bool"):
		return dbqrules.ColumnTypeBoolean
	default:
		return dbqrules.ColumnTypeString
	}
}
