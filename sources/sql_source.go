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
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/dataset"
)

// Dialect holds what differs between database/sql backed engines.
type Dialect struct {
	Name string
	// ListQuery returns the statement listing "schema.table" pairs as two
	// columns, filtered by a LIKE pattern when filter is not empty.
	ListQuery func(filter string) (string, []any)
}

var PostgresqlDialect = Dialect{
	Name: "postgresql",
	ListQuery: func(filter string) (string, []any) {
		query := `
		select table_schema, table_name
		from information_schema.tables
		where table_schema not in ('pg_catalog', 'information_schema')`
		var args []any
		if filter != "" {
			query += " and (table_schema like $1 or table_name like $1)"
			args = append(args, likePattern(filter))
		}
		return query + " order by table_schema, table_name", args
	},
}

var MysqlDialect = Dialect{
	Name: "mysql",
	ListQuery: func(filter string) (string, []any) {
		query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')`
		var args []any
		if filter != "" {
			query += " AND (table_schema LIKE ? OR table_name LIKE ?)"
			args = append(args, likePattern(filter), likePattern(filter))
		}
		return query + " ORDER BY table_schema, table_name", args
	},
}

var DuckdbDialect = Dialect{
	Name: "duckdb",
	ListQuery: func(filter string) (string, []any) {
		query := `
		select table_schema, table_name
		from information_schema.tables
		where table_schema not in ('information_schema', 'pg_catalog')`
		var args []any
		if filter != "" {
			query += " and (table_schema like ? or table_name like ?)"
			args = append(args, likePattern(filter), likePattern(filter))
		}
		return query + " order by table_schema, table_name", args
	},
}

var SqliteDialect = Dialect{
	Name: "sqlite",
	ListQuery: func(filter string) (string, []any) {
		query := `
		select 'main', name
		from sqlite_master
		where type in ('table', 'view') and name not like 'sqlite_%'`
		var args []any
		if filter != "" {
			query += " and name like ?"
			args = append(args, likePattern(filter))
		}
		return query + " order by name", args
	},
}

func likePattern(filter string) string {
	return fmt.Sprintf("%%%s%%", strings.TrimSpace(filter))
}

// SQLSource loads datasets through database/sql.
type SQLSource struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewSQLSource(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLSource{db: db, dialect: dialect, logger: logger}
}

func (s *SQLSource) Ping(ctx context.Context) (string, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return "", err
	}
	return "OK", nil
}

func (s *SQLSource) ListDatasets(ctx context.Context, filter string) ([]string, error) {
	query, args := s.dialect.ListQuery(strings.TrimSpace(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s tables: %w", s.dialect.Name, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var datasets []string
	for rows.Next() {
		var schemaName, tableName string
		if err := rows.Scan(&schemaName, &tableName); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		datasets = append(datasets, fmt.Sprintf("%s.%s", schemaName, tableName))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return datasets, nil
}

func (s *SQLSource) Load(ctx context.Context, name string, where string, key []string) (*dataset.Table, error) {
	startTime := time.Now()
	query := selectQuery(name, where)
	s.logger.Debug("loading dataset", "dataset", name, "query", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %s: %w", name, err)
	}
	columns := make([]dbqrules.ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = dbqrules.ColumnInfo{
			Name:     ct.Name(),
			Type:     ClassifySQLType(ct.DatabaseTypeName()),
			Position: uint(i + 1),
		}
	}

	values := make([][]any, len(columns))
	scanned := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range scanned {
		pointers[i] = &scanned[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i := range scanned {
			values[i] = append(values[i], normalizeValue(scanned[i], columns[i].Type))
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	table, err := buildTable(name, columns, values, key)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("dataset loaded",
		"dataset", name,
		"rows", table.RowCount(),
		"duration_ms", time.Since(startTime).Milliseconds())
	return table, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// ClassifySQLType maps a database/sql type name onto a column type.
func ClassifySQLType(databaseType string) dbqrules.ColumnType {
	t := strings.ToUpper(strings.TrimSpace(databaseType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")

	switch {
	case strings.HasPrefix(t, "BOOL"):
		return dbqrules.ColumnTypeBoolean
	case strings.HasPrefix(t, "INTERVAL"), strings.Contains(t, "POINT"):
		return dbqrules.ColumnTypeString
	case strings.HasSuffix(t, "INT"), strings.HasPrefix(t, "INT"), strings.Contains(t, "INTEGER"), strings.HasSuffix(t, "SERIAL"):
		return dbqrules.ColumnTypeInteger
	case strings.HasPrefix(t, "FLOAT"), strings.HasPrefix(t, "DOUBLE"), t == "REAL",
		strings.HasPrefix(t, "NUMERIC"), strings.HasPrefix(t, "DECIMAL"):
		return dbqrules.ColumnTypeFloat
	default:
		return dbqrules.ColumnTypeString
	}
}
