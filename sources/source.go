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

// Package sources loads datasets from databases into in-memory tables.
package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/DataBridgeTech/dbqrules"
	"github.com/DataBridgeTech/dbqrules/cnn"
	"github.com/DataBridgeTech/dbqrules/dataset"
)

// Source is a database that datasets can be loaded from.
type Source interface {
	// Ping checks connectivity and returns the server version or "OK".
	Ping(ctx context.Context) (string, error)

	// ListDatasets returns the fully qualified names of the tables whose schema
	// or name contains filter.
	ListDatasets(ctx context.Context, filter string) ([]string, error)

	// Load reads the dataset, optionally restricted by a where clause, into memory.
	// The dataset and where clause come from trusted configuration and are not escaped.
	Load(ctx context.Context, dataset string, where string, key []string) (*dataset.Table, error)

	Close() error
}

// New opens the data source and returns a Source for it.
func New(dataSource *dbqrules.DataSource, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := dataSource.Configuration
	switch dataSource.Type {
	case dbqrules.DataSourceTypeClickhouse:
		connection, err := cnn.NewClickhouseConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
		}
		return NewClickhouseSource(connection, logger), nil
	case dbqrules.DataSourceTypePostgresql:
		connection, err := cnn.NewPostgresqlConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql connection: %w", err)
		}
		return NewSQLSource(connection, PostgresqlDialect, logger), nil
	case dbqrules.DataSourceTypeMysql:
		connection, err := cnn.NewMysqlConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connection: %w", err)
		}
		return NewSQLSource(connection, MysqlDialect, logger), nil
	case dbqrules.DataSourceTypeDuckdb:
		connection, err := cnn.NewDuckdbConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create duckdb connection: %w", err)
		}
		return NewSQLSource(connection, DuckdbDialect, logger), nil
	case dbqrules.DataSourceTypeSqlite:
		connection, err := cnn.NewSqliteConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite connection: %w", err)
		}
		return NewSQLSource(connection, SqliteDialect, logger), nil
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", dataSource.Type)
	}
}

func selectQuery(dataset string, where string) string {
	query := "SELECT * FROM " + dataset
	if where = strings.TrimSpace(where); where != "" {
		query += " WHERE " + where
	}
	return query
}

// normalizeValue maps a scanned driver value onto the scalar types checks work
// with: int64, float64, bool, string, time values or nil.
func normalizeValue(v any, typ dbqrules.ColumnType) any {
	v = deref(v)
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch typ {
	case dbqrules.ColumnTypeInteger:
		switch n := v.(type) {
		case int64:
			return n
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return parsed
			}
		default:
			rv := reflect.ValueOf(v)
			switch rv.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return rv.Int()
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return int64(rv.Uint())
			}
		}
	case dbqrules.ColumnTypeFloat:
		if f, ok := dbqrules.AsFloat(v); ok {
			return f
		}
		// decimal types render exactly through Stringer
		if s, ok := v.(fmt.Stringer); ok {
			if f, err := strconv.ParseFloat(s.String(), 64); err == nil {
				return f
			}
		}
	case dbqrules.ColumnTypeBoolean:
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return parsed
			}
		case int64:
			return b != 0
		}
	}
	return v
}

// deref unwraps pointers produced by scanning into nullable destinations.
func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func buildTable(name string, columns []dbqrules.ColumnInfo, values [][]any, key []string) (*dataset.Table, error) {
	data := make(map[string][]any, len(columns))
	for i, col := range columns {
		if values[i] == nil {
			values[i] = []any{}
		}
		data[col.Name] = values[i]
	}

	opts := []dataset.Option{dataset.WithName(name)}
	if len(key) > 0 {
		opts = append(opts, dataset.WithKey(key...))
	}
	return dataset.NewFromColumns(columns, data, opts...)
}
